package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yanqian/solarinfra/internal/domain/catalog"
)

type pricePayload struct {
	Price decimal.Decimal `json:"price"`
}

type artworkPayload struct {
	Prompt string `json:"prompt"`
}

// ListProducts returns the filtered catalogue.
func (h *Handler) ListProducts(c *gin.Context) {
	filter := catalog.Filter{Capacity: c.Query("capacity")}
	var err error
	if filter.MaxPrice, err = optionalDecimal(c.Query("maxPrice")); err != nil {
		badRequest(c, fmt.Errorf("maxPrice: %w", err))
		return
	}
	if filter.MaxEMI, err = optionalDecimal(c.Query("maxEmi")); err != nil {
		badRequest(c, fmt.Errorf("maxEmi: %w", err))
		return
	}
	products, err := h.catalogSvc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

// GetProduct returns one product.
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ProductProjection projects payback for a product against ?bill=.
func (h *Handler) ProductProjection(c *gin.Context) {
	bill, err := strconv.ParseFloat(strings.TrimSpace(c.Query("bill")), 64)
	if err != nil {
		badRequest(c, fmt.Errorf("bill must be a number: %w", err))
		return
	}
	projection, err := h.catalogSvc.Projection(c.Request.Context(), c.Param("id"), bill)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}

// CreateProduct adds a kit to the catalogue.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req catalog.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProductPrice reprices a kit and recomputes its EMI.
func (h *Handler) UpdateProductPrice(c *gin.Context) {
	var req pricePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.catalogSvc.UpdatePrice(c.Request.Context(), c.Param("id"), req.Price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ToggleProductStock flips availability.
func (h *Handler) ToggleProductStock(c *gin.Context) {
	product, err := h.catalogSvc.ToggleStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a kit.
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalogSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateProductArtwork renders and attaches a product image.
func (h *Handler) GenerateProductArtwork(c *gin.Context) {
	var req artworkPayload
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	product, err := h.catalogSvc.GenerateArtwork(c.Request.Context(), c.Param("id"), req.Prompt)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
