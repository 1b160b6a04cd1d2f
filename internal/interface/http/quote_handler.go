package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/quote"
)

// RequestQuote opens a quote for the signed-in customer.
func (h *Handler) RequestQuote(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req quote.RequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	who := quote.Requester{UserID: claims.UserID, Email: claims.Email, Name: strings.Split(claims.Email, "@")[0]}
	if profile, err := h.authSvc.Profile(c.Request.Context(), claims.UserID); err == nil && profile.DisplayName != "" {
		who.Name = profile.DisplayName
	}
	q, err := h.quoteSvc.Request(c.Request.Context(), who, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// ListMyQuotes returns the caller's quotes.
func (h *Handler) ListMyQuotes(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	quotes, err := h.quoteSvc.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": quotes})
}

// AcceptQuote approves a sent quote.
func (h *Handler) AcceptQuote(c *gin.Context) {
	h.customerAction(c, h.quoteSvc.Accept)
}

// RejectQuote declines a sent quote.
func (h *Handler) RejectQuote(c *gin.Context) {
	h.customerAction(c, h.quoteSvc.Reject)
}

// PayQuote runs the simulated payment for an approved quote.
func (h *Handler) PayQuote(c *gin.Context) {
	h.customerAction(c, h.quoteSvc.Pay)
}

func (h *Handler) customerAction(c *gin.Context, action func(ctx context.Context, userID, id string) (quote.Quote, error)) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	q, err := action(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ListAllQuotes is the admin pipeline view.
func (h *Handler) ListAllQuotes(c *gin.Context) {
	quotes, err := h.quoteSvc.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": quotes})
}

// ReviseQuote records the admin's counter offer.
func (h *Handler) ReviseQuote(c *gin.Context) {
	var req quote.ReviseRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	q, err := h.quoteSvc.Revise(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
