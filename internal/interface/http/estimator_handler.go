package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/estimator"
)

type loadPayload struct {
	Appliances []estimator.ApplianceLoad `json:"appliances"`
}

type quickPayload struct {
	MonthlyBill float64 `json:"monthlyBill"`
}

// EstimateLoad aggregates a declared appliance list.
func (h *Handler) EstimateLoad(c *gin.Context) {
	var req loadPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.estimatorSvc.Load(c.Request.Context(), req.Appliances)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SizePlant runs the full sizing pipeline.
func (h *Handler) SizePlant(c *gin.Context) {
	var req estimator.SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.estimatorSvc.Size(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QuickEstimate projects savings from a monthly bill alone.
func (h *Handler) QuickEstimate(c *gin.Context) {
	var req quickPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.estimatorSvc.QuickEstimate(c.Request.Context(), req.MonthlyBill)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Installment computes an EMI schedule summary.
func (h *Handler) Installment(c *gin.Context) {
	var req estimator.InstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.estimatorSvc.Installment(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Tunables exposes the constants in force so clients can render panel choices.
func (h *Handler) Tunables(c *gin.Context) {
	cfg := h.estimatorSvc.Tunables()
	c.JSON(http.StatusOK, gin.H{
		"panelWattages":       cfg.Sizing.SupportedPanelWattages,
		"defaultPanelWattage": cfg.Sizing.PanelWattage,
		"yieldFactor":         cfg.Sizing.YieldFactor,
		"safetyMargin":        cfg.Sizing.SafetyMargin,
		"tariffPerKWh":        cfg.Heuristic.TariffPerKWh,
		"lifetimeYears":       cfg.Projection.LifetimeYears,
	})
}
