package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/lead"
)

type leadStatusPayload struct {
	Status lead.Status `json:"status"`
}

// CaptureLead records a calculator submission, signed in or not.
func (h *Handler) CaptureLead(c *gin.Context) {
	var req lead.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var userID, email string
	if claims, ok := getClaims(c); ok {
		userID, email = claims.UserID, claims.Email
	}
	l, err := h.leadSvc.Capture(c.Request.Context(), userID, email, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// ListLeads is the admin follow-up view.
func (h *Handler) ListLeads(c *gin.Context) {
	leads, err := h.leadSvc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": leads})
}

// UpdateLeadStatus moves a lead through follow-up.
func (h *Handler) UpdateLeadStatus(c *gin.Context) {
	var req leadStatusPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.leadSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}
