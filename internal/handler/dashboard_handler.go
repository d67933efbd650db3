package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/service"
	"github.com/linguahub/institute-api/pkg/response"
)

// DashboardHandler exposes the aggregated dashboard endpoint.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Tenant dashboard counters
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	summary, err := h.dashboard.Summary(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role != models.RoleAdmin {
		// Financial totals are admin-only; the cached summary keeps them,
		// so redact a per-request copy.
		redacted := *summary
		redacted.Payments = nil
		summary = &redacted
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
