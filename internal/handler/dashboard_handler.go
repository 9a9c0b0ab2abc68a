package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

type dashboardService interface {
	Dashboard(ctx context.Context, principal *models.Principal) (*models.Dashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Dashboard godoc
// @Summary Inventory dashboard
// @Description Quick stats and notifications in the caller's scope, plus system totals for unrestricted viewers
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, cacheHit, err := h.service.Dashboard(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.FinishMeta(c))
}
