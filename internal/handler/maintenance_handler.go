package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

// MaintenanceHandler exposes maintenance scheduling.
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
}

// NewMaintenanceHandler constructs MaintenanceHandler.
func NewMaintenanceHandler(maintenance *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// List godoc
// @Summary List maintenance schedules
// @Tags Maintenance
// @Produce json
// @Param device query string false "Device ID"
// @Param status query string false "Status"
// @Param type query string false "Maintenance type"
// @Param from query string false "Scheduled from (YYYY-MM-DD)"
// @Param to query string false "Scheduled to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance [get]
func (h *MaintenanceHandler) List(c *gin.Context) {
	var filter models.MaintenanceFilter
	filter.DeviceID = c.Query("device")
	filter.Status = strings.ToUpper(strings.TrimSpace(c.Query("status")))
	filter.Type = strings.ToUpper(strings.TrimSpace(c.Query("type")))
	var err error
	if filter.DateFrom, err = dateQuery(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.DateTo, err = dateQuery(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.maintenance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Upcoming godoc
// @Summary Maintenance due within the next days
// @Tags Maintenance
// @Produce json
// @Param days query int false "Window in days (default 7)"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/upcoming [get]
func (h *MaintenanceHandler) Upcoming(c *gin.Context) {
	items, err := h.maintenance.Upcoming(c.Request.Context(), intQuery(c, "days", 7))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Overdue godoc
// @Summary Open maintenance past its scheduled date
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/overdue [get]
func (h *MaintenanceHandler) Overdue(c *gin.Context) {
	items, err := h.maintenance.Overdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Maintenance schedule detail
// @Tags Maintenance
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/{id} [get]
func (h *MaintenanceHandler) Get(c *gin.Context) {
	item, err := h.maintenance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Schedule maintenance
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param payload body dto.CreateMaintenanceRequest true "Schedule"
// @Success 201 {object} response.Envelope
// @Router /inventory/maintenance [post]
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req dto.CreateMaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.maintenance.Create(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Start godoc
// @Summary Start scheduled maintenance
// @Description Moves the device into MAINTENANCE
// @Tags Maintenance
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/{id}/start [post]
func (h *MaintenanceHandler) Start(c *gin.Context) {
	item, err := h.maintenance.Start(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	h.respond(c, item, err)
}

// Complete godoc
// @Summary Complete maintenance
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.CompleteMaintenanceRequest true "Outcome"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/{id}/complete [post]
func (h *MaintenanceHandler) Complete(c *gin.Context) {
	var req dto.CompleteMaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.maintenance.Complete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	h.respond(c, item, err)
}

// Cancel godoc
// @Summary Cancel maintenance
// @Tags Maintenance
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/{id}/cancel [post]
func (h *MaintenanceHandler) Cancel(c *gin.Context) {
	item, err := h.maintenance.Cancel(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	h.respond(c, item, err)
}

// Postpone godoc
// @Summary Postpone maintenance to a later date
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.PostponeMaintenanceRequest true "New date"
// @Success 200 {object} response.Envelope
// @Router /inventory/maintenance/{id}/postpone [post]
func (h *MaintenanceHandler) Postpone(c *gin.Context) {
	var req dto.PostponeMaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.maintenance.Postpone(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	h.respond(c, item, err)
}

func (h *MaintenanceHandler) respond(c *gin.Context, item *models.MaintenanceSchedule, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
