package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

type deviceService interface {
	Search(ctx context.Context, perms *models.EffectivePermissions, filter models.DeviceFilter) ([]models.DeviceDetail, *models.Pagination, error)
	Get(ctx context.Context, perms *models.EffectivePermissions, ref string) (*models.DeviceDetail, error)
	Create(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.CreateDeviceRequest) (*models.Device, error)
	Update(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.UpdateDeviceRequest) (*models.Device, error)
	Retire(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref, reason string) (*models.Device, error)
	BulkAction(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.BulkDeviceActionRequest) (*dto.BulkActionResult, error)
	History(ctx context.Context, perms *models.EffectivePermissions, ref string) ([]models.AssignmentHistory, error)
}

// DeviceHandler exposes the device registry.
type DeviceHandler struct {
	devices deviceService
}

// NewDeviceHandler constructs DeviceHandler.
func NewDeviceHandler(devices deviceService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// List godoc
// @Summary Search devices
// @Tags Devices
// @Produce json
// @Param search query string false "Matches device id, asset tag, serial, name, brand, model"
// @Param status query string false "Comma separated statuses"
// @Param condition query string false "Condition"
// @Param category query string false "Category ID"
// @Param device_type query string false "Device type ID"
// @Param vendor query string false "Vendor ID"
// @Param critical query bool false "Critical devices only"
// @Param warranty_days query int false "Warranty expiring within N days"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inventory/devices [get]
func (h *DeviceHandler) List(c *gin.Context) {
	var filter models.DeviceFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Status = append(filter.Status, models.DeviceStatus(strings.ToUpper(part)))
			}
		}
	}
	filter.Condition = strings.ToUpper(strings.TrimSpace(c.Query("condition")))
	filter.CategoryID = c.Query("category")
	filter.DeviceTypeID = c.Query("device_type")
	filter.VendorID = c.Query("vendor")
	filter.IsCritical = boolQuery(c, "critical")
	if days := intQuery(c, "warranty_days", -1); days >= 0 {
		filter.WarrantyDays = &days
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	devices, pagination, err := h.devices.Search(c.Request.Context(), middleware.PermissionsFrom(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, devices, pagination)
}

// Get godoc
// @Summary Device detail
// @Tags Devices
// @Produce json
// @Param id path string true "Device UUID or device id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inventory/devices/{id} [get]
func (h *DeviceHandler) Get(c *gin.Context) {
	device, err := h.devices.Get(c.Request.Context(), middleware.PermissionsFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device, nil)
}

// Create godoc
// @Summary Register device
// @Tags Devices
// @Accept json
// @Produce json
// @Param payload body dto.CreateDeviceRequest true "Device payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inventory/devices [post]
func (h *DeviceHandler) Create(c *gin.Context) {
	var req dto.CreateDeviceRequest
	if !bindJSON(c, &req) {
		return
	}
	device, err := h.devices.Create(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, device)
}

// Update godoc
// @Summary Edit device
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device UUID or device id"
// @Param payload body dto.UpdateDeviceRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inventory/devices/{id}/edit [post]
func (h *DeviceHandler) Update(c *gin.Context) {
	var req dto.UpdateDeviceRequest
	if !bindJSON(c, &req) {
		return
	}
	device, err := h.devices.Update(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device, nil)
}

// Retire godoc
// @Summary Retire device
// @Description Devices are never hard deleted
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device UUID or device id"
// @Param payload body dto.RetireDeviceRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inventory/devices/{id}/delete [post]
func (h *DeviceHandler) Retire(c *gin.Context) {
	var req dto.RetireDeviceRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	device, err := h.devices.Retire(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device, nil)
}

// BulkAction godoc
// @Summary Apply one action to many devices
// @Tags Devices
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeviceActionRequest true "Bulk action"
// @Success 200 {object} response.Envelope
// @Router /inventory/devices/bulk-actions [post]
func (h *DeviceHandler) BulkAction(c *gin.Context) {
	var req dto.BulkDeviceActionRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.devices.BulkAction(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary Assignment history of a device
// @Tags Devices
// @Produce json
// @Param id path string true "Device UUID or device id"
// @Success 200 {object} response.Envelope
// @Router /inventory/devices/{id}/history [get]
func (h *DeviceHandler) History(c *gin.Context) {
	history, err := h.devices.History(c.Request.Context(), middleware.PermissionsFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
