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

// StaffHandler exposes staff endpoints.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs StaffHandler.
func NewStaffHandler(staff *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Param search query string false "Search by name or employee id"
// @Param department query string false "Department ID"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inventory/staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	var filter models.StaffFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.DepartmentID = c.Query("department")
	filter.Active = boolQuery(c, "active")
	filter.Page, filter.PageSize = pageParams(c)

	staff, pagination, err := h.staff.List(c.Request.Context(), middleware.PermissionsFrom(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, pagination)
}

// Get godoc
// @Summary Staff detail
// @Tags Staff
// @Produce json
// @Param id path string true "Staff UUID or employee id"
// @Success 200 {object} response.Envelope
// @Router /inventory/staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	staff, err := h.staff.Get(c.Request.Context(), middleware.PermissionsFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Create godoc
// @Summary Register staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body dto.CreateStaffRequest true "Staff"
// @Success 201 {object} response.Envelope
// @Router /inventory/staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	var req dto.CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	staff, err := h.staff.Create(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staff)
}

// Update godoc
// @Summary Edit staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Staff UUID or employee id"
// @Param payload body dto.UpdateStaffRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Router /inventory/staff/{id}/edit [post]
func (h *StaffHandler) Update(c *gin.Context) {
	var req dto.UpdateStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	staff, err := h.staff.Update(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Deactivate godoc
// @Summary Deactivate staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Staff UUID or employee id"
// @Param payload body dto.DeactivateStaffRequest false "Leaving date"
// @Success 200 {object} response.Envelope
// @Router /inventory/staff/{id}/deactivate [post]
func (h *StaffHandler) Deactivate(c *gin.Context) {
	var req dto.DeactivateStaffRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	staff, err := h.staff.Deactivate(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Delete godoc
// @Summary Delete staff member without assignment history
// @Tags Staff
// @Produce json
// @Param id path string true "Staff UUID or employee id"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inventory/staff/{id}/delete [post]
func (h *StaffHandler) Delete(c *gin.Context) {
	if err := h.staff.Delete(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
