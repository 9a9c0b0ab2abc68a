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

type assignmentService interface {
	Create(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.CreateAssignmentRequest) (*models.Assignment, error)
	Transfer(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.TransferAssignmentRequest) (*models.Assignment, error)
	Return(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.ReturnAssignmentRequest) (*models.Assignment, error)
	Extend(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.ExtendAssignmentRequest) (*models.Assignment, error)
	EscalateCritical(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, deviceRef, reason string) error
	BulkAssign(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.BulkAssignRequest) (*models.BulkAssignResult, error)
	Get(ctx context.Context, perms *models.EffectivePermissions, ref string) (*models.AssignmentDetail, error)
	List(ctx context.Context, perms *models.EffectivePermissions, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error)
	Overdue(ctx context.Context, perms *models.EffectivePermissions) ([]models.AssignmentDetail, error)
	History(ctx context.Context, perms *models.EffectivePermissions, ref string) ([]models.AssignmentHistory, error)
}

// AssignmentHandler exposes the assignment lifecycle.
type AssignmentHandler struct {
	assignments assignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments assignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param device query string false "Device ID"
// @Param staff query string false "Staff ID"
// @Param department query string false "Department ID"
// @Param location query string false "Location ID"
// @Param active query bool false "Active only"
// @Param type query string false "Assignment type"
// @Param overdue query bool false "Overdue only"
// @Param search query string false "Search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inventory/assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := assignmentFilter(c)
	h.list(c, filter)
}

// StaffAssignments godoc
// @Summary Assignments held by a staff member
// @Tags Assignments
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/staff/{id}/assignments [get]
func (h *AssignmentHandler) StaffAssignments(c *gin.Context) {
	filter := assignmentFilter(c)
	filter.StaffID = c.Param("id")
	h.list(c, filter)
}

// DepartmentAssignments godoc
// @Summary Assignments targeting a department
// @Tags Assignments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/departments/{id}/assignments [get]
func (h *AssignmentHandler) DepartmentAssignments(c *gin.Context) {
	filter := assignmentFilter(c)
	filter.DepartmentID = c.Param("id")
	h.list(c, filter)
}

func (h *AssignmentHandler) list(c *gin.Context, filter models.AssignmentFilter) {
	items, pagination, err := h.assignments.List(c.Request.Context(), middleware.PermissionsFrom(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

func assignmentFilter(c *gin.Context) models.AssignmentFilter {
	var filter models.AssignmentFilter
	filter.DeviceID = c.Query("device")
	filter.StaffID = c.Query("staff")
	filter.DepartmentID = c.Query("department")
	filter.LocationID = c.Query("location")
	filter.Active = boolQuery(c, "active")
	filter.Type = strings.ToUpper(strings.TrimSpace(c.Query("type")))
	if overdue := boolQuery(c, "overdue"); overdue != nil {
		filter.Overdue = *overdue
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// Get godoc
// @Summary Assignment detail
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment UUID or assignment id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inventory/assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	perms := middleware.PermissionsFrom(c)
	detail, err := h.assignments.Get(ctx, perms, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.assignments.History(ctx, perms, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assignment": detail, "history": history}, nil)
}

// Overdue godoc
// @Summary Overdue temporary assignments
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/assignments/overdue [get]
func (h *AssignmentHandler) Overdue(c *gin.Context) {
	items, err := h.assignments.Overdue(c.Request.Context(), middleware.PermissionsFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Assign a device
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inventory/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// BulkAssign godoc
// @Summary Assign many devices to one target
// @Description Each device is assigned independently; failures are reported per device
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignRequest true "Bulk assignment"
// @Success 200 {object} response.Envelope
// @Router /inventory/assignments/bulk [post]
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.assignments.BulkAssign(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Transfer godoc
// @Summary Transfer an active assignment to a new target
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment UUID or assignment id"
// @Param payload body dto.TransferAssignmentRequest true "New target"
// @Success 200 {object} response.Envelope
// @Router /inventory/assignments/{id}/transfer [post]
func (h *AssignmentHandler) Transfer(c *gin.Context) {
	var req dto.TransferAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.assignments.Transfer(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Return godoc
// @Summary Return an assigned device
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment UUID or assignment id"
// @Param payload body dto.ReturnAssignmentRequest true "Return condition"
// @Success 200 {object} response.Envelope
// @Router /inventory/assignments/{id}/return [post]
func (h *AssignmentHandler) Return(c *gin.Context) {
	var req dto.ReturnAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.assignments.Return(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Extend godoc
// @Summary Extend a temporary assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment UUID or assignment id"
// @Param payload body dto.ExtendAssignmentRequest true "New return date"
// @Success 200 {object} response.Envelope
// @Router /inventory/assignments/{id}/extend [post]
func (h *AssignmentHandler) Extend(c *gin.Context) {
	var req dto.ExtendAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.assignments.Extend(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Escalate godoc
// @Summary Escalate a critical device
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device UUID or device id"
// @Param payload body dto.EscalateRequest false "Reason"
// @Success 204 {object} response.Envelope
// @Router /inventory/devices/{id}/escalate [post]
func (h *AssignmentHandler) Escalate(c *gin.Context) {
	var req dto.EscalateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := h.assignments.EscalateCritical(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
