package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

// RegistryHandler serves the building > block > floor > department > room > location tree.
// Every level shares the same handlers; the level is bound when routes are registered.
type RegistryHandler struct {
	registry *service.RegistryService
}

// NewRegistryHandler constructs RegistryHandler.
func NewRegistryHandler(registry *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// List godoc
// @Summary List registry nodes of a level
// @Tags Registry
// @Produce json
// @Param level path string true "buildings, blocks, floors, departments, rooms or locations"
// @Param parent query string false "Parent ID"
// @Param all query bool false "Include inactive nodes"
// @Success 200 {object} response.Envelope
// @Router /inventory/{level} [get]
func (h *RegistryHandler) List(level models.OrgLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := true
		if all := boolQuery(c, "all"); all != nil && *all {
			activeOnly = false
		}
		nodes, err := h.registry.List(c.Request.Context(), level, c.Query("parent"), activeOnly)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, nodes, nil)
	}
}

// Create godoc
// @Summary Create registry node
// @Tags Registry
// @Accept json
// @Produce json
// @Param level path string true "Level"
// @Param payload body dto.CreateOrgNodeRequest true "Node"
// @Success 201 {object} response.Envelope
// @Router /inventory/{level} [post]
func (h *RegistryHandler) Create(level models.OrgLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateOrgNodeRequest
		if !bindJSON(c, &req) {
			return
		}
		node, err := h.registry.Create(c.Request.Context(), middleware.ActorFrom(c), level, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, node)
	}
}

// Rename godoc
// @Summary Rename registry node
// @Tags Registry
// @Accept json
// @Produce json
// @Param level path string true "Level"
// @Param id path string true "Node ID"
// @Param payload body dto.RenameOrgNodeRequest true "Name"
// @Success 200 {object} response.Envelope
// @Router /inventory/{level}/{id}/rename [post]
func (h *RegistryHandler) Rename(level models.OrgLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RenameOrgNodeRequest
		if !bindJSON(c, &req) {
			return
		}
		node, err := h.registry.Rename(c.Request.Context(), middleware.ActorFrom(c), level, c.Param("id"), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, node, nil)
	}
}

// Deactivate godoc
// @Summary Deactivate registry node
// @Description Refused while active children, staff or assignments reference the node
// @Tags Registry
// @Produce json
// @Param level path string true "Level"
// @Param id path string true "Node ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inventory/{level}/{id}/deactivate [post]
func (h *RegistryHandler) Deactivate(level models.OrgLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.registry.Deactivate(c.Request.Context(), middleware.ActorFrom(c), level, c.Param("id")); err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
	}
}

// Resolve godoc
// @Summary Resolve a location by its qualified code path
// @Tags Registry
// @Produce json
// @Param building query string true "Building code"
// @Param block query string true "Block code"
// @Param floor query int true "Floor number"
// @Param department query string true "Department code"
// @Param room query string true "Room number"
// @Param location query string false "Location code"
// @Success 200 {object} response.Envelope
// @Router /inventory/locations/resolve [get]
func (h *RegistryHandler) Resolve(c *gin.Context) {
	var query dto.ResolveLocationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	paths, err := h.registry.Resolve(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paths, nil)
}

// DepartmentCode godoc
// @Summary Preview the code a new department would receive
// @Tags Registry
// @Produce json
// @Param floor query string true "Floor ID"
// @Param name query string true "Department name"
// @Success 200 {object} response.Envelope
// @Router /inventory/departments/code [get]
func (h *RegistryHandler) DepartmentCode(c *gin.Context) {
	floorID := strings.TrimSpace(c.Query("floor"))
	if floorID == "" {
		response.Error(c, appErrors.Field("floor", "required"))
		return
	}
	code, err := h.registry.DepartmentCode(c.Request.Context(), floorID, c.Query("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"code": code}, nil)
}
