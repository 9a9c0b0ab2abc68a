package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

// CatalogHandler exposes the category > subcategory > type taxonomy.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Categories godoc
// @Summary List device categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /inventory/categories [get]
func (h *CatalogHandler) Categories(c *gin.Context) {
	items, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Subcategories godoc
// @Summary List subcategories
// @Tags Catalog
// @Produce json
// @Param category query string false "Category ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/subcategories [get]
func (h *CatalogHandler) Subcategories(c *gin.Context) {
	items, err := h.catalog.Subcategories(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Types godoc
// @Summary List device types
// @Tags Catalog
// @Produce json
// @Param subcategory query string false "Subcategory ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/device-types [get]
func (h *CatalogHandler) Types(c *gin.Context) {
	items, err := h.catalog.Types(c.Request.Context(), c.Query("subcategory"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateCategory godoc
// @Summary Create device category
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} response.Envelope
// @Router /inventory/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// CreateSubcategory godoc
// @Summary Create subcategory
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubcategoryRequest true "Subcategory"
// @Success 201 {object} response.Envelope
// @Router /inventory/subcategories [post]
func (h *CatalogHandler) CreateSubcategory(c *gin.Context) {
	var req dto.CreateSubcategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.catalog.CreateSubcategory(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// CreateType godoc
// @Summary Create device type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateDeviceTypeRequest true "Device type"
// @Success 201 {object} response.Envelope
// @Router /inventory/device-types [post]
func (h *CatalogHandler) CreateType(c *gin.Context) {
	var req dto.CreateDeviceTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	deviceType, err := h.catalog.CreateType(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deviceType)
}
