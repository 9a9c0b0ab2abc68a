package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

// VendorHandler exposes vendor endpoints.
type VendorHandler struct {
	vendors *service.VendorService
}

// NewVendorHandler constructs VendorHandler.
func NewVendorHandler(vendors *service.VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

// List godoc
// @Summary List vendors
// @Tags Vendors
// @Produce json
// @Param search query string false "Search by code or name"
// @Param all query bool false "Include inactive vendors"
// @Success 200 {object} response.Envelope
// @Router /inventory/vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	activeOnly := true
	if all := boolQuery(c, "all"); all != nil && *all {
		activeOnly = false
	}
	vendors, err := h.vendors.List(c.Request.Context(), activeOnly, strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vendors, nil)
}

// Get godoc
// @Summary Vendor detail
// @Tags Vendors
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/vendors/{id} [get]
func (h *VendorHandler) Get(c *gin.Context) {
	vendor, err := h.vendors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vendor, nil)
}

// Create godoc
// @Summary Register vendor
// @Tags Vendors
// @Accept json
// @Produce json
// @Param payload body dto.CreateVendorRequest true "Vendor"
// @Success 201 {object} response.Envelope
// @Router /inventory/vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	var req dto.CreateVendorRequest
	if !bindJSON(c, &req) {
		return
	}
	vendor, err := h.vendors.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vendor)
}

// Activate godoc
// @Summary Reactivate vendor
// @Tags Vendors
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/vendors/{id}/activate [post]
func (h *VendorHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate godoc
// @Summary Deactivate vendor
// @Tags Vendors
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/vendors/{id}/deactivate [post]
func (h *VendorHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *VendorHandler) setActive(c *gin.Context, active bool) {
	vendor, err := h.vendors.SetActive(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vendor, nil)
}
