package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

type reportService interface {
	Preview(ctx context.Context, perms *models.EffectivePermissions, reportType models.ReportType, filters models.ReportFilters) (*models.ReportPreview, bool, error)
	CreateJob(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, reportType models.ReportType, req dto.ReportExportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes report previews and asynchronous exports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Preview godoc
// @Summary Report preview as JSON rows
// @Tags Reports
// @Produce json
// @Param type path string true "inventory, assignments, maintenance, audit, warranty, department-utilization or custom"
// @Param dateFrom query string false "From (YYYY-MM-DD)"
// @Param dateTo query string false "To (YYYY-MM-DD)"
// @Param status query string false "Status filter"
// @Param categoryId query string false "Category ID"
// @Param departmentId query string false "Department ID"
// @Param columns query string false "Comma separated columns (custom reports)"
// @Success 200 {object} response.Envelope
// @Router /reports/{type} [get]
func (h *ReportHandler) Preview(c *gin.Context) {
	reportType, ok := reportTypeParam(c)
	if !ok {
		return
	}
	filters := models.ReportFilters{
		DateFrom:     c.Query("dateFrom"),
		DateTo:       c.Query("dateTo"),
		Status:       c.Query("status"),
		CategoryID:   c.Query("categoryId"),
		DepartmentID: c.Query("departmentId"),
	}
	if raw := strings.TrimSpace(c.Query("columns")); raw != "" {
		for _, col := range strings.Split(raw, ",") {
			if col = strings.TrimSpace(col); col != "" {
				filters.Columns = append(filters.Columns, col)
			}
		}
	}
	preview, cacheHit, err := h.reports.Preview(c.Request.Context(), middleware.PermissionsFrom(c), reportType, filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, preview, nil, middleware.FinishMeta(c))
}

// Export godoc
// @Summary Queue a report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param type path string true "Report type"
// @Param payload body dto.ReportExportRequest true "Format and filters"
// @Success 202 {object} response.Envelope
// @Router /reports/{type}/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	reportType, ok := reportTypeParam(c)
	if !ok {
		return
	}
	var req dto.ReportExportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.reports.CreateJob(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), reportType, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/jobs/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.reports.GetStatus(c.Request.Context(), middleware.ActorFrom(c), middleware.PermissionsFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description Authorised by the signed token alone
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	contentType := "text/csv; charset=utf-8"
	if download.Format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Expires", download.ExpiresAt.UTC().Format(time.RFC1123))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, download.File, map[string]string{
		"Content-Disposition": `attachment; filename="` + download.Filename + `"`,
	})
}

func reportTypeParam(c *gin.Context) (models.ReportType, bool) {
	reportType := models.ReportType(strings.ToLower(strings.TrimSpace(c.Param("type"))))
	if !reportType.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown report type"))
		return "", false
	}
	return reportType, true
}
