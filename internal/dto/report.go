package dto

import "github.com/bps-secretariat/bps-inventory/internal/models"

// ReportExportRequest captures POST /reports/:type/export payload.
type ReportExportRequest struct {
	Format  models.ReportFormat  `json:"format" validate:"required,oneof=csv pdf"`
	Filters models.ReportFilters `json:"filters"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
