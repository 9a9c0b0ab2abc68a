package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the report families.
type ReportType string

const (
	ReportTypeInventory             ReportType = "inventory"
	ReportTypeAssignments           ReportType = "assignments"
	ReportTypeMaintenance           ReportType = "maintenance"
	ReportTypeAudit                 ReportType = "audit"
	ReportTypeWarranty              ReportType = "warranty"
	ReportTypeDepartmentUtilization ReportType = "department-utilization"
	ReportTypeCustom                ReportType = "custom"
)

// Valid reports whether t names a supported report.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeInventory, ReportTypeAssignments, ReportTypeMaintenance, ReportTypeAudit,
		ReportTypeWarranty, ReportTypeDepartmentUtilization, ReportTypeCustom:
		return true
	}
	return false
}

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob persisted background job metadata.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportFilters are the dataset filters shared by previews and exports.
type ReportFilters struct {
	DateFrom     string            `json:"dateFrom,omitempty"`
	DateTo       string            `json:"dateTo,omitempty"`
	Status       string            `json:"status,omitempty"`
	CategoryID   string            `json:"categoryId,omitempty"`
	DepartmentID string            `json:"departmentId,omitempty"`
	Columns      []string          `json:"columns,omitempty"`
	Extras       map[string]string `json:"extras,omitempty"`
}

// ReportJobParams stores request-scoped options persisted as JSONB. Scope is
// captured at request time so the worker applies the requester's department view.
type ReportJobParams struct {
	Format        ReportFormat  `json:"format"`
	Filters       ReportFilters `json:"filters"`
	Restricted    bool          `json:"restricted,omitempty"`
	DepartmentIDs []string      `json:"departmentIds,omitempty"`
	Financial     bool          `json:"financial,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	*p = ReportJobParams{}
	data, err := jsonBytes(value)
	if err != nil || len(data) == 0 {
		return err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}

// ReportPreview is the JSON rendition of a report dataset.
type ReportPreview struct {
	Type        ReportType          `json:"type"`
	Headers     []string            `json:"headers"`
	Rows        []map[string]string `json:"rows"`
	Total       int                 `json:"total"`
	GeneratedAt time.Time           `json:"generated_at"`
}
