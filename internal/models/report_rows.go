package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportScope carries the dataset filters plus the requester's department view.
type ReportScope struct {
	Filters       ReportFilters
	DateFrom      *time.Time
	DateTo        *time.Time
	Restricted    bool
	DepartmentIDs []string
	Limit         int
}

// InventoryRow is one line of the inventory report.
type InventoryRow struct {
	DeviceID          string              `db:"device_id"`
	AssetTag          string              `db:"asset_tag"`
	DeviceName        string              `db:"device_name"`
	Category          string              `db:"category"`
	Type              string              `db:"type"`
	Brand             string              `db:"brand"`
	Model             string              `db:"model"`
	SerialNumber      string              `db:"serial_number"`
	Status            string              `db:"status"`
	Condition         string              `db:"condition"`
	PurchaseDate      *time.Time          `db:"purchase_date"`
	PurchasePrice     decimal.NullDecimal `db:"purchase_price"`
	Vendor            *string             `db:"vendor"`
	WarrantyEnd       *time.Time          `db:"warranty_end_date"`
	CurrentLocation   *string             `db:"current_location"`
	CurrentAssignment *string             `db:"current_assignment"`
	CreatedAt         time.Time           `db:"created_at"`
}

// AssignmentReportRow is one line of the assignments report.
type AssignmentReportRow struct {
	AssignmentID       string     `db:"assignment_id"`
	DeviceID           string     `db:"device_id"`
	DeviceName         string     `db:"device_name"`
	AssignedTo         *string    `db:"assigned_to"`
	Department         *string    `db:"department"`
	Location           *string    `db:"location"`
	Type               string     `db:"assignment_type"`
	IsTemporary        bool       `db:"is_temporary"`
	IsActive           bool       `db:"is_active"`
	StartDate          time.Time  `db:"start_date"`
	ExpectedReturnDate *time.Time `db:"expected_return_date"`
	ActualReturnDate   *time.Time `db:"actual_return_date"`
}

// MaintenanceReportRow is one line of the maintenance report.
type MaintenanceReportRow struct {
	DeviceID       string              `db:"device_id"`
	Title          string              `db:"title"`
	Type           string              `db:"maintenance_type"`
	Status         string              `db:"status"`
	ScheduledDate  time.Time           `db:"scheduled_date"`
	CompletionDate *time.Time          `db:"completion_date"`
	Technician     string              `db:"technician"`
	Vendor         *string             `db:"vendor"`
	EstimatedCost  decimal.NullDecimal `db:"estimated_cost"`
	ActualCost     decimal.NullDecimal `db:"actual_cost"`
}

// WarrantyRow is one line of the warranty report.
type WarrantyRow struct {
	DeviceID      string     `db:"device_id"`
	DeviceName    string     `db:"device_name"`
	Category      string     `db:"category"`
	Vendor        *string    `db:"vendor"`
	WarrantyType  string     `db:"warranty_type"`
	WarrantyStart *time.Time `db:"warranty_start_date"`
	WarrantyEnd   *time.Time `db:"warranty_end_date"`
}

// DepartmentUtilizationRow aggregates assignment load per department.
type DepartmentUtilizationRow struct {
	Code              string `db:"code"`
	Name              string `db:"name"`
	ActiveStaff       int    `db:"active_staff"`
	ActiveAssignments int    `db:"active_assignments"`
	OverdueCount      int    `db:"overdue"`
}

// AuditReportRow is one line of the audit report.
type AuditReportRow struct {
	Timestamp  time.Time `db:"timestamp"`
	Username   *string   `db:"username"`
	Action     string    `db:"action"`
	ModelName  string    `db:"model_name"`
	ObjectID   string    `db:"object_id"`
	ObjectRepr string    `db:"object_repr"`
	IPAddress  string    `db:"ip_address"`
}
