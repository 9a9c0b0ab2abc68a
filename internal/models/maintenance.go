package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceType classifies scheduled work.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "PREVENTIVE"
	MaintenanceCorrective MaintenanceType = "CORRECTIVE"
	MaintenanceEmergency  MaintenanceType = "EMERGENCY"
	MaintenanceUpgrade    MaintenanceType = "UPGRADE"
	MaintenanceInspection MaintenanceType = "INSPECTION"
)

// Valid reports whether t is a known maintenance type.
func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenancePreventive, MaintenanceCorrective, MaintenanceEmergency, MaintenanceUpgrade, MaintenanceInspection:
		return true
	}
	return false
}

// MaintenanceStatus is the lifecycle of a schedule entry.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceCancelled  MaintenanceStatus = "CANCELLED"
	MaintenancePostponed  MaintenanceStatus = "POSTPONED"
)

// Open reports whether work is still pending.
func (s MaintenanceStatus) Open() bool {
	return s == MaintenanceScheduled || s == MaintenancePostponed
}

// MaintenanceSchedule is a planned or completed piece of work on a device.
type MaintenanceSchedule struct {
	ID             string              `db:"id" json:"id"`
	DeviceID       string              `db:"device_id" json:"device_id"`
	Type           MaintenanceType     `db:"maintenance_type" json:"maintenance_type"`
	Title          string              `db:"title" json:"title"`
	Description    string              `db:"description" json:"description"`
	ScheduledDate  time.Time           `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime  *string             `db:"scheduled_time" json:"scheduled_time,omitempty"`
	Status         MaintenanceStatus   `db:"status" json:"status"`
	EstimatedCost  decimal.NullDecimal `db:"estimated_cost" json:"estimated_cost"`
	ActualCost     decimal.NullDecimal `db:"actual_cost" json:"actual_cost"`
	VendorID       *string             `db:"vendor_id" json:"vendor_id,omitempty"`
	Technician     string              `db:"technician" json:"technician"`
	CompletionDate *time.Time          `db:"completion_date" json:"completion_date,omitempty"`
	PartsUsed      string              `db:"parts_used" json:"parts_used"`
	WorkPerformed  string              `db:"work_performed" json:"work_performed"`
	CreatedBy      *string             `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`

	DeviceCode string `db:"device_code" json:"device_code,omitempty"`
	DeviceName string `db:"device_name" json:"device_name,omitempty"`
}

// MaintenanceFilter narrows maintenance listings.
type MaintenanceFilter struct {
	DeviceID string
	Status   string
	Type     string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
