package dto

import (
	"github.com/shopspring/decimal"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

// CreateMaintenanceRequest schedules work on a device.
type CreateMaintenanceRequest struct {
	DeviceID      string                 `json:"device_id" validate:"required"`
	Type          models.MaintenanceType `json:"maintenance_type" validate:"required,oneof=PREVENTIVE CORRECTIVE EMERGENCY UPGRADE INSPECTION"`
	Title         string                 `json:"title" validate:"required,max=200"`
	Description   string                 `json:"description"`
	ScheduledDate string                 `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime *string                `json:"scheduled_time" validate:"omitempty,datetime=15:04"`
	EstimatedCost *decimal.Decimal       `json:"estimated_cost"`
	VendorID      *string                `json:"vendor_id"`
	Technician    string                 `json:"technician" validate:"max=200"`
}

// CompleteMaintenanceRequest records the outcome of finished work.
type CompleteMaintenanceRequest struct {
	ActualCost     *decimal.Decimal        `json:"actual_cost"`
	PartsUsed      string                  `json:"parts_used"`
	WorkPerformed  string                  `json:"work_performed" validate:"required"`
	CompletionDate *string                 `json:"completion_date" validate:"omitempty,datetime=2006-01-02"`
	Condition      *models.DeviceCondition `json:"condition"`
}

// PostponeMaintenanceRequest moves scheduled work to a later date.
type PostponeMaintenanceRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	Reason        string `json:"reason"`
}
