package dto

import (
	"github.com/shopspring/decimal"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

// CreateDeviceRequest registers a device. DepartmentID, when set, adds the
// department code segment to the generated device id.
type CreateDeviceRequest struct {
	AssetTag            string                 `json:"asset_tag" validate:"required,max=50"`
	SerialNumber        string                 `json:"serial_number" validate:"required,max=100"`
	MACAddress          *string                `json:"mac_address" validate:"omitempty,mac_address"`
	IPAddress           *string                `json:"ip_address" validate:"omitempty,ip"`
	DeviceTypeID        string                 `json:"device_type_id" validate:"required"`
	DeviceName          string                 `json:"device_name" validate:"required,max=200"`
	Brand               string                 `json:"brand" validate:"max=100"`
	Model               string                 `json:"model" validate:"max=100"`
	Condition           models.DeviceCondition `json:"condition"`
	VendorID            *string                `json:"vendor_id"`
	PurchaseDate        *string                `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice       *decimal.Decimal       `json:"purchase_price"`
	PurchaseOrderNumber string                 `json:"purchase_order_number" validate:"max=100"`
	WarrantyStartDate   *string                `json:"warranty_start_date" validate:"omitempty,datetime=2006-01-02"`
	WarrantyEndDate     *string                `json:"warranty_end_date" validate:"omitempty,datetime=2006-01-02"`
	WarrantyType        string                 `json:"warranty_type" validate:"max=50"`
	Specifications      map[string]string      `json:"specifications"`
	IsCritical          bool                   `json:"is_critical"`
	CurrentLocationID   *string                `json:"current_location_id"`
	DepartmentID        *string                `json:"department_id"`
	Notes               string                 `json:"notes"`
}

// UpdateDeviceRequest patches a device; nil fields are left untouched.
type UpdateDeviceRequest struct {
	AssetTag            *string                 `json:"asset_tag" validate:"omitempty,max=50"`
	SerialNumber        *string                 `json:"serial_number" validate:"omitempty,max=100"`
	MACAddress          *string                 `json:"mac_address" validate:"omitempty,mac_address"`
	IPAddress           *string                 `json:"ip_address" validate:"omitempty,ip"`
	DeviceTypeID        *string                 `json:"device_type_id"`
	DeviceName          *string                 `json:"device_name" validate:"omitempty,max=200"`
	Brand               *string                 `json:"brand" validate:"omitempty,max=100"`
	Model               *string                 `json:"model" validate:"omitempty,max=100"`
	Status              *models.DeviceStatus    `json:"status"`
	Condition           *models.DeviceCondition `json:"condition"`
	VendorID            *string                 `json:"vendor_id"`
	PurchaseDate        *string                 `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice       *decimal.Decimal        `json:"purchase_price"`
	PurchaseOrderNumber *string                 `json:"purchase_order_number"`
	WarrantyStartDate   *string                 `json:"warranty_start_date" validate:"omitempty,datetime=2006-01-02"`
	WarrantyEndDate     *string                 `json:"warranty_end_date" validate:"omitempty,datetime=2006-01-02"`
	WarrantyType        *string                 `json:"warranty_type"`
	Specifications      map[string]string       `json:"specifications"`
	IsCritical          *bool                   `json:"is_critical"`
	CurrentLocationID   *string                 `json:"current_location_id"`
	NextMaintenanceDate *string                 `json:"next_maintenance_date" validate:"omitempty,datetime=2006-01-02"`
	Notes               *string                 `json:"notes"`
}

// Bulk device actions.
const (
	BulkActionRetire       = "retire"
	BulkActionSetCondition = "set_condition"
	BulkActionGenerateQR   = "generate_qr"
)

// BulkDeviceActionRequest applies one action to many devices.
type BulkDeviceActionRequest struct {
	Action    string                 `json:"action" validate:"required,oneof=retire set_condition generate_qr"`
	DeviceIDs []string               `json:"device_ids" validate:"required,min=1,max=500"`
	Condition models.DeviceCondition `json:"condition"`
}

// BulkActionResult lists per-device outcomes.
type BulkActionResult struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
}

// RetireDeviceRequest carries the optional retirement note.
type RetireDeviceRequest struct {
	Reason string `json:"reason"`
}
