package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeviceStatus is the lifecycle state of a device.
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "AVAILABLE"
	DeviceAssigned    DeviceStatus = "ASSIGNED"
	DeviceInUse       DeviceStatus = "IN_USE"
	DeviceMaintenance DeviceStatus = "MAINTENANCE"
	DeviceRepair      DeviceStatus = "REPAIR"
	DeviceRetired     DeviceStatus = "RETIRED"
	DeviceDisposed    DeviceStatus = "DISPOSED"
	DeviceLost        DeviceStatus = "LOST"
	DeviceDamaged     DeviceStatus = "DAMAGED"
)

// Valid reports whether s is a known status.
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceAvailable, DeviceAssigned, DeviceInUse, DeviceMaintenance, DeviceRepair,
		DeviceRetired, DeviceDisposed, DeviceLost, DeviceDamaged:
		return true
	}
	return false
}

// Assignable reports whether a new assignment may start from this status.
func (s DeviceStatus) Assignable() bool {
	return s == DeviceAvailable || s == DeviceInUse
}

// HoldsAssignment reports whether an active assignment may coexist with this status.
func (s DeviceStatus) HoldsAssignment() bool {
	return s == DeviceAssigned || s == DeviceInUse || s == DeviceMaintenance
}

// Terminal reports statuses a device never leaves.
func (s DeviceStatus) Terminal() bool {
	return s == DeviceRetired || s == DeviceDisposed
}

// DeviceCondition grades physical condition.
type DeviceCondition string

const (
	ConditionNew        DeviceCondition = "NEW"
	ConditionExcellent  DeviceCondition = "EXCELLENT"
	ConditionGood       DeviceCondition = "GOOD"
	ConditionFair       DeviceCondition = "FAIR"
	ConditionPoor       DeviceCondition = "POOR"
	ConditionDamaged    DeviceCondition = "DAMAGED"
	ConditionNotWorking DeviceCondition = "NOT_WORKING"
)

// Valid reports whether c is a known condition.
func (c DeviceCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged, ConditionNotWorking:
		return true
	}
	return false
}

// WarrantyStatus is the derived warranty classification.
type WarrantyStatus string

const (
	WarrantyExpired  WarrantyStatus = "expired"
	WarrantyCritical WarrantyStatus = "critical"
	WarrantyWarning  WarrantyStatus = "warning"
	WarrantyActive   WarrantyStatus = "active"
	WarrantyNone     WarrantyStatus = "no_warranty"
)

// ClassifyWarranty buckets a warranty end date relative to today.
func ClassifyWarranty(end *time.Time, today time.Time) WarrantyStatus {
	if end == nil || end.IsZero() {
		return WarrantyNone
	}
	days := int(DateOnly(*end).Sub(DateOnly(today)).Hours() / 24)
	switch {
	case days < 0:
		return WarrantyExpired
	case days <= 7:
		return WarrantyCritical
	case days <= 30:
		return WarrantyWarning
	default:
		return WarrantyActive
	}
}

// Device is the root aggregate of a lifecycle.
type Device struct {
	ID                  string              `db:"id" json:"id"`
	DeviceID            string              `db:"device_id" json:"device_id"`
	AssetTag            string              `db:"asset_tag" json:"asset_tag"`
	SerialNumber        string              `db:"serial_number" json:"serial_number"`
	MACAddress          *string             `db:"mac_address" json:"mac_address,omitempty"`
	IPAddress           *string             `db:"ip_address" json:"ip_address,omitempty"`
	DeviceTypeID        string              `db:"device_type_id" json:"device_type_id"`
	DeviceName          string              `db:"device_name" json:"device_name"`
	Brand               string              `db:"brand" json:"brand"`
	Model               string              `db:"model" json:"model"`
	Status              DeviceStatus        `db:"status" json:"status"`
	Condition           DeviceCondition     `db:"condition" json:"condition"`
	VendorID            *string             `db:"vendor_id" json:"vendor_id,omitempty"`
	PurchaseDate        *time.Time          `db:"purchase_date" json:"purchase_date,omitempty"`
	PurchasePrice       decimal.NullDecimal `db:"purchase_price" json:"purchase_price"`
	PurchaseOrderNumber string              `db:"purchase_order_number" json:"purchase_order_number"`
	WarrantyStartDate   *time.Time          `db:"warranty_start_date" json:"warranty_start_date,omitempty"`
	WarrantyEndDate     *time.Time          `db:"warranty_end_date" json:"warranty_end_date,omitempty"`
	WarrantyType        string              `db:"warranty_type" json:"warranty_type"`
	Specifications      Specifications      `db:"specifications" json:"specifications"`
	IsCritical          bool                `db:"is_critical" json:"is_critical"`
	CurrentLocationID   *string             `db:"current_location_id" json:"current_location_id,omitempty"`
	QRPayload           *string             `db:"qr_payload" json:"qr_payload,omitempty"`
	QRGeneratedAt       *time.Time          `db:"qr_generated_at" json:"qr_generated_at,omitempty"`
	DeploymentDate      *time.Time          `db:"deployment_date" json:"deployment_date,omitempty"`
	LastMaintenanceDate *time.Time          `db:"last_maintenance_date" json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time          `db:"next_maintenance_date" json:"next_maintenance_date,omitempty"`
	RetirementDate      *time.Time          `db:"retirement_date" json:"retirement_date,omitempty"`
	Notes               string              `db:"notes" json:"notes"`
	CreatedBy           *string             `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy           *string             `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// DeviceDetail is a device joined with catalog, vendor and current assignment context.
type DeviceDetail struct {
	Device
	CategoryCode         string         `db:"category_code" json:"category_code"`
	CategoryName         string         `db:"category_name" json:"category_name"`
	SubcategoryName      string         `db:"subcategory_name" json:"subcategory_name"`
	TypeName             string         `db:"type_name" json:"type_name"`
	VendorName           *string        `db:"vendor_name" json:"vendor_name,omitempty"`
	LocationDisplay      *string        `db:"location_display" json:"location_display,omitempty"`
	AssignmentID         *string        `db:"active_assignment_id" json:"active_assignment_id,omitempty"`
	AssignedStaffName    *string        `db:"assigned_staff_name" json:"assigned_staff_name,omitempty"`
	AssignedDepartmentID *string        `db:"assigned_department_id" json:"assigned_department_id,omitempty"`
	AssignedDepartment   *string        `db:"assigned_department_name" json:"assigned_department_name,omitempty"`
	ScopeDepartmentID    *string        `db:"scope_department_id" json:"-"`
	WarrantyStatus       WarrantyStatus `db:"-" json:"warranty_status"`
}

// DeviceFilter narrows device searches.
type DeviceFilter struct {
	Search        string
	Status        []DeviceStatus
	Condition     string
	CategoryID    string
	DeviceTypeID  string
	VendorID      string
	IsCritical    *bool
	DepartmentIDs []string
	Restricted    bool
	WarrantyDays  *int
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// DeviceCategory is the top tier of the catalog.
type DeviceCategory struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DeviceSubcategory groups types within a category.
type DeviceSubcategory struct {
	ID         string    `db:"id" json:"id"`
	CategoryID string    `db:"category_id" json:"category_id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DeviceType is the leaf tier of the catalog.
type DeviceType struct {
	ID            string    `db:"id" json:"id"`
	SubcategoryID string    `db:"subcategory_id" json:"subcategory_id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	CategoryCode  string    `db:"category_code" json:"category_code,omitempty"`
}

// Category codes seeded into device_categories.
var CategoryCodes = []string{
	"DATA_CENTER", "NETWORK", "COMPUTING", "DISPLAY", "PERIPHERAL",
	"STORAGE", "AUDIO_VIDEO", "MOBILE", "SECURITY", "OTHER",
}
