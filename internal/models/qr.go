package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScanType records why a QR code was read.
type ScanType string

const (
	ScanVerification      ScanType = "VERIFICATION"
	ScanInventory         ScanType = "INVENTORY"
	ScanAssignment        ScanType = "ASSIGNMENT"
	ScanMaintenance       ScanType = "MAINTENANCE"
	ScanAudit             ScanType = "AUDIT"
	ScanBatchVerification ScanType = "BATCH_VERIFICATION"
)

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	switch t {
	case ScanVerification, ScanInventory, ScanAssignment, ScanMaintenance, ScanAudit, ScanBatchVerification:
		return true
	}
	return false
}

// QRPayload is the canonical record encoded into a device's QR image.
type QRPayload struct {
	DeviceID           string `json:"deviceId"`
	AssetTag           string `json:"assetTag"`
	DeviceName         string `json:"deviceName"`
	Category           string `json:"category"`
	AssignedTo         string `json:"assignedTo"`
	AssignedDepartment string `json:"assignedDepartment"`
	Location           string `json:"location"`
	LastUpdated        string `json:"lastUpdated"`
	VerifyURL          string `json:"verifyUrl"`
}

// Discrepancy is one mismatch between a scan claim and recorded state.
type Discrepancy struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Discrepancies persists as a JSONB array.
type Discrepancies []Discrepancy

// Value marshals the list to JSON.
func (d Discrepancies) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal([]Discrepancy(d))
	if err != nil {
		return nil, fmt.Errorf("marshal discrepancies: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB array.
func (d *Discrepancies) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	out := []Discrepancy{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("unmarshal discrepancies: %w", err)
		}
	}
	*d = out
	return nil
}

// QRCodeScan is the record written for every scan, pass or fail.
type QRCodeScan struct {
	ID                   string        `db:"id" json:"id"`
	DeviceID             *string       `db:"device_id" json:"device_id,omitempty"`
	ScannedCode          string        `db:"scanned_code" json:"scanned_code"`
	ScannedBy            *string       `db:"scanned_by" json:"scanned_by,omitempty"`
	ScanType             ScanType      `db:"scan_type" json:"scan_type"`
	VerificationSuccess  bool          `db:"verification_success" json:"verification_success"`
	DeviceLocationAtScan string        `db:"device_location_at_scan" json:"device_location_at_scan"`
	AssignedStaffAtScan  string        `db:"assigned_staff_at_scan" json:"assigned_staff_at_scan"`
	ScanLocation         string        `db:"scan_location" json:"scan_location"`
	DiscrepanciesFound   Discrepancies `db:"discrepancies_found" json:"discrepancies_found"`
	ErrorMessage         string        `db:"error_message" json:"error_message,omitempty"`
	IPAddress            string        `db:"ip_address" json:"ip_address"`
	UserAgent            string        `db:"user_agent" json:"user_agent"`
	Timestamp            time.Time     `db:"timestamp" json:"timestamp"`
}

// ScanClaim carries what the scanner asserts about the device.
type ScanClaim struct {
	Code         string
	ScanType     ScanType
	ScanLocation string
	LocationID   string
	StaffID      string
}

// ScanFilter narrows scan history.
type ScanFilter struct {
	DeviceID  string
	ScanType  string
	Success   *bool
	ScannedBy string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// VerificationResult is returned to the scanner.
type VerificationResult struct {
	Scan          QRCodeScan      `json:"scan"`
	Device        *QRPayload      `json:"device,omitempty"`
	Status        DeviceStatus    `json:"status,omitempty"`
	Condition     DeviceCondition `json:"condition,omitempty"`
	Discrepancies Discrepancies   `json:"discrepancies"`
}

// ScanCount pairs a label with a count.
type ScanCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// ScanAnalytics summarises scan activity over a window.
type ScanAnalytics struct {
	From             time.Time   `json:"from"`
	To               time.Time   `json:"to"`
	TotalScans       int         `json:"total_scans"`
	SuccessfulScans  int         `json:"successful_scans"`
	SuccessRate      float64     `json:"success_rate"`
	ByType           []ScanCount `json:"by_type"`
	Daily            []ScanCount `json:"daily"`
	TopDiscrepancies []ScanCount `json:"top_discrepancies"`
}

// QRImage is the stored QR artefact for a device.
type QRImage struct {
	DeviceID    string     `db:"device_id"`
	Payload     *string    `db:"qr_payload"`
	PNG         []byte     `db:"qr_image"`
	GeneratedAt *time.Time `db:"qr_generated_at"`
}
