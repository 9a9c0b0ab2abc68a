package dto

import "github.com/bps-secretariat/bps-inventory/internal/models"

// BulkGenerateQRRequest renders QR codes for many devices.
type BulkGenerateQRRequest struct {
	DeviceIDs []string `json:"device_ids" validate:"required,min=1,max=500"`
	Async     bool     `json:"async"`
}

// PrintLabelsRequest renders printable labels.
type PrintLabelsRequest struct {
	DeviceIDs []string `json:"device_ids" validate:"required,min=1,max=500"`
	Size      string   `json:"size" validate:"omitempty,oneof=small medium large"`
	Bundle    bool     `json:"bundle"`
}

// VerifyRequest carries what the scanner claims about a device.
type VerifyRequest struct {
	ScanType     models.ScanType `json:"scan_type"`
	ScanLocation string          `json:"scan_location" validate:"max=200"`
	LocationID   string          `json:"location_id"`
	StaffID      string          `json:"staff_id"`
}

// MobileScanRequest submits raw scanned content.
type MobileScanRequest struct {
	Code string `json:"code" validate:"required"`
	VerifyRequest
}

// BatchVerifyRequest verifies many scanned codes at once.
type BatchVerifyRequest struct {
	Codes        []string `json:"codes" validate:"required,min=1,max=500"`
	ScanLocation string   `json:"scan_location" validate:"max=200"`
	LocationID   string   `json:"location_id"`
}

// BatchVerifyResponse summarises a batch verification.
type BatchVerifyResponse struct {
	Total    int                         `json:"total"`
	Verified int                         `json:"verified"`
	Failed   int                         `json:"failed"`
	Results  []models.VerificationResult `json:"results"`
	Errors   map[string]string           `json:"errors,omitempty"`
}

// BulkGenerateQRResponse reports bulk generation outcomes.
type BulkGenerateQRResponse struct {
	Generated []string          `json:"generated"`
	Failed    map[string]string `json:"failed,omitempty"`
	JobQueued bool              `json:"job_queued,omitempty"`
}
