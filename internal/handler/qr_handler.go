package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

type qrService interface {
	Generate(ctx context.Context, actor models.Actor, deviceRef string) (*models.QRImage, error)
	Image(ctx context.Context, actor models.Actor, deviceRef string) (*models.QRImage, error)
	BulkGenerate(ctx context.Context, actor models.Actor, req dto.BulkGenerateQRRequest) (*dto.BulkGenerateQRResponse, error)
	PrintLabels(ctx context.Context, actor models.Actor, req dto.PrintLabelsRequest) (*service.LabelFile, error)
	Verify(ctx context.Context, actor models.Actor, claim models.ScanClaim) (*models.VerificationResult, error)
	BatchVerify(ctx context.Context, actor models.Actor, req dto.BatchVerifyRequest) (*dto.BatchVerifyResponse, error)
	History(ctx context.Context, filter models.ScanFilter) ([]models.QRCodeScan, *models.Pagination, error)
	Analytics(ctx context.Context, days int) (*models.ScanAnalytics, error)
}

// QRHandler exposes QR generation and scan verification.
type QRHandler struct {
	qr qrService
}

// NewQRHandler constructs QRHandler.
func NewQRHandler(qr qrService) *QRHandler {
	return &QRHandler{qr: qr}
}

// Generate godoc
// @Summary Render and store the QR code of a device
// @Tags QR
// @Produce json
// @Param device_id path string true "Device UUID or device id"
// @Success 200 {object} response.Envelope
// @Router /qr/generate/{device_id} [post]
func (h *QRHandler) Generate(c *gin.Context) {
	image, err := h.qr.Generate(c.Request.Context(), middleware.ActorFrom(c), c.Param("device_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"device_id":    image.DeviceID,
		"payload":      image.Payload,
		"generated_at": image.GeneratedAt,
	}, nil)
}

// Image godoc
// @Summary Stored QR image of a device
// @Tags QR
// @Produce png
// @Param device_id path string true "Device UUID or device id"
// @Success 200 {file} binary
// @Router /qr/image/{device_id} [get]
func (h *QRHandler) Image(c *gin.Context) {
	image, err := h.qr.Image(c.Request.Context(), middleware.ActorFrom(c), c.Param("device_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", image.PNG)
}

// BulkGenerate godoc
// @Summary Render QR codes for many devices
// @Tags QR
// @Accept json
// @Produce json
// @Param payload body dto.BulkGenerateQRRequest true "Devices"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /qr/bulk-generate [post]
func (h *QRHandler) BulkGenerate(c *gin.Context) {
	var req dto.BulkGenerateQRRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.qr.BulkGenerate(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if res.JobQueued {
		status = http.StatusAccepted
	}
	response.JSON(c, status, res, nil)
}

// PrintLabels godoc
// @Summary Printable label sheet
// @Description PDF sheet, or a zip of per-device PNG labels when bundle is set
// @Tags QR
// @Accept json
// @Produce application/pdf
// @Produce application/zip
// @Param payload body dto.PrintLabelsRequest true "Devices and size"
// @Success 200 {file} binary
// @Router /qr/print-labels [post]
func (h *QRHandler) PrintLabels(c *gin.Context) {
	var req dto.PrintLabelsRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.qr.PrintLabels(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// PublicVerify godoc
// @Summary Anonymous verification of a scanned device
// @Description Records the scan and returns the public device summary
// @Tags QR
// @Produce json
// @Param device_id path string true "Device id"
// @Success 200 {object} response.Envelope
// @Router /verify/{device_id} [get]
func (h *QRHandler) PublicVerify(c *gin.Context) {
	h.verify(c, models.ScanClaim{Code: c.Param("device_id"), ScanType: models.ScanVerification})
}

// Verify godoc
// @Summary Verify a device against the scanner's claims
// @Tags QR
// @Accept json
// @Produce json
// @Param device_id path string true "Device UUID or device id"
// @Param payload body dto.VerifyRequest false "Scan context"
// @Success 200 {object} response.Envelope
// @Router /qr/verify/{device_id} [post]
func (h *QRHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.verify(c, scanClaim(c.Param("device_id"), req))
}

// MobileScan godoc
// @Summary Submit raw scanned content from the mobile scanner
// @Tags QR
// @Accept json
// @Produce json
// @Param payload body dto.MobileScanRequest true "Scanned code"
// @Success 200 {object} response.Envelope
// @Router /qr/scan/mobile [post]
func (h *QRHandler) MobileScan(c *gin.Context) {
	var req dto.MobileScanRequest
	if !bindJSON(c, &req) {
		return
	}
	h.verify(c, scanClaim(req.Code, req.VerifyRequest))
}

func (h *QRHandler) verify(c *gin.Context, claim models.ScanClaim) {
	result, err := h.qr.Verify(c.Request.Context(), middleware.ActorFrom(c), claim)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func scanClaim(code string, req dto.VerifyRequest) models.ScanClaim {
	return models.ScanClaim{
		Code:         code,
		ScanType:     models.ScanType(strings.ToUpper(strings.TrimSpace(string(req.ScanType)))),
		ScanLocation: req.ScanLocation,
		LocationID:   req.LocationID,
		StaffID:      req.StaffID,
	}
}

// BatchVerify godoc
// @Summary Verify many scanned codes
// @Tags QR
// @Accept json
// @Produce json
// @Param payload body dto.BatchVerifyRequest true "Codes"
// @Success 200 {object} response.Envelope
// @Router /qr/batch-verify [post]
func (h *QRHandler) BatchVerify(c *gin.Context) {
	var req dto.BatchVerifyRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.qr.BatchVerify(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// History godoc
// @Summary Scan history
// @Tags QR
// @Produce json
// @Param device query string false "Device ID"
// @Param scan_type query string false "Scan type"
// @Param success query bool false "Verification outcome"
// @Param from query string false "From (YYYY-MM-DD)"
// @Param to query string false "To (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /qr/scan/history [get]
func (h *QRHandler) History(c *gin.Context) {
	var filter models.ScanFilter
	filter.DeviceID = c.Query("device")
	filter.ScanType = strings.ToUpper(strings.TrimSpace(c.Query("scan_type")))
	filter.Success = boolQuery(c, "success")
	filter.ScannedBy = c.Query("scanned_by")
	var err error
	if filter.DateFrom, err = dateQuery(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.DateTo, err = dateQuery(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	scans, pagination, err := h.qr.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scans, pagination)
}

// Analytics godoc
// @Summary Scan analytics
// @Tags QR
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Router /qr/analytics [get]
func (h *QRHandler) Analytics(c *gin.Context) {
	analytics, err := h.qr.Analytics(c.Request.Context(), intQuery(c, "days", 30))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil)
}
