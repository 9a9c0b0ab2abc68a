package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/jobs"
	"github.com/bps-secretariat/bps-inventory/pkg/qrcode"
)

// JobTypeQRBulkGenerate identifies queued bulk QR generation.
const JobTypeQRBulkGenerate = "qr_bulk_generate"

const scanAnalyticsTop = 5

type qrDeviceStore interface {
	FindDetail(ctx context.Context, ref string) (*models.DeviceDetail, error)
	SaveQR(ctx context.Context, id, payload string, png []byte, at time.Time) error
	GetQR(ctx context.Context, id string) (*models.QRImage, error)
}

type qrAssignmentLookup interface {
	ActiveForDevice(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*models.Assignment, error)
}

type qrStaffLookup interface {
	FindByRef(ctx context.Context, ref string) (*models.Staff, error)
}

type scanRepository interface {
	Create(ctx context.Context, scan *models.QRCodeScan) error
	List(ctx context.Context, filter models.ScanFilter) ([]models.QRCodeScan, int, error)
	Analytics(ctx context.Context, from, to time.Time, top int) (*models.ScanAnalytics, error)
}

type qrEncoder interface {
	Encode(content string) (*qrcode.Image, error)
}

type labelRenderer interface {
	Render(size qrcode.LabelSize, labels []qrcode.Label) ([]byte, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// QRConfig controls payload URLs.
type QRConfig struct {
	BaseURL string
}

// LabelFile is a rendered label document ready for download.
type LabelFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// QRService renders device QR codes and verifies scans against recorded state.
type QRService struct {
	devices     qrDeviceStore
	assignments qrAssignmentLookup
	staff       qrStaffLookup
	scans       scanRepository
	encoder     qrEncoder
	labels      labelRenderer
	audit       *AuditService
	metrics     *MetricsService
	queue       jobDispatcher
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         QRConfig
	now         func() time.Time
}

// NewQRService constructs the QR service.
func NewQRService(
	devices qrDeviceStore,
	assignments qrAssignmentLookup,
	staff qrStaffLookup,
	scans scanRepository,
	encoder qrEncoder,
	labels labelRenderer,
	audit *AuditService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg QRConfig,
) *QRService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if encoder == nil {
		encoder = qrcode.NewEncoder(qrcode.DefaultModuleSize, qrcode.DefaultBorder)
	}
	if labels == nil {
		labels = qrcode.NewLabelRenderer()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &QRService{
		devices:     devices,
		assignments: assignments,
		staff:       staff,
		scans:       scans,
		encoder:     encoder,
		labels:      labels,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// UseQueue enables asynchronous bulk generation.
func (s *QRService) UseQueue(queue jobDispatcher) {
	s.queue = queue
}

// Payload builds the canonical QR record of a device from current state.
func (s *QRService) Payload(ctx context.Context, ref string) (*models.QRPayload, *models.DeviceDetail, error) {
	detail, err := s.devices.FindDetail(ctx, ref)
	if err != nil {
		return nil, nil, repoError(err, "device", "load device")
	}
	return s.payloadFor(detail), detail, nil
}

func (s *QRService) payloadFor(detail *models.DeviceDetail) *models.QRPayload {
	return &models.QRPayload{
		DeviceID:           detail.DeviceID,
		AssetTag:           detail.AssetTag,
		DeviceName:         detail.DeviceName,
		Category:           detail.CategoryName,
		AssignedTo:         deref(detail.AssignedStaffName),
		AssignedDepartment: deref(detail.AssignedDepartment),
		Location:           deref(detail.LocationDisplay),
		LastUpdated:        detail.UpdatedAt.UTC().Format(time.RFC3339),
		VerifyURL:          s.cfg.BaseURL + "/verify/" + detail.DeviceID,
	}
}

// RefreshPayload rewrites the cached payload of a device without re-rendering its image.
func (s *QRService) RefreshPayload(ctx context.Context, deviceID string) error {
	payload, detail, err := s.Payload(ctx, deviceID)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal qr payload: %w", err)
	}
	if err := s.devices.SaveQR(ctx, detail.ID, string(encoded), nil, s.now().UTC()); err != nil {
		return repoError(err, "device", "save qr payload")
	}
	return nil
}

// Generate renders and stores the QR image of a device. Re-generating replaces the stored image.
func (s *QRService) Generate(ctx context.Context, actor models.Actor, deviceRef string) (*models.QRImage, error) {
	payload, detail, err := s.Payload(ctx, strings.TrimSpace(deviceRef))
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode qr payload")
	}
	image, err := s.encoder.Encode(string(encoded))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render qr image")
	}
	now := s.now().UTC()
	if err := s.devices.SaveQR(ctx, detail.ID, string(encoded), image.PNG, now); err != nil {
		return nil, repoError(err, "device", "save qr image")
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionQRGenerate,
		ModelName:  "Device",
		ObjectID:   detail.DeviceID,
		ObjectRepr: detail.DeviceID + " " + detail.DeviceName,
	})
	payloadText := string(encoded)
	return &models.QRImage{DeviceID: detail.ID, Payload: &payloadText, PNG: image.PNG, GeneratedAt: &now}, nil
}

// Image returns the stored PNG, rendering it first when the device has none yet.
func (s *QRService) Image(ctx context.Context, actor models.Actor, deviceRef string) (*models.QRImage, error) {
	detail, err := s.devices.FindDetail(ctx, strings.TrimSpace(deviceRef))
	if err != nil {
		return nil, repoError(err, "device", "load device")
	}
	stored, err := s.devices.GetQR(ctx, detail.ID)
	if err != nil {
		return nil, repoError(err, "device", "load qr image")
	}
	if len(stored.PNG) > 0 {
		return stored, nil
	}
	return s.Generate(ctx, actor, detail.ID)
}

// BulkGenerate renders QR codes for many devices, inline or on the job queue.
func (s *QRService) BulkGenerate(ctx context.Context, actor models.Actor, req dto.BulkGenerateQRRequest) (*dto.BulkGenerateQRResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	refs := dedupe(req.DeviceIDs)
	if req.Async && s.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: JobTypeQRBulkGenerate, Payload: qrBulkJob{Actor: actor, DeviceIDs: refs}}
		if err := s.queue.Enqueue(job); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue qr generation")
		}
		return &dto.BulkGenerateQRResponse{Generated: []string{}, JobQueued: true}, nil
	}
	return s.generateAll(ctx, actor, refs), nil
}

func (s *QRService) generateAll(ctx context.Context, actor models.Actor, refs []string) *dto.BulkGenerateQRResponse {
	out := &dto.BulkGenerateQRResponse{Generated: []string{}, Failed: map[string]string{}}
	for _, ref := range refs {
		if ctx.Err() != nil {
			out.Failed[ref] = "request cancelled"
			continue
		}
		if _, err := s.Generate(ctx, actor, ref); err != nil {
			out.Failed[ref] = appErrors.FromError(err).Message
			continue
		}
		out.Generated = append(out.Generated, ref)
	}
	return out
}

type qrBulkJob struct {
	Actor     models.Actor
	DeviceIDs []string
}

// HandleJob runs a queued bulk generation.
func (s *QRService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(qrBulkJob)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload for job %s", job.ID))
	}
	result := s.generateAll(ctx, payload.Actor, payload.DeviceIDs)
	if len(result.Failed) > 0 {
		s.logger.Warn("bulk qr generation finished with failures",
			zap.String("job_id", job.ID), zap.Int("generated", len(result.Generated)), zap.Int("failed", len(result.Failed)))
	}
	return nil
}

// PrintLabels renders a label PDF, optionally zipped together with the raw PNGs.
func (s *QRService) PrintLabels(ctx context.Context, actor models.Actor, req dto.PrintLabelsRequest) (*LabelFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	size, err := qrcode.ParseLabelSize(req.Size)
	if err != nil {
		return nil, appErrors.Field("size", "must be one of small, medium, large")
	}
	labels := make([]qrcode.Label, 0, len(req.DeviceIDs))
	entries := make([]qrcode.BundleEntry, 0, len(req.DeviceIDs)+1)
	for _, ref := range dedupe(req.DeviceIDs) {
		image, err := s.Image(ctx, actor, ref)
		if err != nil {
			return nil, err
		}
		detail, err := s.devices.FindDetail(ctx, image.DeviceID)
		if err != nil {
			return nil, repoError(err, "device", "load device")
		}
		labels = append(labels, qrcode.Label{
			DeviceID:   detail.DeviceID,
			DeviceName: detail.DeviceName,
			AssetTag:   detail.AssetTag,
			Location:   deref(detail.LocationDisplay),
			QRPNG:      image.PNG,
		})
		entries = append(entries, qrcode.BundleEntry{Name: detail.DeviceID + ".png", Data: image.PNG})
	}
	pdf, err := s.labels.Render(size, labels)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render labels")
	}
	stamp := s.now().UTC()
	name := fmt.Sprintf("qr-labels-%s-%s", size, stamp.Format("20060102-150405"))
	if !req.Bundle {
		return &LabelFile{Filename: name + ".pdf", ContentType: "application/pdf", Data: pdf}, nil
	}
	entries = append([]qrcode.BundleEntry{{Name: "labels.pdf", Data: pdf}}, entries...)
	archive, err := qrcode.Bundle(entries, stamp)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bundle labels")
	}
	return &LabelFile{Filename: name + ".zip", ContentType: "application/zip", Data: archive}, nil
}

// Verify checks a scanned device against its recorded assignment and location and
// records the scan. A missing device is a failed scan, not an error. Scans never
// change device or assignment state.
func (s *QRService) Verify(ctx context.Context, actor models.Actor, claim models.ScanClaim) (*models.VerificationResult, error) {
	if claim.ScanType == "" {
		claim.ScanType = models.ScanVerification
	}
	if !claim.ScanType.Valid() {
		return nil, appErrors.Field("scan_type", "unknown scan type "+string(claim.ScanType))
	}
	scan := models.QRCodeScan{
		ID:                 uuid.NewString(),
		ScannedCode:        claim.Code,
		ScannedBy:          actor.UserIDPtr(),
		ScanType:           claim.ScanType,
		ScanLocation:       strings.TrimSpace(claim.ScanLocation),
		DiscrepanciesFound: models.Discrepancies{},
		IPAddress:          actor.IP,
		UserAgent:          actor.UserAgent,
		Timestamp:          s.now().UTC(),
	}
	result := &models.VerificationResult{Discrepancies: models.Discrepancies{}}

	detail, err := s.devices.FindDetail(ctx, deviceRefFromCode(claim.Code))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		scan.ErrorMessage = "device not found"
	case err != nil:
		return nil, repoError(err, "device", "load device")
	default:
		deviceID := detail.ID
		scan.DeviceID = &deviceID
		scan.VerificationSuccess = true
		scan.DeviceLocationAtScan = deref(detail.LocationDisplay)
		scan.AssignedStaffAtScan = deref(detail.AssignedStaffName)
		discrepancies, err := s.compare(ctx, detail, claim)
		if err != nil {
			return nil, err
		}
		scan.DiscrepanciesFound = discrepancies
		if claim.ScanType == models.ScanBatchVerification {
			scan.VerificationSuccess = len(discrepancies) == 0
		}
		result.Device = s.payloadFor(detail)
		result.Status = detail.Status
		result.Condition = detail.Condition
		result.Discrepancies = discrepancies
	}

	if err := s.scans.Create(ctx, &scan); err != nil {
		return nil, repoError(err, "scan", "record qr scan")
	}
	s.metrics.RecordScan(scan.ScanType, scan.VerificationSuccess)
	result.Scan = scan
	return result, nil
}

// compare lists differences between what the scanner claims and recorded state.
func (s *QRService) compare(ctx context.Context, detail *models.DeviceDetail, claim models.ScanClaim) (models.Discrepancies, error) {
	out := models.Discrepancies{}
	if detail.Status.Terminal() || detail.Status == models.DeviceLost {
		out = append(out, models.Discrepancy{Field: "status", Expected: "in service", Actual: string(detail.Status)})
	}
	if claim.LocationID == "" && claim.StaffID == "" {
		return out, nil
	}
	active, err := s.assignments.ActiveForDevice(ctx, nil, detail.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, repoError(err, "assignment", "load active assignment")
	}
	if errors.Is(err, sql.ErrNoRows) {
		active = nil
	}

	if locationID := strings.TrimSpace(claim.LocationID); locationID != "" {
		expected := detail.CurrentLocationID
		if active != nil && active.AssignedToLocationID != nil {
			expected = active.AssignedToLocationID
		}
		if expected == nil || *expected != locationID {
			out = append(out, models.Discrepancy{Field: "location", Expected: deref(detail.LocationDisplay), Actual: locationID})
		}
	}
	if staffRef := strings.TrimSpace(claim.StaffID); staffRef != "" {
		claimed := staffRef
		if staff, err := s.staff.FindByRef(ctx, staffRef); err == nil {
			claimed = staff.ID
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, repoError(err, "staff", "load staff")
		}
		if active == nil || active.AssignedToStaffID == nil || *active.AssignedToStaffID != claimed {
			out = append(out, models.Discrepancy{Field: "assignment", Expected: deref(detail.AssignedStaffName), Actual: staffRef})
		}
	}
	return out, nil
}

// BatchVerify verifies many codes. A scan in a batch only passes without discrepancies.
func (s *QRService) BatchVerify(ctx context.Context, actor models.Actor, req dto.BatchVerifyRequest) (*dto.BatchVerifyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	out := &dto.BatchVerifyResponse{Results: make([]models.VerificationResult, 0, len(req.Codes)), Errors: map[string]string{}}
	for _, code := range dedupe(req.Codes) {
		out.Total++
		if ctxErr := ctx.Err(); ctxErr != nil {
			out.Failed++
			out.Errors[code] = "request cancelled"
			continue
		}
		result, err := s.Verify(ctx, actor, models.ScanClaim{
			Code:         code,
			ScanType:     models.ScanBatchVerification,
			ScanLocation: req.ScanLocation,
			LocationID:   req.LocationID,
		})
		if err != nil {
			s.logger.Warn("batch verification failed", zap.String("code", code), zap.Error(err))
			out.Failed++
			out.Errors[code] = appErrors.FromError(err).Message
			continue
		}
		if result.Scan.VerificationSuccess {
			out.Verified++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, *result)
	}
	return out, nil
}

// History lists scans newest first.
func (s *QRService) History(ctx context.Context, filter models.ScanFilter) ([]models.QRCodeScan, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	scans, total, err := s.scans.List(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "scan", "list qr scans")
	}
	return scans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Analytics summarises scans over the last days days.
func (s *QRService) Analytics(ctx context.Context, days int) (*models.ScanAnalytics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	to := models.DateOnly(s.now()).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)
	analytics, err := s.scans.Analytics(ctx, from, to, scanAnalyticsTop)
	if err != nil {
		return nil, repoError(err, "scan", "load scan analytics")
	}
	return analytics, nil
}

// deviceRefFromCode accepts either a raw device id or a full QR payload.
func deviceRefFromCode(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "{") {
		var payload models.QRPayload
		if err := json.Unmarshal([]byte(code), &payload); err == nil && payload.DeviceID != "" {
			return payload.DeviceID
		}
	}
	if idx := strings.LastIndex(code, "/verify/"); idx >= 0 {
		return strings.Trim(code[idx+len("/verify/"):], "/")
	}
	return code
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
