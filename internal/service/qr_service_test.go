package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type mockQRDevices struct {
	rows   map[string]*models.DeviceDetail
	images map[string]*models.QRImage
	saves  int
}

func (m *mockQRDevices) FindDetail(ctx context.Context, ref string) (*models.DeviceDetail, error) {
	for _, d := range m.rows {
		if d.ID == ref || d.DeviceID == ref {
			cp := *d
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockQRDevices) SaveQR(ctx context.Context, id, payload string, png []byte, at time.Time) error {
	m.saves++
	image := m.images[id]
	if image == nil {
		image = &models.QRImage{DeviceID: id}
		m.images[id] = image
	}
	image.Payload = &payload
	if png != nil {
		image.PNG = png
		image.GeneratedAt = &at
	}
	return nil
}

func (m *mockQRDevices) GetQR(ctx context.Context, id string) (*models.QRImage, error) {
	if image, ok := m.images[id]; ok {
		cp := *image
		return &cp, nil
	}
	return &models.QRImage{DeviceID: id}, nil
}

type qrAssignmentsStub struct {
	active map[string]*models.Assignment
}

func (q *qrAssignmentsStub) ActiveForDevice(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*models.Assignment, error) {
	if a, ok := q.active[deviceID]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type qrStaffStub struct{}

func (qrStaffStub) FindByRef(ctx context.Context, ref string) (*models.Staff, error) {
	if ref == "110100091" {
		return &models.Staff{ID: "staff-1", EmployeeID: ref}, nil
	}
	return nil, sql.ErrNoRows
}

type mockScanRepo struct {
	scans    []models.QRCodeScan
	err      error
	failCode string
}

func (m *mockScanRepo) Create(ctx context.Context, scan *models.QRCodeScan) error {
	if m.err != nil {
		return m.err
	}
	if m.failCode != "" && scan.ScannedCode == m.failCode {
		return errors.New("connection reset")
	}
	m.scans = append(m.scans, *scan)
	return nil
}

func (m *mockScanRepo) List(ctx context.Context, filter models.ScanFilter) ([]models.QRCodeScan, int, error) {
	return m.scans, len(m.scans), nil
}

func (m *mockScanRepo) Analytics(ctx context.Context, from, to time.Time, top int) (*models.ScanAnalytics, error) {
	return &models.ScanAnalytics{TotalScans: len(m.scans)}, nil
}

type qrFixture struct {
	svc     *QRService
	devices *mockQRDevices
	scans   *mockScanRepo
	audit   *mockAuditRepo
}

func newQRFixture() *qrFixture {
	staffName, deptName, location := "Rina Kusuma", "IPDS", "HQ/A/F2/IPDS01/201/DESK-01"
	locationID, staffID := "loc-1", "staff-1"
	devices := &mockQRDevices{
		rows: map[string]*models.DeviceDetail{
			"dev-1": {
				Device: models.Device{ID: "dev-1", DeviceID: "BPS-IT-2025-0001", AssetTag: "AT-0001", DeviceName: "Dell Latitude 5440",
					Status: models.DeviceAssigned, Condition: models.ConditionGood, UpdatedAt: engineNow},
				CategoryName:       "Computing",
				AssignedStaffName:  &staffName,
				AssignedDepartment: &deptName,
				LocationDisplay:    &location,
			},
			"dev-9": {
				Device: models.Device{ID: "dev-9", DeviceID: "BPS-IT-2020-0009", DeviceName: "Old Desktop", Status: models.DeviceRetired, Condition: models.ConditionPoor},
			},
		},
		images: map[string]*models.QRImage{},
	}
	assignments := &qrAssignmentsStub{active: map[string]*models.Assignment{
		"dev-1": {DeviceID: "dev-1", AssignedToStaffID: &staffID, AssignedToLocationID: &locationID, IsActive: true},
	}}
	f := &qrFixture{devices: devices, scans: &mockScanRepo{}, audit: &mockAuditRepo{}}
	f.svc = NewQRService(devices, assignments, qrStaffStub{}, f.scans, nil, nil,
		NewAuditService(f.audit, zap.NewNop()), nil, nil, zap.NewNop(), QRConfig{BaseURL: "https://inventory.bps.go.id/"})
	f.svc.now = func() time.Time { return engineNow }
	return f
}

func TestQRServicePayload(t *testing.T) {
	f := newQRFixture()

	payload, _, err := f.svc.Payload(context.Background(), "BPS-IT-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, "https://inventory.bps.go.id/verify/BPS-IT-2025-0001", payload.VerifyURL)
	assert.Equal(t, "Rina Kusuma", payload.AssignedTo)
	assert.Equal(t, "2025-03-10T09:30:00Z", payload.LastUpdated)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"deviceId":"BPS-IT-2025-0001"`)
	assert.Equal(t, "BPS-IT-2025-0001", deviceRefFromCode(string(encoded)))
	assert.Equal(t, "BPS-IT-2025-0001", deviceRefFromCode("https://inventory.bps.go.id/verify/BPS-IT-2025-0001/"))
	assert.Equal(t, "BPS-IT-2025-0001", deviceRefFromCode(" BPS-IT-2025-0001 "))
}

func TestQRServiceGenerateAndImage(t *testing.T) {
	f := newQRFixture()
	ctx := context.Background()

	image, err := f.svc.Image(ctx, adminActor, "BPS-IT-2025-0001")
	require.NoError(t, err)
	require.NotEmpty(t, image.PNG)
	assert.Equal(t, []byte("\x89PNG"), image.PNG[:4])
	assert.Equal(t, []string{models.AuditActionQRGenerate}, f.audit.actions())

	again, err := f.svc.Image(ctx, adminActor, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, image.PNG, again.PNG)
	assert.Len(t, f.audit.actions(), 1)

	require.NoError(t, f.svc.RefreshPayload(ctx, "dev-1"))
	assert.Equal(t, image.PNG, f.devices.images["dev-1"].PNG)
}

func TestQRServiceVerifyPublicScan(t *testing.T) {
	f := newQRFixture()
	before := *f.devices.rows["dev-1"]
	anonymous := models.Actor{IP: "203.0.113.7", UserAgent: "Mozilla/5.0"}

	result, err := f.svc.Verify(context.Background(), anonymous, models.ScanClaim{Code: "BPS-IT-2025-0001"})
	require.NoError(t, err)
	require.Len(t, f.scans.scans, 1)
	scan := f.scans.scans[0]
	assert.Equal(t, models.ScanVerification, scan.ScanType)
	assert.True(t, scan.VerificationSuccess)
	assert.Nil(t, scan.ScannedBy)
	assert.Equal(t, "203.0.113.7", scan.IPAddress)
	assert.Equal(t, "Rina Kusuma", scan.AssignedStaffAtScan)
	assert.Empty(t, result.Discrepancies)
	assert.Equal(t, before, *f.devices.rows["dev-1"])
	assert.Zero(t, f.devices.saves)
	assert.Empty(t, f.audit.actions())
}

func TestQRServiceVerifyDiscrepancies(t *testing.T) {
	f := newQRFixture()
	ctx := context.Background()

	result, err := f.svc.Verify(ctx, adminActor, models.ScanClaim{Code: "BPS-IT-2025-0001", LocationID: "loc-1", StaffID: "110100091"})
	require.NoError(t, err)
	assert.Empty(t, result.Discrepancies)

	result, err = f.svc.Verify(ctx, adminActor, models.ScanClaim{Code: "BPS-IT-2025-0001", LocationID: "loc-2", StaffID: "110100099"})
	require.NoError(t, err)
	require.Len(t, result.Discrepancies, 2)
	assert.Equal(t, "location", result.Discrepancies[0].Field)
	assert.Equal(t, "assignment", result.Discrepancies[1].Field)
	assert.True(t, result.Scan.VerificationSuccess)

	result, err = f.svc.Verify(ctx, adminActor, models.ScanClaim{Code: "BPS-IT-2020-0009"})
	require.NoError(t, err)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "status", result.Discrepancies[0].Field)

	result, err = f.svc.Verify(ctx, adminActor, models.ScanClaim{Code: "BPS-IT-2099-0001"})
	require.NoError(t, err)
	assert.False(t, result.Scan.VerificationSuccess)
	assert.Equal(t, "device not found", result.Scan.ErrorMessage)
	assert.Nil(t, result.Device)

	_, err = f.svc.Verify(ctx, adminActor, models.ScanClaim{Code: "BPS-IT-2025-0001", ScanType: "TELEPORT"})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "scan_type")
	assert.Len(t, f.scans.scans, 4)
}

func TestQRServiceVerifyPropagatesStoreFailure(t *testing.T) {
	f := newQRFixture()
	f.scans.err = errors.New("connection reset")

	_, err := f.svc.Verify(context.Background(), adminActor, models.ScanClaim{Code: "BPS-IT-2025-0001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, err.(*appErrors.Error).Code)
}

func TestQRServiceBatchVerify(t *testing.T) {
	f := newQRFixture()

	out, err := f.svc.BatchVerify(context.Background(), adminActor, dto.BatchVerifyRequest{
		Codes:      []string{"BPS-IT-2025-0001", "BPS-IT-2020-0009", "missing", "BPS-IT-2025-0001"},
		LocationID: "loc-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Verified)
	assert.Equal(t, 2, out.Failed)
	require.Len(t, f.scans.scans, 3)
	stored := map[string]bool{}
	for _, scan := range f.scans.scans {
		assert.Equal(t, models.ScanBatchVerification, scan.ScanType)
		stored[scan.ScannedCode] = scan.VerificationSuccess
	}
	assert.True(t, stored["BPS-IT-2025-0001"])
	assert.False(t, stored["BPS-IT-2020-0009"])
	assert.False(t, stored["missing"])
	assert.Empty(t, out.Errors)
}

func TestQRServiceBatchVerifyContinuesPastStoreFailure(t *testing.T) {
	f := newQRFixture()
	f.scans.failCode = "BPS-IT-2020-0009"

	out, err := f.svc.BatchVerify(context.Background(), adminActor, dto.BatchVerifyRequest{
		Codes:      []string{"BPS-IT-2020-0009", "BPS-IT-2025-0001"},
		LocationID: "loc-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Verified)
	assert.Equal(t, 1, out.Failed)
	assert.Contains(t, out.Errors, "BPS-IT-2020-0009")
	require.Len(t, out.Results, 1)
	assert.Equal(t, "BPS-IT-2025-0001", out.Results[0].Scan.ScannedCode)
	require.Len(t, f.scans.scans, 1)
}

func TestQRServiceBulkGenerate(t *testing.T) {
	f := newQRFixture()
	ctx := context.Background()

	out, err := f.svc.BulkGenerate(ctx, adminActor, dto.BulkGenerateQRRequest{DeviceIDs: []string{"dev-1", "dev-x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-1"}, out.Generated)
	assert.Contains(t, out.Failed, "dev-x")

	queue := &queueStub{}
	f.svc.UseQueue(queue)
	out, err = f.svc.BulkGenerate(ctx, adminActor, dto.BulkGenerateQRRequest{DeviceIDs: []string{"dev-1", "dev-9"}, Async: true})
	require.NoError(t, err)
	assert.True(t, out.JobQueued)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeQRBulkGenerate, queue.jobs[0].Type)

	require.NoError(t, f.svc.HandleJob(ctx, queue.jobs[0]))
	assert.NotEmpty(t, f.devices.images["dev-9"].PNG)
}

func TestQRServicePrintLabels(t *testing.T) {
	f := newQRFixture()
	ctx := context.Background()

	file, err := f.svc.PrintLabels(ctx, adminActor, dto.PrintLabelsRequest{DeviceIDs: []string{"dev-1"}, Size: "small"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "qr-labels-small-20250310-093000.pdf", file.Filename)
	assert.Equal(t, "%PDF", string(file.Data[:4]))

	bundle, err := f.svc.PrintLabels(ctx, adminActor, dto.PrintLabelsRequest{DeviceIDs: []string{"dev-1", "dev-9"}, Bundle: true})
	require.NoError(t, err)
	assert.Equal(t, "application/zip", bundle.ContentType)
	assert.Equal(t, "PK", string(bundle.Data[:2]))

	_, err = f.svc.PrintLabels(ctx, adminActor, dto.PrintLabelsRequest{DeviceIDs: []string{"dev-x"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)
}

func TestQRServiceAnalyticsDefaultsWindow(t *testing.T) {
	f := newQRFixture()

	analytics, err := f.svc.Analytics(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, analytics.TotalScans)
}
