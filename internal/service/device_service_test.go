package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type mockDeviceRepo struct {
	*mockEngineDevices
	prefixes []string
	updates  int
}

func (m *mockDeviceRepo) Search(ctx context.Context, filter models.DeviceFilter) ([]models.DeviceDetail, int, error) {
	out := make([]models.DeviceDetail, 0, len(m.rows))
	for _, d := range m.rows {
		out = append(out, models.DeviceDetail{Device: *d})
	}
	return out, len(out), nil
}

func (m *mockDeviceRepo) Create(ctx context.Context, device *models.Device, prefix string) error {
	m.prefixes = append(m.prefixes, prefix)
	device.DeviceID = fmt.Sprintf("%s-%d-%04d", prefix, engineNow.Year(), len(m.prefixes))
	m.rows[device.ID] = device
	return nil
}

func (m *mockDeviceRepo) Update(ctx context.Context, exec sqlx.ExtContext, device *models.Device) error {
	m.updates++
	cp := *device
	if stored, ok := m.rows[device.ID]; ok {
		cp.Status = stored.Status
		cp.RetirementDate = stored.RetirementDate
	}
	m.rows[device.ID] = &cp
	return nil
}

// retiringDeviceRepo commits a retirement right after the edit reads the row.
type retiringDeviceRepo struct {
	*mockDeviceRepo
	lockedReads int
}

func (r *retiringDeviceRepo) FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Device, error) {
	device, err := r.mockDeviceRepo.FindByRef(ctx, exec, ref, forUpdate)
	if err != nil {
		return nil, err
	}
	if exec != nil && forUpdate {
		r.lockedReads++
	}
	r.rows[device.ID].Status = models.DeviceRetired
	return device, nil
}

func (m *mockDeviceRepo) Retire(ctx context.Context, exec sqlx.ExtContext, id string, day time.Time, by *string, at time.Time) error {
	d := m.rows[id]
	d.Status = models.DeviceRetired
	d.RetirementDate = &day
	return nil
}

type deviceAssignmentsStub struct {
	*txProviderMock
	*activeAssignmentStub
}

type deviceHistoryStub struct{}

func (deviceHistoryStub) ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.AssignmentHistory, error) {
	return []models.AssignmentHistory{{DeviceID: deviceID, Action: models.HistoryAssigned}}, nil
}

type deviceCatalogStub struct{}

func (deviceCatalogStub) FindType(ctx context.Context, id string) (*models.DeviceType, error) {
	if id == "type-laptop" {
		return &models.DeviceType{ID: id, Name: "Laptop", CategoryCode: "COMPUTING", IsActive: true}, nil
	}
	return nil, sql.ErrNoRows
}

type deviceOrgStub struct{}

func (deviceOrgStub) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	if id == "dept-ipds" {
		return &models.Department{ID: id, Code: "IPDS01", IsActive: true}, nil
	}
	return nil, sql.ErrNoRows
}

func (deviceOrgStub) LocationPath(ctx context.Context, locationID string) (*models.LocationPath, error) {
	if locationID == "loc-1" {
		return &models.LocationPath{LocationID: locationID, DepartmentID: "dept-umum"}, nil
	}
	return nil, sql.ErrNoRows
}

type stubDeviceQR struct {
	stubQRRefresher
	generated []string
}

func (s *stubDeviceQR) Generate(ctx context.Context, actor models.Actor, deviceRef string) (*models.QRImage, error) {
	s.generated = append(s.generated, deviceRef)
	return &models.QRImage{}, nil
}

type deviceFixture struct {
	svc    *DeviceService
	mock   sqlmock.Sqlmock
	repo   *mockDeviceRepo
	active *activeAssignmentStub
	audit  *mockAuditRepo
	qr     *stubDeviceQR
}

func newDeviceFixture(t *testing.T) *deviceFixture {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	repo := &mockDeviceRepo{mockEngineDevices: &mockEngineDevices{rows: map[string]*models.Device{
		"dev-1": {ID: "dev-1", DeviceID: "BPS-IT-2025-0001", DeviceName: "Dell Latitude 5440", Status: models.DeviceAssigned, Condition: models.ConditionGood},
		"dev-2": {ID: "dev-2", DeviceID: "BPS-IT-2025-0002", DeviceName: "Dell Latitude 5440", Status: models.DeviceAvailable, Condition: models.ConditionGood,
			PurchasePrice: decimal.NewNullDecimal(decimal.RequireFromString("14500000"))},
		"dev-4": {ID: "dev-4", DeviceID: "BPS-IT-2025-0004", DeviceName: "Old Printer", Status: models.DeviceDisposed, Condition: models.ConditionPoor},
	}}}
	f := &deviceFixture{
		mock:   mock,
		repo:   repo,
		active: &activeAssignmentStub{active: map[string]bool{"dev-1": true}},
		audit:  &mockAuditRepo{},
		qr:     &stubDeviceQR{},
	}
	vendors := &vendorLookupStub{rows: map[string]models.Vendor{"vendor-1": {ID: "vendor-1", IsActive: true}}}
	f.svc = NewDeviceService(repo, &deviceAssignmentsStub{txProviderMock: tx, activeAssignmentStub: f.active}, deviceHistoryStub{},
		deviceCatalogStub{}, deviceOrgStub{}, vendors, NewAuditService(f.audit, zap.NewNop()), nil, f.qr, nil, zap.NewNop())
	f.svc.now = func() time.Time { return engineNow }
	return f
}

func (f *deviceFixture) expect(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
		return
	}
	f.mock.ExpectRollback()
}

func TestDeviceIDPrefix(t *testing.T) {
	assert.Equal(t, "BPS-IT-IPDS01", DeviceIDPrefix("COMPUTING", "ipds01"))
	assert.Equal(t, "BPS-NET", DeviceIDPrefix("network", ""))
	assert.Equal(t, "BPS-IPDS01", DeviceIDPrefix("OTHER", "IPDS01"))
	assert.Equal(t, "BPS", DeviceIDPrefix("", " "))
}

func TestDeviceServiceCreate(t *testing.T) {
	f := newDeviceFixture(t)
	mac := "aa-bb-cc-dd-ee-ff"
	price := decimal.RequireFromString("15250000")

	device, err := f.svc.Create(context.Background(), adminActor, nil, dto.CreateDeviceRequest{
		AssetTag:          "AT-0100",
		SerialNumber:      "SN-0100",
		MACAddress:        &mac,
		DeviceTypeID:      "type-laptop",
		DeviceName:        "ThinkPad T14",
		VendorID:          strPtr("vendor-1"),
		PurchaseDate:      strPtr("2025-01-10"),
		PurchasePrice:     &price,
		WarrantyStartDate: strPtr("2025-01-10"),
		WarrantyEndDate:   strPtr("2028-01-10"),
		DepartmentID:      strPtr("dept-ipds"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"BPS-IT-IPDS01"}, f.repo.prefixes)
	assert.Equal(t, "BPS-IT-IPDS01-2025-0001", device.DeviceID)
	assert.Equal(t, models.DeviceAvailable, device.Status)
	assert.Equal(t, models.ConditionNew, device.Condition)
	require.NotNil(t, device.MACAddress)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", *device.MACAddress)
	assert.Equal(t, []string{models.AuditActionCreate}, f.audit.actions())
	assert.Equal(t, []string{device.ID}, f.qr.refreshed)
}

func TestDeviceServiceCreateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.CreateDeviceRequest)
		code   string
		field  string
	}{
		{name: "warranty before purchase", mutate: func(r *dto.CreateDeviceRequest) {
			r.PurchaseDate, r.WarrantyStartDate = strPtr("2025-02-01"), strPtr("2025-01-01")
		}, code: appErrors.ErrValidation.Code, field: "warranty_start_date"},
		{name: "warranty end not after start", mutate: func(r *dto.CreateDeviceRequest) {
			r.WarrantyStartDate, r.WarrantyEndDate = strPtr("2025-01-01"), strPtr("2025-01-01")
		}, code: appErrors.ErrValidation.Code, field: "warranty_end_date"},
		{name: "unknown type", mutate: func(r *dto.CreateDeviceRequest) { r.DeviceTypeID = "type-x" }, code: appErrors.ErrValidation.Code, field: "device_type_id"},
		{name: "unknown vendor", mutate: func(r *dto.CreateDeviceRequest) { r.VendorID = strPtr("vendor-x") }, code: appErrors.ErrValidation.Code, field: "vendor_id"},
		{name: "negative price", mutate: func(r *dto.CreateDeviceRequest) {
			p := decimal.NewFromInt(-5)
			r.PurchasePrice = &p
		}, code: appErrors.ErrValidation.Code, field: "purchase_price"},
		{name: "unknown location", mutate: func(r *dto.CreateDeviceRequest) { r.CurrentLocationID = strPtr("loc-x") }, code: appErrors.ErrValidation.Code, field: "current_location_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDeviceFixture(t)
			req := dto.CreateDeviceRequest{AssetTag: "AT-0200", SerialNumber: "SN-0200", DeviceTypeID: "type-laptop", DeviceName: "ThinkPad"}
			tc.mutate(&req)
			_, err := f.svc.Create(context.Background(), adminActor, nil, req)
			require.Error(t, err)
			appErr := err.(*appErrors.Error)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Contains(t, appErr.Fields, tc.field)
			assert.Empty(t, f.repo.prefixes)
		})
	}
}

func TestDeviceServiceGetHidesPrice(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	detail, err := f.svc.Get(ctx, &models.EffectivePermissions{}, "BPS-IT-2025-0002")
	require.NoError(t, err)
	assert.False(t, detail.PurchasePrice.Valid)
	assert.Equal(t, models.WarrantyNone, detail.WarrantyStatus)

	finance := &models.EffectivePermissions{PermissionSet: models.PermissionSet{CanViewFinancialData: true}}
	detail, err = f.svc.Get(ctx, finance, "BPS-IT-2025-0002")
	require.NoError(t, err)
	assert.True(t, detail.PurchasePrice.Valid)
}

func TestDeviceServiceUpdateStatusRules(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()
	status := func(s models.DeviceStatus) *models.DeviceStatus { return &s }

	f.expect(false)
	_, err := f.svc.Update(ctx, adminActor, nil, "dev-1", dto.UpdateDeviceRequest{Status: status(models.DeviceAvailable)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)

	f.expect(false)
	_, err = f.svc.Update(ctx, adminActor, nil, "dev-2", dto.UpdateDeviceRequest{Status: status(models.DeviceAssigned)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)

	f.expect(false)
	_, err = f.svc.Update(ctx, adminActor, nil, "dev-2", dto.UpdateDeviceRequest{Status: status(models.DeviceRetired)})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "status")

	f.expect(false)
	_, err = f.svc.Update(ctx, adminActor, nil, "dev-4", dto.UpdateDeviceRequest{DeviceName: strPtr("Printer")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)

	f.expect(true)
	updated, err := f.svc.Update(ctx, adminActor, nil, "dev-2", dto.UpdateDeviceRequest{Status: status(models.DeviceLost)})
	require.NoError(t, err)
	assert.Equal(t, models.DeviceLost, updated.Status)
	assert.Equal(t, models.DeviceLost, f.repo.rows["dev-2"].Status)
	assert.Equal(t, 1, f.repo.updates)
	assert.Equal(t, []string{models.AuditActionUpdate}, f.audit.actions())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeviceServiceUpdateKeepsConcurrentRetirement(t *testing.T) {
	f := newDeviceFixture(t)
	repo := &retiringDeviceRepo{mockDeviceRepo: f.repo}
	f.svc.devices = repo

	f.expect(true)
	_, err := f.svc.Update(context.Background(), adminActor, nil, "dev-2", dto.UpdateDeviceRequest{Notes: strPtr("relabelled")})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lockedReads)
	assert.Equal(t, models.DeviceRetired, f.repo.rows["dev-2"].Status)
	assert.Equal(t, "relabelled", f.repo.rows["dev-2"].Notes)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeviceServiceUpdatePriceNeedsFinancialAccess(t *testing.T) {
	f := newDeviceFixture(t)
	price := decimal.RequireFromString("1")

	f.expect(false)
	_, err := f.svc.Update(context.Background(), adminActor, &models.EffectivePermissions{}, "dev-2", dto.UpdateDeviceRequest{PurchasePrice: &price})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, err.(*appErrors.Error).Code)
	assert.Zero(t, f.repo.updates)
}

func TestDeviceServiceRetire(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	f.expect(false)
	_, err := f.svc.Retire(ctx, adminActor, nil, "dev-1", "end of life")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)

	f.expect(true)
	device, err := f.svc.Retire(ctx, adminActor, nil, "dev-2", "end of life")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceRetired, device.Status)
	require.NotNil(t, device.RetirementDate)
	assert.Equal(t, "2025-03-10", device.RetirementDate.Format(models.DateLayout))
	assert.Equal(t, []string{models.AuditActionRetire}, f.audit.actions())

	f.expect(true)
	_, err = f.svc.Retire(ctx, adminActor, nil, "dev-2", "")
	require.NoError(t, err)
	assert.Len(t, f.audit.actions(), 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeviceServiceBulkAction(t *testing.T) {
	f := newDeviceFixture(t)

	result, err := f.svc.BulkAction(context.Background(), adminActor, nil, dto.BulkDeviceActionRequest{
		Action:    dto.BulkActionGenerateQR,
		DeviceIDs: []string{"dev-1", "dev-2", "dev-1", "dev-x"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-1", "dev-2"}, result.Succeeded)
	assert.Contains(t, result.Failed, "dev-x")
	assert.Equal(t, []string{"dev-1", "dev-2"}, f.qr.generated)

	_, err = f.svc.BulkAction(context.Background(), adminActor, nil, dto.BulkDeviceActionRequest{
		Action:    dto.BulkActionSetCondition,
		DeviceIDs: []string{"dev-2"},
	})
	require.Error(t, err)
}

func TestDeviceServiceHistory(t *testing.T) {
	f := newDeviceFixture(t)

	entries, err := f.svc.History(context.Background(), nil, "BPS-IT-2025-0001")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dev-1", entries[0].DeviceID)
}
