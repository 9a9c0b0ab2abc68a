package service

import (
	"context"
	"database/sql"
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

type mockMaintenanceRepo struct {
	*txProviderMock
	rows map[string]*models.MaintenanceSchedule
}

func (m *mockMaintenanceRepo) Create(ctx context.Context, item *models.MaintenanceSchedule) error {
	m.rows[item.ID] = item
	return nil
}

func (m *mockMaintenanceRepo) FindByID(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.MaintenanceSchedule, error) {
	item, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *item
	return &cp, nil
}

func (m *mockMaintenanceRepo) Save(ctx context.Context, exec sqlx.ExtContext, item *models.MaintenanceSchedule) error {
	cp := *item
	m.rows[item.ID] = &cp
	return nil
}

func (m *mockMaintenanceRepo) List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceSchedule, int, error) {
	out := make([]models.MaintenanceSchedule, 0, len(m.rows))
	for _, item := range m.rows {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *mockMaintenanceRepo) ListOpenUntil(ctx context.Context, until time.Time) ([]models.MaintenanceSchedule, error) {
	out := make([]models.MaintenanceSchedule, 0)
	for _, item := range m.rows {
		if item.Status.Open() && !item.ScheduledDate.After(until) {
			out = append(out, *item)
		}
	}
	return out, nil
}

type activeAssignmentStub struct {
	active map[string]bool
}

func (a *activeAssignmentStub) ActiveForDevice(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*models.Assignment, error) {
	if a.active[deviceID] {
		return &models.Assignment{DeviceID: deviceID, IsActive: true}, nil
	}
	return nil, sql.ErrNoRows
}

type vendorLookupStub struct {
	rows map[string]models.Vendor
}

func (v *vendorLookupStub) FindByID(ctx context.Context, id string) (*models.Vendor, error) {
	if vendor, ok := v.rows[id]; ok {
		return &vendor, nil
	}
	return nil, sql.ErrNoRows
}

type maintenanceFixture struct {
	svc     *MaintenanceService
	mock    sqlmock.Sqlmock
	repo    *mockMaintenanceRepo
	devices *mockEngineDevices
	active  *activeAssignmentStub
	audit   *mockAuditRepo
	qr      *stubQRRefresher
}

func newMaintenanceFixture(t *testing.T) *maintenanceFixture {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	devices := &mockEngineDevices{rows: map[string]*models.Device{
		"dev-1": {ID: "dev-1", DeviceID: "BPS-IT-2025-0001", DeviceName: "Dell Latitude 5440", Status: models.DeviceAssigned, Condition: models.ConditionGood},
		"dev-2": {ID: "dev-2", DeviceID: "BPS-IT-2025-0002", DeviceName: "Dell Latitude 5440", Status: models.DeviceAvailable, Condition: models.ConditionFair},
		"dev-3": {ID: "dev-3", DeviceID: "BPS-IT-2025-0003", DeviceName: "HP EliteBook", Status: models.DeviceRetired, Condition: models.ConditionPoor},
	}}
	f := &maintenanceFixture{
		mock:    mock,
		repo:    &mockMaintenanceRepo{txProviderMock: tx, rows: map[string]*models.MaintenanceSchedule{}},
		devices: devices,
		active:  &activeAssignmentStub{active: map[string]bool{"dev-1": true}},
		audit:   &mockAuditRepo{},
		qr:      &stubQRRefresher{},
	}
	vendors := &vendorLookupStub{rows: map[string]models.Vendor{
		"vendor-1": {ID: "vendor-1", Name: "PT Sinar Komputer", IsActive: true},
		"vendor-2": {ID: "vendor-2", Name: "CV Lama", IsActive: false},
	}}
	f.svc = NewMaintenanceService(f.repo, devices, f.active, vendors, NewAuditService(f.audit, zap.NewNop()), nil, f.qr, nil, zap.NewNop())
	f.svc.now = func() time.Time { return engineNow }
	return f
}

func (f *maintenanceFixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
		return
	}
	f.mock.ExpectRollback()
}

func (f *maintenanceFixture) schedule(t *testing.T, device string) *models.MaintenanceSchedule {
	t.Helper()
	m, err := f.svc.Create(context.Background(), adminActor, nil, dto.CreateMaintenanceRequest{
		DeviceID:      device,
		Type:          models.MaintenancePreventive,
		Title:         "Battery replacement",
		ScheduledDate: "2025-03-12",
		VendorID:      strPtr("vendor-1"),
	})
	require.NoError(t, err)
	return m
}

func TestMaintenanceServiceLifecycleKeepsAssignment(t *testing.T) {
	f := newMaintenanceFixture(t)
	ctx := context.Background()
	m := f.schedule(t, "BPS-IT-2025-0001")
	assert.Equal(t, models.MaintenanceScheduled, m.Status)

	f.expectTx(true)
	started, err := f.svc.Start(ctx, adminActor, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceInProgress, started.Status)
	assert.Equal(t, models.DeviceMaintenance, f.devices.rows["dev-1"].Status)

	f.expectTx(true)
	done, err := f.svc.Complete(ctx, adminActor, m.ID, dto.CompleteMaintenanceRequest{
		WorkPerformed: "Replaced battery",
		ActualCost:    decimalPtr("850000"),
		Condition:     conditionPtr(models.ConditionExcellent),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCompleted, done.Status)
	require.NotNil(t, done.CompletionDate)
	assert.Equal(t, "2025-03-10", done.CompletionDate.Format(models.DateLayout))
	assert.Equal(t, models.DeviceAssigned, f.devices.rows["dev-1"].Status)
	assert.Equal(t, models.ConditionExcellent, f.devices.rows["dev-1"].Condition)
	assert.Equal(t, []string{"dev-1", "dev-1"}, f.qr.refreshed)
	assert.Equal(t, []string{models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionUpdate}, f.audit.actions())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMaintenanceServiceCancelReleasesDevice(t *testing.T) {
	f := newMaintenanceFixture(t)
	ctx := context.Background()
	m := f.schedule(t, "BPS-IT-2025-0002")

	f.expectTx(true)
	_, err := f.svc.Start(ctx, adminActor, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceMaintenance, f.devices.rows["dev-2"].Status)

	f.expectTx(true)
	cancelled, err := f.svc.Cancel(ctx, adminActor, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCancelled, cancelled.Status)
	assert.Equal(t, models.DeviceAvailable, f.devices.rows["dev-2"].Status)

	f.expectTx(false)
	_, err = f.svc.Start(ctx, adminActor, m.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, err.(*appErrors.Error).Code)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMaintenanceServicePostpone(t *testing.T) {
	f := newMaintenanceFixture(t)
	ctx := context.Background()
	m := f.schedule(t, "BPS-IT-2025-0002")

	f.expectTx(false)
	_, err := f.svc.Postpone(ctx, adminActor, m.ID, dto.PostponeMaintenanceRequest{ScheduledDate: "2025-03-11"})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "scheduled_date")

	f.expectTx(true)
	postponed, err := f.svc.Postpone(ctx, adminActor, m.ID, dto.PostponeMaintenanceRequest{ScheduledDate: "2025-03-20", Reason: "Parts on backorder"})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenancePostponed, postponed.Status)
	assert.Equal(t, "2025-03-20", postponed.ScheduledDate.Format(models.DateLayout))
	assert.Contains(t, postponed.Description, "Parts on backorder")
	assert.Equal(t, models.DeviceAvailable, f.devices.rows["dev-2"].Status)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMaintenanceServiceCreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.CreateMaintenanceRequest)
		code   string
		field  string
	}{
		{name: "retired device", mutate: func(r *dto.CreateMaintenanceRequest) { r.DeviceID = "BPS-IT-2025-0003" }, code: appErrors.ErrPreconditionFailed.Code},
		{name: "unknown device", mutate: func(r *dto.CreateMaintenanceRequest) { r.DeviceID = "BPS-IT-2025-9999" }, code: appErrors.ErrNotFound.Code},
		{name: "inactive vendor", mutate: func(r *dto.CreateMaintenanceRequest) { r.VendorID = strPtr("vendor-2") }, code: appErrors.ErrValidation.Code, field: "vendor_id"},
		{name: "negative cost", mutate: func(r *dto.CreateMaintenanceRequest) { r.EstimatedCost = decimalPtr("-1") }, code: appErrors.ErrValidation.Code, field: "estimated_cost"},
		{name: "bad date", mutate: func(r *dto.CreateMaintenanceRequest) { r.ScheduledDate = "12/03/2025" }, code: appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newMaintenanceFixture(t)
			req := dto.CreateMaintenanceRequest{
				DeviceID:      "BPS-IT-2025-0002",
				Type:          models.MaintenanceCorrective,
				Title:         "Screen flicker",
				ScheduledDate: "2025-03-15",
			}
			tc.mutate(&req)
			_, err := f.svc.Create(context.Background(), adminActor, nil, req)
			require.Error(t, err)
			appErr := err.(*appErrors.Error)
			assert.Equal(t, tc.code, appErr.Code)
			if tc.field != "" {
				assert.Contains(t, appErr.Fields, tc.field)
			}
			assert.Empty(t, f.repo.rows)
		})
	}
}

func TestMaintenanceServiceUpcoming(t *testing.T) {
	f := newMaintenanceFixture(t)
	f.schedule(t, "BPS-IT-2025-0001")

	items, err := f.svc.Upcoming(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = f.svc.Upcoming(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestMaintenanceServiceOverdue(t *testing.T) {
	f := newMaintenanceFixture(t)
	f.schedule(t, "BPS-IT-2025-0001")

	items, err := f.svc.Overdue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	f.svc.now = func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) }
	items, err = f.svc.Overdue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items, "due today is not overdue")

	f.svc.now = func() time.Time { return time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC) }
	items, err = f.svc.Overdue(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func conditionPtr(c models.DeviceCondition) *models.DeviceCondition { return &c }
