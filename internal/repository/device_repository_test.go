package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

const deviceSeqPattern = `SELECT COALESCE\(MAX\(CAST\(SUBSTRING\(device_id FROM .*\) AS INTEGER\)\), 0\) FROM devices WHERE device_id LIKE \$1`

func TestDeviceCreateRetriesGeneratedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	mock.ExpectQuery(deviceSeqPattern).WithArgs("BPS-IT-2025-%").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectExec("INSERT INTO devices").WillReturnError(&pq.Error{Code: "23505", Constraint: "devices_device_id_key"})
	mock.ExpectQuery(deviceSeqPattern).WithArgs("BPS-IT-2025-%").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))
	mock.ExpectExec("INSERT INTO devices").WillReturnResult(sqlmock.NewResult(1, 1))

	device := &models.Device{ID: "dev-1", DeviceTypeID: "type-1", Status: models.DeviceAvailable, Condition: models.ConditionNew, CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(context.Background(), device, "BPS-IT"))
	assert.Equal(t, "BPS-IT-2025-0005", device.DeviceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceCreateDuplicateAssetTag(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	mock.ExpectQuery(deviceSeqPattern).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec("INSERT INTO devices").WillReturnError(&pq.Error{Code: "23505", Constraint: "devices_asset_tag_key"})

	err := repo.Create(context.Background(), &models.Device{ID: "dev-1", CreatedAt: time.Now()}, "BPS")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, "asset_tag already exists", appErr.Message)
}

func TestNextSequenceEscapesLikeWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	mock.ExpectQuery(deviceSeqPattern).WithArgs(`BPS-DC-FIN\_01-2025-%`).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(7))

	seq, err := repo.NextSequence(context.Background(), "BPS-DC-FIN_01", 2025)
	require.NoError(t, err)
	assert.Equal(t, 8, seq)
}

func TestFormatDeviceID(t *testing.T) {
	assert.Equal(t, "BPS-IT-2025-0001", FormatDeviceID("BPS-IT", 2025, 1))
	assert.Equal(t, "BPS-2024-12345", FormatDeviceID("BPS", 2024, 12345))
}

func TestApplyStateBuildsPartialUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	status := models.DeviceAssigned
	location := "loc-1"
	now := time.Now()
	today := models.DateOnly(now)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices SET status = $1, current_location_id = $2, deployment_date = COALESCE(deployment_date, $3), updated_by = $4, updated_at = $5 WHERE id = $6")).
		WithArgs(status, location, today, nil, now, "dev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyState(context.Background(), nil, "dev-1", DeviceStateChange{Status: &status, LocationID: &location, DeploymentDate: &today, At: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceUpdateLeavesStatusAlone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^UPDATE devices SET asset_tag = \$1, .*brand = \$7, model = \$8, condition = \$9, vendor_id = \$10, .*WHERE id = \$24$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	device := &models.Device{ID: "dev-1", Status: models.DeviceAvailable, Condition: models.ConditionGood, Notes: "relabelled", UpdatedAt: time.Now()}
	require.NoError(t, repo.Update(context.Background(), tx, device))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStateClearsLocation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices SET current_location_id = NULL, updated_by = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(nil, now, "dev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyState(context.Background(), nil, "dev-1", DeviceStateChange{ClearLocation: true, At: now}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStateNoopWithoutChanges(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	require.NoError(t, repo.ApplyState(context.Background(), nil, "dev-1", DeviceStateChange{At: time.Now()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveQRPayloadOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices SET qr_payload = $2 WHERE id = $1")).
		WithArgs("dev-1", `{"deviceId":"BPS-IT-2025-0001"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveQR(context.Background(), "dev-1", `{"deviceId":"BPS-IT-2025-0001"}`, nil, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
