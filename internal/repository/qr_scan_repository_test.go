package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

func TestScanCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScanRepository(db)

	mock.ExpectExec("INSERT INTO qr_code_scans").WillReturnResult(sqlmock.NewResult(1, 1))

	deviceID := "dev-1"
	err := repo.Create(context.Background(), &models.QRCodeScan{
		ID:                  "scan-1",
		DeviceID:            &deviceID,
		ScannedCode:         "BPS-IT-2025-0001",
		ScanType:            models.ScanVerification,
		VerificationSuccess: true,
		DiscrepanciesFound:  models.Discrepancies{{Field: "location", Expected: "HQ/A/F3/STATIS01/301/DESK-01", Actual: "HQ/A/F2"}},
		IPAddress:           "10.0.0.7",
		Timestamp:           time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanAnalytics(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScanRepository(db)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE verification_success) AS success")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"total", "success"}).AddRow(8, 6))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY scan_type")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("VERIFICATION", 5).AddRow("AUDIT", 3))
	mock.ExpectQuery(regexp.QuoteMeta("TO_CHAR(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD')")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("2025-03-01", 8))
	mock.ExpectQuery(regexp.QuoteMeta("jsonb_array_elements(s.discrepancies_found) d")).
		WithArgs(from, to, 5).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("location", 2))

	out, err := repo.Analytics(context.Background(), from, to, 5)
	require.NoError(t, err)
	assert.Equal(t, 8, out.TotalScans)
	assert.InDelta(t, 0.75, out.SuccessRate, 0.0001)
	require.Len(t, out.ByType, 2)
	assert.Equal(t, "VERIFICATION", out.ByType[0].Key)
	assert.Equal(t, []models.ScanCount{{Key: "location", Count: 2}}, out.TopDiscrepancies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScanRepository(db)

	success := false
	mock.ExpectQuery(regexp.QuoteMeta("FROM qr_code_scans WHERE device_id = $1 AND verification_success = $2 ORDER BY timestamp DESC LIMIT 20 OFFSET 0")).
		WithArgs("dev-1", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM qr_code_scans WHERE device_id = $1 AND verification_success = $2")).
		WithArgs("dev-1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	scans, total, err := repo.List(context.Background(), models.ScanFilter{DeviceID: "dev-1", Success: &success})
	require.NoError(t, err)
	assert.Empty(t, scans)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
