package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentCountsAppendsTodayAfterScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("a.expected_return_date < $2) AS overdue")).
		WithArgs(sqlmock.AnyArg(), today).
		WillReturnRows(sqlmock.NewRows([]string{"active", "overdue"}).AddRow(4, 1))

	active, overdue, err := repo.AssignmentCounts(context.Background(), today, true, []string{"dept-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, active)
	assert.Equal(t, 1, overdue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceStatusCountsRestrictedWithoutScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE FALSE GROUP BY d.status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	counts, err := repo.DeviceStatusCounts(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSystemStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	until := start.AddDate(0, 0, 7)
	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM buildings WHERE is_active) AS buildings")).
		WithArgs(start, end, until).
		WillReturnRows(sqlmock.NewRows([]string{"buildings", "departments", "locations", "active_staff", "vendors", "devices", "critical_devices", "scans_today", "maintenance_due"}).
			AddRow(1, 12, 80, 240, 9, 610, 14, 33, 5))

	stats, err := repo.SystemStats(context.Background(), start, end, until)
	require.NoError(t, err)
	assert.Equal(t, 610, stats.Devices)
	assert.Equal(t, 5, stats.MaintenanceDue)
	assert.NoError(t, mock.ExpectationsWereMet())
}
