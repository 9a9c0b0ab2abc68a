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

func newAssignment(created time.Time) *models.Assignment {
	staff := "staff-1"
	return &models.Assignment{
		ID:                "row-1",
		DeviceID:          "dev-1",
		AssignedToStaffID: &staff,
		AssignmentType:    models.AssignmentPersonal,
		StartDate:         created,
		IsActive:          true,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func TestAssignmentCreateRetriesLostIDRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seq := regexp.QuoteMeta("SELECT COALESCE(MAX(CAST(SUBSTRING(assignment_id FROM 14) AS INTEGER)), 0) FROM assignments WHERE assignment_id LIKE $1")

	mock.ExpectBegin()
	mock.ExpectQuery(seq).WithArgs("ASN-20250301-%").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec("^SAVEPOINT assignment_insert").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO assignments").WillReturnError(&pq.Error{Code: "23505", Constraint: "assignments_assignment_id_key"})
	mock.ExpectExec("ROLLBACK TO SAVEPOINT assignment_insert").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(seq).WithArgs("ASN-20250301-%").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(1))
	mock.ExpectExec("^SAVEPOINT assignment_insert").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE SAVEPOINT assignment_insert").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	assignment := newAssignment(created)
	require.NoError(t, repo.Create(context.Background(), tx, assignment))
	require.NoError(t, tx.Commit())

	assert.Equal(t, "ASN-20250301-0002", assignment.AssignmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateMapsActiveIndexToAlreadyAssigned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM assignments WHERE assignment_id LIKE").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))
	mock.ExpectExec("^SAVEPOINT assignment_insert").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO assignments").WillReturnError(&pq.Error{Code: "23505", Constraint: activeAssignmentIndex})
	mock.ExpectExec("ROLLBACK TO SAVEPOINT assignment_insert").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.Create(context.Background(), tx, newAssignment(created))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyAssigned))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentFindByRefForUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "device_id", "assignment_type", "is_active", "is_temporary", "start_date", "created_at", "updated_at"}).
		AddRow("row-1", "ASN-20250301-0001", "dev-1", "PERSONAL", true, false, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1 OR a.assignment_id = $1 LIMIT 1 FOR UPDATE")).
		WithArgs("ASN-20250301-0001").
		WillReturnRows(rows)

	assignment, err := repo.FindByRef(context.Background(), nil, "ASN-20250301-0001", true)
	require.NoError(t, err)
	assert.Equal(t, "row-1", assignment.ID)
	assert.Equal(t, models.AssignmentPersonal, assignment.AssignmentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListOverdueScopedAndOrdered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	today := models.DateOnly(time.Now())
	due := today.AddDate(0, 0, -1)
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "device_id", "is_active", "is_temporary", "start_date", "expected_return_date", "device_code", "device_name"}).
		AddRow("row-1", "ASN-20250301-0001", "dev-1", true, true, today.AddDate(0, 0, -10), due, "BPS-IT-2025-0001", "Laptop")
	mock.ExpectQuery(`a\.expected_return_date < \$1 AND .* = ANY\(\$2\) ORDER BY a\.expected_return_date ASC`).
		WithArgs(today, sqlmock.AnyArg()).
		WillReturnRows(rows)

	out, err := repo.ListOverdue(context.Background(), today, []string{"dept-1"}, true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsOverdue(today))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListRestrictedWithoutDepartmentsMatchesNothing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE FALSE ORDER BY a.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments a")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	out, total, err := repo.List(context.Background(), models.AssignmentFilter{Restricted: true}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCountActiveForStaff(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE assigned_to_staff_id = $1 AND is_active")).
		WithArgs("staff-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveForStaff(context.Background(), nil, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestHistoryAppendUsesTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHistoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignment_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	entry := &models.AssignmentHistory{ID: "h1", AssignmentID: "row-1", DeviceID: "dev-1", Action: models.HistoryAssigned, ChangedAt: time.Now()}
	require.NoError(t, repo.Append(context.Background(), tx, entry))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
