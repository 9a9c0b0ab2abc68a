package repository

import (
	"context"
	"database/sql"
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

func TestRegistryResolveByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	cols := []string{"location_id", "location_code", "location_name", "room_id", "room_number", "department_id", "department_code",
		"department_name", "floor_number", "block_code", "building_code"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE bd.code = $1 AND b.code = $2 AND f.floor_number = $3 AND d.code = $4 AND r.room_number = $5")).
		WithArgs("HQ", "A", 3, "STATIS01", "301", "DESK-01").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("loc-1", "DESK-01", "Desk 1", "room-1", "301", "dept-1", "STATIS01", "Statistics", 3, "A", "HQ"))

	paths, err := repo.ResolveByCode(context.Background(), "HQ", "A", 3, "STATIS01", "301", "DESK-01")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "HQ/A/F3/STATIS01/301/DESK-01", paths[0].Display())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryReferencesForDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM rooms WHERE department_id = $1 AND is_active) AS active_children")).
		WithArgs("dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"active_children", "active_staff", "devices", "active_assignments"}).AddRow(0, 2, 0, 0))

	refs, err := repo.References(context.Background(), models.LevelDepartment, "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 2, refs.ActiveStaff)
	assert.True(t, refs.Blocking())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryReferencesForLocationHasNoChildren(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 0 AS active_children")).
		WithArgs("loc-1").
		WillReturnRows(sqlmock.NewRows([]string{"active_children", "active_staff", "devices", "active_assignments"}).AddRow(0, 0, 0, 0))

	refs, err := repo.References(context.Background(), models.LevelLocation, "loc-1")
	require.NoError(t, err)
	assert.False(t, refs.Blocking())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryCreateDuplicateCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectExec("INSERT INTO departments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "departments_floor_code_key"})

	now := time.Now()
	err := repo.Create(context.Background(), models.LevelDepartment, &models.Department{ID: "d1", FloorID: "f1", Code: "STATIS01", Name: "Statistics", IsActive: true, CreatedAt: now, UpdatedAt: now})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrDuplicate)
	assert.Contains(t, err.Error(), "department code already exists on floor")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryGetNodeMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, building_id AS parent_id, code AS code, name AS name, is_active, created_at FROM blocks WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetNode(context.Background(), models.LevelBlock, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.GetNode(context.Background(), models.OrgLevel("wings"), "x")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryDepartmentCodes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM departments WHERE floor_id = $1 AND code LIKE $2")).
		WithArgs("floor-1", "STATIS%").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("STATIS01").AddRow("STATIS02"))

	codes, err := repo.DepartmentCodes(context.Background(), "floor-1", "STATIS")
	require.NoError(t, err)
	assert.Equal(t, []string{"STATIS01", "STATIS02"}, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
