package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "username", "email", "password_hash", "full_name", "is_active", "last_login", "last_activity", "created_at", "updated_at"}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).AddRow("1", "admin", "admin@bps.go.id", "hash", "Admin", true, now, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@bps.go.id", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows(userRowColumns).AddRow("1", "budi", "b@bps.go.id", "hash", "Budi", true, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE (LOWER(username) LIKE $1 OR LOWER(email) LIKE $1 OR LOWER(full_name) LIKE $1) ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("%bud%").
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE")).
		WithArgs("%bud%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Search: "Bud"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRoleAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_role_assignments WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_role_assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_role_assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	grants := []models.UserRoleAssignment{
		{RoleID: "r1", StartDate: time.Now(), IsActive: true, CreatedAt: time.Now()},
		{RoleID: "r2", StartDate: time.Now(), IsActive: true, CreatedAt: time.Now()},
	}
	require.NoError(t, repo.ReplaceRoleAssignments(context.Background(), "u1", grants))
	assert.NotEmpty(t, grants[0].ID)
	assert.Equal(t, "u1", grants[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRoleAssignmentsRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_role_assignments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO user_role_assignments").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceRoleAssignments(context.Background(), "u1", []models.UserRoleAssignment{{RoleID: "r1"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRoleReturnsStoredID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO roles .* ON CONFLICT \\(name\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-role"))

	role := &models.Role{Name: models.RoleITOfficer, Permissions: models.DefaultRolePermissions()[models.RoleITOfficer], IsActive: true}
	require.NoError(t, repo.UpsertRole(context.Background(), role))
	assert.Equal(t, "existing-role", role.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleAssignmentsScansPermissions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	dept := "dept-1"
	rows := sqlmock.NewRows([]string{"id", "user_id", "role_id", "role_name", "permissions", "department_id", "start_date", "end_date", "is_active", "created_by", "created_at"}).
		AddRow("a1", "u1", "r1", models.RoleManager, []byte(`{"can_manage_assignments":true,"restricted_to_own_department":true}`), dept, now, nil, true, nil, now)
	mock.ExpectQuery("FROM user_role_assignments ura JOIN roles ro").WithArgs("u1").WillReturnRows(rows)

	grants, err := repo.RoleAssignments(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.True(t, grants[0].Permissions.CanManageAssignments)
	assert.True(t, grants[0].Permissions.RestrictedToOwnDepartment)
	assert.Equal(t, &dept, grants[0].DepartmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
