package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, is_active, last_login, last_activity, created_at, updated_at`

// UserRepository provides database access for accounts, roles and role assignments.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by login name.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, last_activity = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdateLastActivity stamps last_activity.
func (r *UserRepository) UpdateLastActivity(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_activity = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last activity: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SetActive toggles the account.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	const query = `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, updatedAt); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var where whereBuilder
	if filter.Active != nil {
		where.add("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		where.add("(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?)", likePattern(filter.Search))
	}

	allowedSorts := map[string]bool{
		"username":   true,
		"created_at": true,
		"last_login": true,
		"full_name":  true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM users%s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, where.clause(), sortBy, sortOrder, limit, offset)
	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, listQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, username, email, password_hash, full_name, is_active, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :full_name, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return translateUnique(err, "create user")
	}
	return nil
}

// RoleAssignments returns every role grant of a user with the role's permission set.
func (r *UserRepository) RoleAssignments(ctx context.Context, userID string) ([]models.UserRoleAssignment, error) {
	const query = `SELECT ura.id, ura.user_id, ura.role_id, ro.name AS role_name, ro.permissions, ura.department_id, ura.start_date,
ura.end_date, (ura.is_active AND ro.is_active) AS is_active, ura.created_by, ura.created_at
FROM user_role_assignments ura JOIN roles ro ON ro.id = ura.role_id
WHERE ura.user_id = $1 ORDER BY ura.start_date`
	out := make([]models.UserRoleAssignment, 0)
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return out, nil
}

// ReplaceRoleAssignments swaps a user's grants in one transaction.
func (r *UserRepository) ReplaceRoleAssignments(ctx context.Context, userID string, assignments []models.UserRoleAssignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace role assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_role_assignments WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear role assignments: %w", err)
	}
	const insert = `INSERT INTO user_role_assignments (id, user_id, role_id, department_id, start_date, end_date, is_active, created_by, created_at)
VALUES (:id, :user_id, :role_id, :department_id, :start_date, :end_date, :is_active, :created_by, :created_at)`
	for i := range assignments {
		a := &assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.UserID = userID
		if _, err = tx.NamedExecContext(ctx, insert, a); err != nil {
			return fmt.Errorf("insert role assignment: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit role assignments: %w", err)
	}
	return nil
}

// ListRoles returns every role.
func (r *UserRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT id, name, description, permissions, is_active, created_at, updated_at FROM roles ORDER BY name`
	out := make([]models.Role, 0)
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return out, nil
}

// FindRoleByName returns a role by name.
func (r *UserRepository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	const query = `SELECT id, name, description, permissions, is_active, created_at, updated_at FROM roles WHERE name = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

// UpsertRole creates a role or refreshes its permission matrix by name.
func (r *UserRepository) UpsertRole(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	const query = `INSERT INTO roles (id, name, description, permissions, is_active, created_at, updated_at)
VALUES (:id, :name, :description, :permissions, :is_active, :created_at, :updated_at)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, permissions = EXCLUDED.permissions,
is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, role)
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&role.ID); err != nil {
			return fmt.Errorf("scan role id: %w", err)
		}
	}
	return rows.Err()
}
