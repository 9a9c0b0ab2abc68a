package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const staffColumns = `s.id, s.employee_id, s.full_name, s.designation, s.department_id, d.name AS department_name,
s.phone, s.email, s.joining_date, s.leaving_date, s.is_active, s.last_activity, s.user_id, s.created_at, s.updated_at`

const staffFrom = ` FROM staff s JOIN departments d ON d.id = s.department_id`

// StaffRepository persists staff members.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs the repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff matching the filter and the total count.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("s.department_id = ?", filter.DepartmentID)
	}
	if filter.Restricted {
		where.scope("s.department_id", filter.DepartmentIDs)
	}
	if filter.Active != nil {
		where.add("s.is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		where.add("(LOWER(s.full_name) LIKE ? OR LOWER(s.employee_id) LIKE ?)", likePattern(filter.Search))
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s%s%s ORDER BY s.full_name ASC LIMIT %d OFFSET %d", staffColumns, staffFrom, where.clause(), limit, offset)
	staff := make([]models.Staff, 0)
	if err := r.db.SelectContext(ctx, &staff, listQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+staffFrom+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}
	return staff, total, nil
}

// FindByRef returns a staff member by row id or employee id.
func (r *StaffRepository) FindByRef(ctx context.Context, ref string) (*models.Staff, error) {
	query := "SELECT " + staffColumns + staffFrom + " WHERE s.id = $1 OR s.employee_id = $1 LIMIT 1"
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, ref); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff: %w", err)
	}
	return &staff, nil
}

// FindByUserID returns the staff record linked to a login.
func (r *StaffRepository) FindByUserID(ctx context.Context, userID string) (*models.Staff, error) {
	query := "SELECT " + staffColumns + staffFrom + " WHERE s.user_id = $1 LIMIT 1"
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by user: %w", err)
	}
	return &staff, nil
}

// Create inserts a staff member.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	const query = `INSERT INTO staff (id, employee_id, full_name, designation, department_id, phone, email, joining_date, leaving_date, is_active, user_id, created_at, updated_at)
VALUES (:id, :employee_id, :full_name, :designation, :department_id, :phone, :email, :joining_date, :leaving_date, :is_active, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return translateUnique(err, "create staff")
	}
	return nil
}

// Update persists mutable staff fields.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	const query = `UPDATE staff SET full_name = :full_name, designation = :designation, department_id = :department_id, phone = :phone,
email = :email, user_id = :user_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return translateUnique(err, "update staff")
	}
	return nil
}

// Deactivate marks a staff member as having left.
func (r *StaffRepository) Deactivate(ctx context.Context, id string, leavingDate, at time.Time) error {
	const query = `UPDATE staff SET is_active = FALSE, leaving_date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, leavingDate, at); err != nil {
		return fmt.Errorf("deactivate staff: %w", err)
	}
	return nil
}

// Delete removes a staff member that never held an assignment.
func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return nil
}

// CountAssignments returns active and total assignment counts for a staff member.
func (r *StaffRepository) CountAssignments(ctx context.Context, id string) (active int, total int, err error) {
	const query = `SELECT COUNT(*) FILTER (WHERE is_active) AS active, COUNT(*) AS total FROM assignments WHERE assigned_to_staff_id = $1`
	var counts struct {
		Active int `db:"active"`
		Total  int `db:"total"`
	}
	if err := r.db.GetContext(ctx, &counts, query, id); err != nil {
		return 0, 0, fmt.Errorf("count staff assignments: %w", err)
	}
	return counts.Active, counts.Total, nil
}

// ListCleanupCandidates returns inactive staff who left before cutoff and still hold assignments.
func (r *StaffRepository) ListCleanupCandidates(ctx context.Context, cutoff time.Time) ([]models.Staff, error) {
	query := "SELECT " + staffColumns + staffFrom + ` WHERE NOT s.is_active AND s.leaving_date IS NOT NULL AND s.leaving_date < $1
AND EXISTS (SELECT 1 FROM assignments a WHERE a.assigned_to_staff_id = s.id AND a.is_active) ORDER BY s.leaving_date ASC`
	staff := make([]models.Staff, 0)
	if err := r.db.SelectContext(ctx, &staff, query, cutoff); err != nil {
		return nil, fmt.Errorf("list staff cleanup candidates: %w", err)
	}
	return staff, nil
}

// TouchActivity stamps last_activity on the staff record linked to a user.
func (r *StaffRepository) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE staff SET last_activity = $2 WHERE user_id = $1`, userID, at); err != nil {
		return fmt.Errorf("touch staff activity: %w", err)
	}
	return nil
}
