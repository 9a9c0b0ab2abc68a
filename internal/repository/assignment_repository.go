package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/pkg/database"
)

const assignmentIDRetries = 5

const assignmentColumns = `a.id, a.assignment_id, a.device_id, a.assigned_to_staff_id, a.assigned_to_department_id, a.assigned_to_location_id,
a.assignment_type, a.purpose, a.conditions, a.notes, a.is_temporary, a.start_date, a.expected_return_date, a.actual_return_date,
a.return_condition, a.return_notes, a.is_active, a.created_by, a.requested_by, a.approved_by, a.updated_by, a.created_at, a.updated_at`

const assignmentDetailFrom = ` FROM assignments a
JOIN devices d ON d.id = a.device_id
LEFT JOIN staff st ON st.id = a.assigned_to_staff_id
LEFT JOIN locations l ON l.id = a.assigned_to_location_id
LEFT JOIN rooms r ON r.id = l.room_id
LEFT JOIN departments dp ON dp.id = COALESCE(a.assigned_to_department_id, st.department_id, r.department_id)`

const assignmentScopeExpr = `COALESCE(a.assigned_to_department_id, st.department_id, r.department_id)`

var assignmentDetailSelect = "SELECT " + assignmentColumns + `, d.device_id AS device_code, d.device_name,
st.employee_id AS staff_employee_id, st.full_name AS staff_name, dp.name AS department_name,
` + assignmentScopeExpr + ` AS scope_department_id, l.code AS location_code` + assignmentDetailFrom

// AssignmentRepository persists assignments. Write methods take the caller's
// transaction so one lifecycle transition commits atomically.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// BeginTxx opens a transaction for a lifecycle transition.
func (r *AssignmentRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// FindByRef loads an assignment by row id or assignment id, locking it when forUpdate is set.
func (r *AssignmentRepository) FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments a WHERE a.id = $1 OR a.assignment_id = $1 LIMIT 1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var assignment models.Assignment
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &assignment, query, ref); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// ActiveForDevice returns the active assignment of a device.
func (r *AssignmentRepository) ActiveForDevice(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments a WHERE a.device_id = $1 AND a.is_active LIMIT 1"
	var assignment models.Assignment
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &assignment, query, deviceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active assignment: %w", err)
	}
	return &assignment, nil
}

// CountActiveForStaff returns how many active assignments a staff member holds.
func (r *AssignmentRepository) CountActiveForStaff(ctx context.Context, exec sqlx.ExtContext, staffID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM assignments WHERE assigned_to_staff_id = $1 AND is_active`
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &count, query, staffID); err != nil {
		return 0, fmt.Errorf("count staff assignments: %w", err)
	}
	return count, nil
}

// Create inserts an assignment with a generated ASN-YYYYMMDD-NNNN id. Each attempt runs
// under a savepoint so a lost id race can be retried without aborting the transaction.
func (r *AssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	const insert = `INSERT INTO assignments (id, assignment_id, device_id, assigned_to_staff_id, assigned_to_department_id, assigned_to_location_id,
assignment_type, purpose, conditions, notes, is_temporary, start_date, expected_return_date, is_active, created_by, requested_by, approved_by,
updated_by, created_at, updated_at)
VALUES (:id, :assignment_id, :device_id, :assigned_to_staff_id, :assigned_to_department_id, :assigned_to_location_id,
:assignment_type, :purpose, :conditions, :notes, :is_temporary, :start_date, :expected_return_date, :is_active, :created_by, :requested_by,
:approved_by, :updated_by, :created_at, :updated_at)`
	target := pickExec(r.db, exec)
	prefix := "ASN-" + assignment.CreatedAt.Format("20060102") + "-"

	var lastErr error
	for attempt := 0; attempt < assignmentIDRetries; attempt++ {
		var current int
		const seqQuery = `SELECT COALESCE(MAX(CAST(SUBSTRING(assignment_id FROM 14) AS INTEGER)), 0) FROM assignments WHERE assignment_id LIKE $1`
		if err := sqlx.GetContext(ctx, target, &current, seqQuery, prefix+"%"); err != nil {
			return fmt.Errorf("scan assignment id sequence: %w", err)
		}
		assignment.AssignmentID = fmt.Sprintf("%s%04d", prefix, current+1)

		if _, err := target.ExecContext(ctx, "SAVEPOINT assignment_insert"); err != nil {
			return fmt.Errorf("savepoint assignment insert: %w", err)
		}
		_, err := sqlx.NamedExecContext(ctx, target, insert, assignment)
		if err == nil {
			if _, err := target.ExecContext(ctx, "RELEASE SAVEPOINT assignment_insert"); err != nil {
				return fmt.Errorf("release assignment savepoint: %w", err)
			}
			return nil
		}
		if _, rbErr := target.ExecContext(ctx, "ROLLBACK TO SAVEPOINT assignment_insert"); rbErr != nil {
			return fmt.Errorf("rollback assignment savepoint: %w", rbErr)
		}
		if constraint, ok := database.UniqueViolation(err); ok && constraint == "assignments_assignment_id_key" {
			lastErr = err
			continue
		}
		return translateUnique(err, "create assignment")
	}
	return translateUnique(lastErr, "create assignment")
}

// UpdateTarget rewrites the recipient of an active assignment.
func (r *AssignmentRepository) UpdateTarget(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	const query = `UPDATE assignments SET assigned_to_staff_id = :assigned_to_staff_id, assigned_to_department_id = :assigned_to_department_id,
assigned_to_location_id = :assigned_to_location_id, assignment_type = :assignment_type, updated_by = :updated_by, updated_at = :updated_at
WHERE id = :id AND is_active`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, assignment); err != nil {
		return fmt.Errorf("update assignment target: %w", err)
	}
	return nil
}

// Close ends an assignment as returned.
func (r *AssignmentRepository) Close(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	const query = `UPDATE assignments SET is_active = FALSE, actual_return_date = :actual_return_date, return_condition = :return_condition,
return_notes = :return_notes, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id AND is_active`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, assignment); err != nil {
		return fmt.Errorf("close assignment: %w", err)
	}
	return nil
}

// UpdateExpectedReturn moves the expected return date.
func (r *AssignmentRepository) UpdateExpectedReturn(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	const query = `UPDATE assignments SET expected_return_date = :expected_return_date, updated_by = :updated_by, updated_at = :updated_at
WHERE id = :id AND is_active`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, assignment); err != nil {
		return fmt.Errorf("extend assignment: %w", err)
	}
	return nil
}

// FindDetail returns an assignment with display joins.
func (r *AssignmentRepository) FindDetail(ctx context.Context, ref string) (*models.AssignmentDetail, error) {
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, assignmentDetailSelect+" WHERE a.id = $1 OR a.assignment_id = $1 LIMIT 1", ref); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment detail: %w", err)
	}
	return &detail, nil
}

// List returns assignments matching filter and the total count.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter, today time.Time) ([]models.AssignmentDetail, int, error) {
	var where whereBuilder
	if filter.DeviceID != "" {
		where.add("(d.id = ? OR d.device_id = ?)", filter.DeviceID)
	}
	if filter.StaffID != "" {
		where.add("(st.id = ? OR st.employee_id = ?)", filter.StaffID)
	}
	if filter.DepartmentID != "" {
		where.add(assignmentScopeExpr+" = ?", filter.DepartmentID)
	}
	if filter.LocationID != "" {
		where.add("a.assigned_to_location_id = ?", filter.LocationID)
	}
	if filter.Active != nil {
		where.add("a.is_active = ?", *filter.Active)
	}
	if filter.Type != "" {
		where.add("a.assignment_type = ?", filter.Type)
	}
	if filter.Overdue {
		where.add("a.is_active AND a.is_temporary AND a.actual_return_date IS NULL AND a.expected_return_date < ?", today)
	}
	if filter.Search != "" {
		where.add("(LOWER(a.assignment_id) LIKE ? OR LOWER(d.device_id) LIKE ? OR LOWER(d.device_name) LIKE ? OR LOWER(COALESCE(st.full_name, '')) LIKE ?)", likePattern(filter.Search))
	}
	if filter.Restricted {
		where.scope(assignmentScopeExpr, filter.DepartmentIDs)
	}

	order := "a.created_at DESC"
	if filter.Overdue {
		order = "a.expected_return_date ASC"
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", assignmentDetailSelect, where.clause(), order, limit, offset)
	out := make([]models.AssignmentDetail, 0)
	if err := r.db.SelectContext(ctx, &out, listQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+assignmentDetailFrom+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return out, total, nil
}

// ListOverdue returns every overdue assignment ordered by expected return date.
func (r *AssignmentRepository) ListOverdue(ctx context.Context, today time.Time, departmentIDs []string, restricted bool) ([]models.AssignmentDetail, error) {
	var where whereBuilder
	where.add("a.is_active AND a.is_temporary AND a.actual_return_date IS NULL AND a.expected_return_date < ?", today)
	if restricted {
		where.scope(assignmentScopeExpr, departmentIDs)
	}
	out := make([]models.AssignmentDetail, 0)
	query := assignmentDetailSelect + where.clause() + " ORDER BY a.expected_return_date ASC, a.assignment_id ASC"
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("list overdue assignments: %w", err)
	}
	return out, nil
}

// ListActiveForStaff returns a staff member's active assignments.
func (r *AssignmentRepository) ListActiveForStaff(ctx context.Context, staffID string) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments a WHERE a.assigned_to_staff_id = $1 AND a.is_active ORDER BY a.start_date"
	out := make([]models.Assignment, 0)
	if err := r.db.SelectContext(ctx, &out, query, staffID); err != nil {
		return nil, fmt.Errorf("list staff active assignments: %w", err)
	}
	return out, nil
}

// ListDueBetween returns active temporary assignments due within [from, to].
func (r *AssignmentRepository) ListDueBetween(ctx context.Context, from, to time.Time, departmentIDs []string, restricted bool) ([]models.AssignmentDetail, error) {
	var where whereBuilder
	where.add("a.is_active AND a.is_temporary AND a.expected_return_date >= ?", from)
	where.add("a.expected_return_date <= ?", to)
	if restricted {
		where.scope(assignmentScopeExpr, departmentIDs)
	}
	out := make([]models.AssignmentDetail, 0)
	if err := r.db.SelectContext(ctx, &out, assignmentDetailSelect+where.clause()+" ORDER BY a.expected_return_date ASC", where.args...); err != nil {
		return nil, fmt.Errorf("list assignments due: %w", err)
	}
	return out, nil
}
