package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

// ReportDatasetRepository reads the flat rows behind each report. Every query returns
// at most scope.Limit rows so callers can detect oversize datasets with Limit = max+1.
type ReportDatasetRepository struct {
	db *sqlx.DB
}

// NewReportDatasetRepository constructs the repository.
func NewReportDatasetRepository(db *sqlx.DB) *ReportDatasetRepository {
	return &ReportDatasetRepository{db: db}
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func (r *ReportDatasetRepository) deviceReportWhere(scope models.ReportScope, dateColumn string) whereBuilder {
	var where whereBuilder
	if scope.DateFrom != nil {
		where.add(dateColumn+" >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		where.add(dateColumn+" <= ?", *scope.DateTo)
	}
	if scope.Filters.Status != "" {
		where.add("d.status = ?", scope.Filters.Status)
	}
	if scope.Filters.CategoryID != "" {
		where.add("(c.id = ? OR c.code = ?)", scope.Filters.CategoryID)
	}
	if scope.Filters.DepartmentID != "" {
		where.add(deviceScopeExpr+" = ?", scope.Filters.DepartmentID)
	}
	if scope.Restricted {
		where.scope(deviceScopeExpr, scope.DepartmentIDs)
	}
	return where
}

// Inventory returns the inventory export rows ordered by device id.
func (r *ReportDatasetRepository) Inventory(ctx context.Context, scope models.ReportScope) ([]models.InventoryRow, error) {
	where := r.deviceReportWhere(scope, "d.created_at")
	query := `SELECT d.device_id, d.asset_tag, d.device_name, c.name AS category, t.name AS type, d.brand, d.model, d.serial_number,
d.status, d.condition, d.purchase_date, d.purchase_price, v.name AS vendor, d.warranty_end_date,
CASE WHEN l.id IS NULL THEN NULL ELSE bd.code || '/' || b.code || '/F' || f.floor_number || '/' || ld.code || '/' || r.room_number || '/' || l.code END AS current_location,
CASE WHEN a.id IS NULL THEN NULL ELSE a.assignment_id || ' - ' || COALESCE(st.full_name, ad.name, al.code, '') END AS current_assignment,
d.created_at` + deviceDetailFrom + where.clause() + " ORDER BY d.device_id" + limitClause(scope.Limit)
	out := make([]models.InventoryRow, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("inventory dataset: %w", err)
	}
	return out, nil
}

// Warranty returns devices with a warranty end date, soonest expiry first.
func (r *ReportDatasetRepository) Warranty(ctx context.Context, scope models.ReportScope) ([]models.WarrantyRow, error) {
	where := r.deviceReportWhere(scope, "d.warranty_end_date")
	where.addRaw("d.warranty_end_date IS NOT NULL")
	where.addRaw("d.status NOT IN ('RETIRED', 'DISPOSED')")
	query := `SELECT d.device_id, d.device_name, c.name AS category, v.name AS vendor, d.warranty_type, d.warranty_start_date,
d.warranty_end_date` + deviceDetailFrom + where.clause() + " ORDER BY d.warranty_end_date ASC, d.device_id" + limitClause(scope.Limit)
	out := make([]models.WarrantyRow, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("warranty dataset: %w", err)
	}
	return out, nil
}

// Assignments returns assignment rows by start date, newest first.
func (r *ReportDatasetRepository) Assignments(ctx context.Context, scope models.ReportScope) ([]models.AssignmentReportRow, error) {
	var where whereBuilder
	if scope.DateFrom != nil {
		where.add("a.start_date >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		where.add("a.start_date <= ?", *scope.DateTo)
	}
	switch scope.Filters.Status {
	case "active":
		where.addRaw("a.is_active")
	case "returned":
		where.addRaw("NOT a.is_active")
	case "overdue":
		where.add("a.is_active AND a.is_temporary AND a.actual_return_date IS NULL AND a.expected_return_date < ?", models.DateOnly(time.Now()))
	}
	if scope.Filters.DepartmentID != "" {
		where.add(assignmentScopeExpr+" = ?", scope.Filters.DepartmentID)
	}
	if scope.Restricted {
		where.scope(assignmentScopeExpr, scope.DepartmentIDs)
	}
	query := `SELECT a.assignment_id, d.device_id, d.device_name, st.full_name AS assigned_to, dp.name AS department, l.code AS location,
a.assignment_type, a.is_temporary, a.is_active, a.start_date, a.expected_return_date, a.actual_return_date` +
		assignmentDetailFrom + where.clause() + " ORDER BY a.start_date DESC, a.assignment_id DESC" + limitClause(scope.Limit)
	out := make([]models.AssignmentReportRow, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("assignments dataset: %w", err)
	}
	return out, nil
}

// Maintenance returns maintenance rows by scheduled date.
func (r *ReportDatasetRepository) Maintenance(ctx context.Context, scope models.ReportScope) ([]models.MaintenanceReportRow, error) {
	var where whereBuilder
	if scope.DateFrom != nil {
		where.add("m.scheduled_date >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		where.add("m.scheduled_date <= ?", *scope.DateTo)
	}
	if scope.Filters.Status != "" {
		where.add("m.status = ?", scope.Filters.Status)
	}
	if scope.Restricted {
		if len(scope.DepartmentIDs) == 0 {
			where.addRaw("FALSE")
		} else {
			where.add("m.device_id IN (SELECT d.id"+deviceDetailFrom+" WHERE "+deviceScopeExpr+" = ANY(?))", pqStrings(scope.DepartmentIDs))
		}
	}
	query := `SELECT d.device_id, m.title, m.maintenance_type, m.status, m.scheduled_date, m.completion_date, m.technician,
v.name AS vendor, m.estimated_cost, m.actual_cost
FROM maintenance_schedules m JOIN devices d ON d.id = m.device_id LEFT JOIN vendors v ON v.id = m.vendor_id` +
		where.clause() + " ORDER BY m.scheduled_date ASC, d.device_id" + limitClause(scope.Limit)
	out := make([]models.MaintenanceReportRow, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("maintenance dataset: %w", err)
	}
	return out, nil
}

// Audit returns audit rows newest first.
func (r *ReportDatasetRepository) Audit(ctx context.Context, scope models.ReportScope) ([]models.AuditReportRow, error) {
	var where whereBuilder
	if scope.DateFrom != nil {
		where.add("al.timestamp >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		where.add("al.timestamp < ?", scope.DateTo.AddDate(0, 0, 1))
	}
	if scope.Filters.Status != "" {
		where.add("al.action = ?", scope.Filters.Status)
	}
	if model := scope.Filters.Extras["model"]; model != "" {
		where.add("al.model_name = ?", model)
	}
	query := `SELECT al.timestamp, u.username, al.action, al.model_name, al.object_id, al.object_repr, al.ip_address
FROM audit_logs al LEFT JOIN users u ON u.id = al.user_id` + where.clause() + " ORDER BY al.timestamp DESC" + limitClause(scope.Limit)
	out := make([]models.AuditReportRow, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("audit dataset: %w", err)
	}
	return out, nil
}

// DepartmentUtilization aggregates staff and assignment counts per active department.
func (r *ReportDatasetRepository) DepartmentUtilization(ctx context.Context, scope models.ReportScope) ([]models.DepartmentUtilizationRow, error) {
	var where whereBuilder
	where.addRaw("dp.is_active")
	if scope.Filters.DepartmentID != "" {
		where.add("dp.id = ?", scope.Filters.DepartmentID)
	}
	if scope.Restricted {
		where.scope("dp.id", scope.DepartmentIDs)
	}
	args := append(where.args, models.DateOnly(time.Now()))
	today := fmt.Sprintf("$%d", len(args))
	query := `SELECT dp.code, dp.name,
(SELECT COUNT(*) FROM staff s WHERE s.department_id = dp.id AND s.is_active) AS active_staff,
(SELECT COUNT(*) FROM assignments a LEFT JOIN staff st ON st.id = a.assigned_to_staff_id
  LEFT JOIN locations l ON l.id = a.assigned_to_location_id LEFT JOIN rooms r ON r.id = l.room_id
  WHERE a.is_active AND ` + assignmentScopeExpr + ` = dp.id) AS active_assignments,
(SELECT COUNT(*) FROM assignments a LEFT JOIN staff st ON st.id = a.assigned_to_staff_id
  LEFT JOIN locations l ON l.id = a.assigned_to_location_id LEFT JOIN rooms r ON r.id = l.room_id
  WHERE a.is_active AND a.is_temporary AND a.expected_return_date < ` + today + `::date AND ` + assignmentScopeExpr + ` = dp.id) AS overdue
FROM departments dp` + where.clause() + " ORDER BY dp.code" + limitClause(scope.Limit)
	out := make([]models.DepartmentUtilizationRow, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("department utilization dataset: %w", err)
	}
	return out, nil
}
