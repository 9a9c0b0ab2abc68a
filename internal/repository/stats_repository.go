package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

// StatsRepository computes dashboard aggregates.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// DeviceStatusCounts groups devices by status within the caller's view.
func (r *StatsRepository) DeviceStatusCounts(ctx context.Context, restricted bool, departmentIDs []string) ([]models.StatusCount, error) {
	var where whereBuilder
	if restricted {
		where.scope(deviceScopeExpr, departmentIDs)
	}
	query := "SELECT d.status, COUNT(*) AS count" + deviceDetailFrom + where.clause() + " GROUP BY d.status ORDER BY d.status"
	out := make([]models.StatusCount, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("device status counts: %w", err)
	}
	return out, nil
}

// AssignmentCounts returns active and overdue assignment counts within the caller's view.
func (r *StatsRepository) AssignmentCounts(ctx context.Context, today time.Time, restricted bool, departmentIDs []string) (int, int, error) {
	var where whereBuilder
	where.addRaw("a.is_active")
	if restricted {
		where.scope(assignmentScopeExpr, departmentIDs)
	}
	args := append(where.args, today)
	query := fmt.Sprintf(`SELECT COUNT(*) AS active,
COUNT(*) FILTER (WHERE a.is_temporary AND a.actual_return_date IS NULL AND a.expected_return_date < $%d) AS overdue`, len(args)) +
		assignmentDetailFrom + where.clause()
	var counts struct {
		Active  int `db:"active"`
		Overdue int `db:"overdue"`
	}
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return 0, 0, fmt.Errorf("assignment counts: %w", err)
	}
	return counts.Active, counts.Overdue, nil
}

// WarrantyExpiring counts in-service devices whose warranty ends within [today, until].
func (r *StatsRepository) WarrantyExpiring(ctx context.Context, today, until time.Time, restricted bool, departmentIDs []string) (int, error) {
	var where whereBuilder
	where.add("d.warranty_end_date >= ?", today)
	where.add("d.warranty_end_date <= ?", until)
	where.addRaw("d.status NOT IN ('RETIRED', 'DISPOSED')")
	if restricted {
		where.scope(deviceScopeExpr, departmentIDs)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*)"+deviceDetailFrom+where.clause(), where.args...); err != nil {
		return 0, fmt.Errorf("warranty expiring count: %w", err)
	}
	return count, nil
}

// ExpiringWarranties lists devices whose warranty ends within [today, until].
func (r *StatsRepository) ExpiringWarranties(ctx context.Context, today, until time.Time, restricted bool, departmentIDs []string, limit int) ([]models.DeviceDetail, error) {
	var where whereBuilder
	where.add("d.warranty_end_date >= ?", today)
	where.add("d.warranty_end_date <= ?", until)
	where.addRaw("d.status NOT IN ('RETIRED', 'DISPOSED')")
	if restricted {
		where.scope(deviceScopeExpr, departmentIDs)
	}
	query := deviceDetailSelect + where.clause() + fmt.Sprintf(" ORDER BY d.warranty_end_date ASC LIMIT %d", limit)
	out := make([]models.DeviceDetail, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("list expiring warranties: %w", err)
	}
	return out, nil
}

// SystemStats returns organisation-wide totals.
func (r *StatsRepository) SystemStats(ctx context.Context, dayStart, dayEnd, maintenanceUntil time.Time) (*models.SystemStats, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM buildings WHERE is_active) AS buildings,
(SELECT COUNT(*) FROM departments WHERE is_active) AS departments,
(SELECT COUNT(*) FROM locations WHERE is_active) AS locations,
(SELECT COUNT(*) FROM staff WHERE is_active) AS active_staff,
(SELECT COUNT(*) FROM vendors WHERE is_active) AS vendors,
(SELECT COUNT(*) FROM devices WHERE status NOT IN ('RETIRED', 'DISPOSED')) AS devices,
(SELECT COUNT(*) FROM devices WHERE is_critical AND status NOT IN ('RETIRED', 'DISPOSED')) AS critical_devices,
(SELECT COUNT(*) FROM qr_code_scans WHERE timestamp >= $1 AND timestamp < $2) AS scans_today,
(SELECT COUNT(*) FROM maintenance_schedules WHERE status IN ('SCHEDULED', 'POSTPONED') AND scheduled_date <= $3) AS maintenance_due`
	var stats models.SystemStats
	if err := r.db.GetContext(ctx, &stats, query, dayStart, dayEnd, maintenanceUntil); err != nil {
		return nil, fmt.Errorf("system stats: %w", err)
	}
	return &stats, nil
}
