package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const maintenanceColumns = `m.id, m.device_id, m.maintenance_type, m.title, m.description, m.scheduled_date, m.scheduled_time, m.status,
m.estimated_cost, m.actual_cost, m.vendor_id, m.technician, m.completion_date, m.parts_used, m.work_performed, m.created_by,
m.created_at, m.updated_at`

var maintenanceSelect = "SELECT " + maintenanceColumns + `, d.device_id AS device_code, d.device_name
FROM maintenance_schedules m JOIN devices d ON d.id = m.device_id`

// MaintenanceRepository stores maintenance schedules.
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository constructs the repository.
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// BeginTxx opens a transaction for status changes that also touch the device.
func (r *MaintenanceRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// Create inserts a schedule.
func (r *MaintenanceRepository) Create(ctx context.Context, m *models.MaintenanceSchedule) error {
	const query = `INSERT INTO maintenance_schedules (id, device_id, maintenance_type, title, description, scheduled_date, scheduled_time,
status, estimated_cost, actual_cost, vendor_id, technician, completion_date, parts_used, work_performed, created_by, created_at, updated_at)
VALUES (:id, :device_id, :maintenance_type, :title, :description, :scheduled_date, :scheduled_time, :status, :estimated_cost,
:actual_cost, :vendor_id, :technician, :completion_date, :parts_used, :work_performed, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create maintenance: %w", err)
	}
	return nil
}

// FindByID loads a schedule, locking it when forUpdate is set.
func (r *MaintenanceRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.MaintenanceSchedule, error) {
	query := maintenanceSelect + " WHERE m.id = $1"
	if forUpdate {
		query += " FOR UPDATE OF m"
	}
	var m models.MaintenanceSchedule
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find maintenance: %w", err)
	}
	return &m, nil
}

// Save writes the mutable fields back.
func (r *MaintenanceRepository) Save(ctx context.Context, exec sqlx.ExtContext, m *models.MaintenanceSchedule) error {
	const query = `UPDATE maintenance_schedules SET status = :status, scheduled_date = :scheduled_date, scheduled_time = :scheduled_time,
actual_cost = :actual_cost, technician = :technician, completion_date = :completion_date, parts_used = :parts_used,
work_performed = :work_performed, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, m); err != nil {
		return fmt.Errorf("update maintenance: %w", err)
	}
	return nil
}

// List returns schedules matching filter, soonest first.
func (r *MaintenanceRepository) List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceSchedule, int, error) {
	var where whereBuilder
	if filter.DeviceID != "" {
		where.add("(d.id = ? OR d.device_id = ?)", filter.DeviceID)
	}
	if filter.Status != "" {
		where.add("m.status = ?", filter.Status)
	}
	if filter.Type != "" {
		where.add("m.maintenance_type = ?", filter.Type)
	}
	if filter.DateFrom != nil {
		where.add("m.scheduled_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where.add("m.scheduled_date <= ?", *filter.DateTo)
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s ORDER BY m.scheduled_date ASC, m.created_at ASC LIMIT %d OFFSET %d", maintenanceSelect, where.clause(), limit, offset)
	out := make([]models.MaintenanceSchedule, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list maintenance: %w", err)
	}
	var total int
	countQuery := "SELECT COUNT(*) FROM maintenance_schedules m JOIN devices d ON d.id = m.device_id" + where.clause()
	if err := r.db.GetContext(ctx, &total, countQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count maintenance: %w", err)
	}
	return out, total, nil
}

// ListOpenUntil returns scheduled or postponed work due on or before until, overdue items first.
func (r *MaintenanceRepository) ListOpenUntil(ctx context.Context, until time.Time) ([]models.MaintenanceSchedule, error) {
	query := maintenanceSelect + ` WHERE m.status IN ('SCHEDULED', 'POSTPONED') AND m.scheduled_date <= $1 ORDER BY m.scheduled_date ASC`
	out := make([]models.MaintenanceSchedule, 0)
	if err := r.db.SelectContext(ctx, &out, query, until); err != nil {
		return nil, fmt.Errorf("list open maintenance: %w", err)
	}
	return out, nil
}
