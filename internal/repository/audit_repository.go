package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const auditColumns = `id, user_id, action, model_name, object_id, object_repr, changes, ip_address, user_agent, timestamp`

// AuditRepository stores the append-only audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	const query = `INSERT INTO audit_logs (` + auditColumns + `)
VALUES (:id, :user_id, :action, :model_name, :object_id, :object_repr, :changes, :ip_address, :user_agent, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func auditWhere(filter models.AuditFilter) whereBuilder {
	var where whereBuilder
	if filter.UserID != "" {
		where.add("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		where.add("action = ?", filter.Action)
	}
	if filter.ModelName != "" {
		where.add("model_name = ?", filter.ModelName)
	}
	if filter.ObjectID != "" {
		where.add("object_id = ?", filter.ObjectID)
	}
	if filter.From != nil {
		where.add("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		where.add("timestamp <= ?", *filter.To)
	}
	if filter.Before != nil {
		where.add("timestamp < ?", *filter.Before)
	}
	return where
}

// List returns newest-first audit entries and the total count.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	where := auditWhere(filter)
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM audit_logs%s ORDER BY timestamp DESC LIMIT %d OFFSET %d", auditColumns, where.clause(), limit, offset)
	out := make([]models.AuditLog, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_logs"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return out, total, nil
}

// Export streams every entry matching filter oldest-first, capped at limit rows.
func (r *AuditRepository) Export(ctx context.Context, filter models.AuditFilter, limit int) ([]models.AuditLog, error) {
	where := auditWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM audit_logs%s ORDER BY timestamp ASC LIMIT %d", auditColumns, where.clause(), limit)
	out := make([]models.AuditLog, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("export audit logs: %w", err)
	}
	return out, nil
}
