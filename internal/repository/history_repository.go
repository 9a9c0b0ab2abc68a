package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

// HistoryRepository appends and reads assignment lifecycle events.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append writes one history row inside the caller's transaction.
func (r *HistoryRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AssignmentHistory) error {
	const query = `INSERT INTO assignment_history (id, assignment_id, device_id, action, previous_staff_id, previous_department_id,
previous_location_id, new_staff_id, new_department_id, new_location_id, reason, changed_by, changed_at)
VALUES (:id, :assignment_id, :device_id, :action, :previous_staff_id, :previous_department_id, :previous_location_id,
:new_staff_id, :new_department_id, :new_location_id, :reason, :changed_by, :changed_at)`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, entry); err != nil {
		return fmt.Errorf("append assignment history: %w", err)
	}
	return nil
}

const historyColumns = `h.id, h.assignment_id, h.device_id, h.action, h.previous_staff_id, h.previous_department_id, h.previous_location_id,
h.new_staff_id, h.new_department_id, h.new_location_id, h.reason, h.changed_by, h.changed_at`

// ListByDevice returns the newest-first history of a device.
func (r *HistoryRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.AssignmentHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + historyColumns + " FROM assignment_history h WHERE h.device_id = $1 ORDER BY h.changed_at DESC LIMIT $2"
	out := make([]models.AssignmentHistory, 0)
	if err := r.db.SelectContext(ctx, &out, query, deviceID, limit); err != nil {
		return nil, fmt.Errorf("list device history: %w", err)
	}
	return out, nil
}

// ListByAssignment returns the events of one assignment in order.
func (r *HistoryRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentHistory, error) {
	query := "SELECT " + historyColumns + " FROM assignment_history h WHERE h.assignment_id = $1 ORDER BY h.changed_at ASC"
	out := make([]models.AssignmentHistory, 0)
	if err := r.db.SelectContext(ctx, &out, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment history: %w", err)
	}
	return out, nil
}
