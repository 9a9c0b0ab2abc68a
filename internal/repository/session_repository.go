package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const sessionColumns = `id, user_id, remember_me, ip_address, user_agent, created_at, last_activity, expires_at, closed_at, close_reason`

// SessionRepository stores login sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	const query = `INSERT INTO user_sessions (` + sessionColumns + `)
VALUES (:id, :user_id, :remember_me, :ip_address, :user_agent, :created_at, :last_activity, :expires_at, :closed_at, :close_reason)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByID returns a session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.UserSession, error) {
	var session models.UserSession
	if err := r.db.GetContext(ctx, &session, `SELECT `+sessionColumns+` FROM user_sessions WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// Touch stamps last_activity on an open session.
func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE user_sessions SET last_activity = $2 WHERE id = $1 AND closed_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Close ends a session. Closing twice keeps the first reason.
func (r *SessionRepository) Close(ctx context.Context, id, reason string, at time.Time) error {
	const query = `UPDATE user_sessions SET closed_at = $2, close_reason = $3 WHERE id = $1 AND closed_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at, reason); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// CloseOthers ends every open session of a user except keepID, returning the closed ids.
func (r *SessionRepository) CloseOthers(ctx context.Context, userID, keepID, reason string, at time.Time) ([]string, error) {
	const query = `UPDATE user_sessions SET closed_at = $3, close_reason = $4
WHERE user_id = $1 AND id <> $2 AND closed_at IS NULL RETURNING id`
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, query, userID, keepID, at, reason); err != nil {
		return nil, fmt.Errorf("close other sessions: %w", err)
	}
	return ids, nil
}
