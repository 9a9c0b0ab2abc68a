package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

func TestSessionCloseOthersReturnsClosedIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	at := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND id <> $2 AND closed_at IS NULL RETURNING id")).
		WithArgs("u1", "keep", at, models.SessionClosedPasswordChange).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s2").AddRow("s3"))

	ids, err := repo.CloseOthers(context.Background(), "u1", "keep", models.SessionClosedPasswordChange, at)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s3"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionCloseKeepsFirstReason(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_sessions SET closed_at = $2, close_reason = $3 WHERE id = $1 AND closed_at IS NULL")).
		WithArgs("s1", at, models.SessionClosedIdle).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Close(context.Background(), "s1", models.SessionClosedIdle, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
