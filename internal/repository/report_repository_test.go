package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WithArgs(sqlmock.AnyArg(), "inventory", sqlmock.AnyArg(), "QUEUED", 0, nil, "user-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ReportJob{
		Type:      models.ReportTypeInventory,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV, Filters: models.ReportFilters{Status: "AVAILABLE"}},
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	rows := sqlmock.NewRows([]string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}).
		AddRow(job.ID, "inventory", `{"format":"csv","filters":{"status":"AVAILABLE"},"restricted":true,"departmentIds":["d1"]}`, "QUEUED", 0, nil, "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reportJobColumns + " FROM report_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, fetched.ID)
	require.Equal(t, "AVAILABLE", fetched.Params.Filters.Status)
	require.True(t, fetched.Params.Restricted)
	require.Equal(t, []string{"d1"}, fetched.Params.DepartmentIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("FROM report_jobs WHERE id").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	status := models.ReportStatusFinished
	progress := 100
	result := "/reports/download/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", JobUpdate{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	require.NoError(t, repo.Update(context.Background(), "job-1", JobUpdate{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateMissingJob(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	progress := 50
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET progress = $1 WHERE id = $2")).
		WithArgs(progress, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "gone", JobUpdate{Progress: &progress})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryListUnfinished(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", "warranty", `{"format":"pdf"}`, "PROCESSING", 10, nil, "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('QUEUED', 'PROCESSING')")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListUnfinished(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, models.ReportStatusProcessing, jobs[0].Status)
	require.Equal(t, models.ReportFormatPDF, jobs[0].Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryClearResult(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET result_url = NULL WHERE id = $1")).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ClearResult(context.Background(), "job-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
