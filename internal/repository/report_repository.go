package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const reportJobColumns = `id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportRepository persists report export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a queued job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (` + reportJobColumns + `)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a job by id.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, `SELECT `+reportJobColumns+` FROM report_jobs WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// JobUpdate carries the mutable fields of a job; nil fields are left untouched.
type JobUpdate struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies a partial update. A missing job yields sql.ErrNoRows.
func (r *ReportRepository) Update(ctx context.Context, id string, update JobUpdate) error {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Status != nil {
		set("status", *update.Status)
	}
	if update.Progress != nil {
		set("progress", *update.Progress)
	}
	if update.ResultURL != nil {
		set("result_url", *update.ResultURL)
	}
	if update.ErrorMessage != nil {
		set("error_message", *update.ErrorMessage)
	}
	if update.FinishedAt != nil {
		set("finished_at", *update.FinishedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUnfinished returns queued jobs and jobs a previous process left in PROCESSING,
// oldest first, for re-enqueueing on start.
func (r *ReportRepository) ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs
WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1`
	jobs := make([]models.ReportJob, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list unfinished report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs that still reference an export file.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs
WHERE status = 'FINISHED' AND result_url IS NOT NULL AND finished_at IS NOT NULL AND finished_at < $1
ORDER BY finished_at ASC LIMIT $2`
	jobs := make([]models.ReportJob, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished report jobs: %w", err)
	}
	return jobs, nil
}

// ClearResult drops the download link once its file has been removed.
func (r *ReportRepository) ClearResult(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET result_url = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clear report result: %w", err)
	}
	return nil
}
