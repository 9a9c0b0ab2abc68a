package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/repository"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/export"
	"github.com/bps-secretariat/bps-inventory/pkg/jobs"
	"github.com/bps-secretariat/bps-inventory/pkg/storage"
)

// JobTypeReportExport identifies queued report exports.
const JobTypeReportExport = "report_export"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, update repository.JobUpdate) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	ClearResult(ctx context.Context, id string) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type reportDatasetBuilder interface {
	Dataset(ctx context.Context, reportType models.ReportType, params models.ReportJobParams) (export.Dataset, string, error)
}

// ReportServiceConfig governs preview caching, queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	PreviewTTL      time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ReportService serves report previews and manages the export job lifecycle.
type ReportService struct {
	repo      reportJobStore
	queue     jobDispatcher
	exporter  *ExportService
	datasets  reportDatasetBuilder
	cache     *CacheService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, queue jobDispatcher, exporter *ExportService, cache *CacheService, audit *AuditService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = time.Hour
	}
	svc := &ReportService{
		repo:      repo,
		queue:     queue,
		exporter:  exporter,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	if exporter != nil {
		svc.datasets = exporter
	}
	return svc
}

// Preview returns the report as JSON rows. Identical requests from the same scope share
// a cached copy for PreviewTTL.
func (s *ReportService) Preview(ctx context.Context, perms *models.EffectivePermissions, reportType models.ReportType, filters models.ReportFilters) (*models.ReportPreview, bool, error) {
	params, err := s.authorize(perms, reportType, models.ReportFormatCSV, filters, false)
	if err != nil {
		return nil, false, err
	}
	key, err := previewKey(reportType, params)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build preview key")
	}
	var cached models.ReportPreview
	if s.cache.Lookup(ctx, key, &cached) {
		return &cached, true, nil
	}

	dataset, _, err := s.datasets.Dataset(ctx, reportType, params)
	if err != nil {
		return nil, false, err
	}
	preview := &models.ReportPreview{
		Type:        reportType,
		Headers:     dataset.Headers,
		Rows:        dataset.Rows,
		Total:       len(dataset.Rows),
		GeneratedAt: s.now().UTC(),
	}
	s.cache.Store(ctx, key, preview, s.cfg.PreviewTTL)
	return preview, false, nil
}

// CreateJob persists an export job capturing the caller's scope and enqueues it.
func (s *ReportService) CreateJob(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, reportType models.ReportType, req dto.ReportExportRequest) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	params, err := s.authorize(perms, reportType, req.Format, req.Filters, true)
	if err != nil {
		return nil, err
	}
	if reportType == models.ReportTypeCustom {
		if _, err := customColumns(req.Filters.Columns); err != nil {
			return nil, err
		}
	}
	job := &models.ReportJob{
		Type:      reportType,
		Params:    params,
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.UserID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeReportExport}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := s.now().UTC()
		progress := 100
		if updateErr := s.repo.Update(ctx, job.ID, repository.JobUpdate{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to its creator and to system administrators.
func (s *ReportService) GetStatus(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "report job", "load report job")
	}
	if job.CreatedBy != actor.UserID && (perms == nil || !perms.Has(models.PermSystemAdmin)) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	resp := &dto.ReportStatusResponse{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	grant, err := s.exporter.VerifyToken(token, false)
	if errors.Is(err, storage.ErrTokenExpired) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired; export the report again")
	}
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.repo.GetByID(ctx, grant.JobID)
	if err != nil {
		return nil, repoError(err, "report job", "load report job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  ReportFilename(job.Type) + "." + string(job.Params.Format),
		Format:    job.Params.Format,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued and interrupted jobs after a process restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued report jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeReportExport}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Sugar().Warnw("cleanup list failed", "error", err)
		return
	}
	for _, job := range finished {
		if job.ResultURL == nil {
			continue
		}
		// an unreadable token leaves the file to the filesystem sweep below
		if grant, err := s.exporter.VerifyToken(extractToken(*job.ResultURL), true); err == nil {
			if err := s.exporter.Delete(grant.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
				continue
			}
		}
		if err := s.repo.ClearResult(ctx, job.ID); err != nil {
			s.logger.Sugar().Warnw("cleanup clear result failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

// authorize checks report permissions and captures the caller's department scope.
func (s *ReportService) authorize(perms *models.EffectivePermissions, reportType models.ReportType, format models.ReportFormat, filters models.ReportFilters, exporting bool) (models.ReportJobParams, error) {
	if !reportType.Valid() {
		return models.ReportJobParams{}, appErrors.Clone(appErrors.ErrNotFound, "unknown report type")
	}
	if perms == nil || !perms.Has(models.PermGenerateReports) {
		return models.ReportJobParams{}, appErrors.Clone(appErrors.ErrForbidden, "missing permission can_generate_reports")
	}
	if exporting && !perms.Has(models.PermExportData) {
		return models.ReportJobParams{}, appErrors.Clone(appErrors.ErrForbidden, "missing permission can_export_data")
	}
	if reportType == models.ReportTypeAudit && !perms.Has(models.PermSystemAdmin) {
		return models.ReportJobParams{}, appErrors.Clone(appErrors.ErrForbidden, "audit reports require can_system_admin")
	}
	departmentIDs, restricted := scopeOf(perms)
	if restricted && filters.DepartmentID != "" && !perms.InScope(&filters.DepartmentID) {
		return models.ReportJobParams{}, appErrors.Field("filters.departmentId", "outside your departments")
	}
	return models.ReportJobParams{
		Format:        format,
		Filters:       filters,
		Restricted:    restricted,
		DepartmentIDs: departmentIDs,
		Financial:     perms.Has(models.PermViewFinancialData),
	}, nil
}

func previewKey(reportType models.ReportType, params models.ReportJobParams) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s%s:%s", cacheKeyReportPrefix, reportType, hex.EncodeToString(sum[:12])), nil
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	audit      *AuditService
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
	timeout    time.Duration
	now        func() time.Time
}

// NewReportWorker constructs a worker. timeout bounds one generation attempt.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, audit *AuditService, metrics *MetricsService, maxRetries int, timeout time.Duration, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		audit:      audit,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Handle processes a queue job. Oversized datasets and timeouts fail the job at once;
// other errors are returned so the queue retries until maxRetries.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.JobUpdate{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	genCtx, cancel := context.WithTimeout(ctx, w.timeout)
	result, err := w.exporter.Generate(genCtx, record)
	cancel()
	if err != nil {
		msg := err.Error()
		terminal := errors.Is(err, context.DeadlineExceeded) || genCtx.Err() != nil
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && (appErr.Code == appErrors.ErrReportTooLarge.Code || appErr.Code == appErrors.ErrValidation.Code) {
			terminal = true
		}
		if terminal && genCtx.Err() != nil {
			msg = fmt.Sprintf("report generation exceeded %s", w.timeout)
		}
		if terminal || job.Attempt >= w.maxRetries {
			w.fail(ctx, record, msg)
			if terminal {
				return nil
			}
			return jobs.Permanent(err)
		}
		queued := models.ReportStatusQueued
		reset := 0
		if updateErr := w.repo.Update(ctx, job.ID, repository.JobUpdate{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
		}
		return err
	}

	finished := models.ReportStatusFinished
	progress = 100
	now := w.now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.JobUpdate{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	w.metrics.RecordReportJob(record.Type, models.ReportStatusFinished)

	changes := changeSet{}
	changes.add("format", nil, string(record.Params.Format))
	changes.add("rows", nil, result.Rows)
	changes.add("truncated", false, result.Truncated)
	w.audit.Record(ctx, models.Actor{UserID: record.CreatedBy}, AuditEntry{
		Action:     models.AuditActionExport,
		ModelName:  "Report",
		ObjectID:   record.ID,
		ObjectRepr: ReportFilename(record.Type),
		Changes:    changes.fields(),
	})
	return nil
}

func (w *ReportWorker) fail(ctx context.Context, record *models.ReportJob, msg string) {
	failed := models.ReportStatusFailed
	progress := 100
	now := w.now().UTC()
	if err := w.repo.Update(ctx, record.ID, repository.JobUpdate{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job failed", "job_id", record.ID, "error", err)
	}
	w.metrics.RecordReportJob(record.Type, models.ReportStatusFailed)
}
