package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/export"
)

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
	Export(ctx context.Context, filter models.AuditFilter, limit int) ([]models.AuditLog, error)
}

// AuditEntry is what callers hand to the recorder.
type AuditEntry struct {
	Action     string
	ModelName  string
	ObjectID   string
	ObjectRepr string
	Changes    models.FieldChanges
}

// AuditService writes the append-only audit trail. Recording never fails the caller.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger, now: time.Now}
}

// Record appends an entry. Persistence failures are logged at WARN and swallowed.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, entry AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	changes := entry.Changes
	if changes == nil {
		changes = models.FieldChanges{}
	}
	log := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     actor.UserIDPtr(),
		Action:     entry.Action,
		ModelName:  entry.ModelName,
		ObjectID:   entry.ObjectID,
		ObjectRepr: truncateRepr(entry.ObjectRepr),
		Changes:    changes,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
		Timestamp:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log",
			zap.String("action", entry.Action),
			zap.String("model", entry.ModelName),
			zap.String("object_id", entry.ObjectID),
			zap.Error(err))
	}
}

// List returns paginated audit entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Export returns up to limit entries for offline archival.
func (s *AuditService) Export(ctx context.Context, filter models.AuditFilter, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 10000
	}
	logs, err := s.repo.Export(ctx, filter, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export audit logs")
	}
	return logs, nil
}

// ExportBefore returns entries older than the retention window. Nothing is deleted.
func (s *AuditService) ExportBefore(ctx context.Context, retentionDays, limit int) ([]models.AuditLog, error) {
	if retentionDays <= 0 {
		return nil, appErrors.Field("retention_days", "must be positive")
	}
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	return s.Export(ctx, models.AuditFilter{Before: &cutoff}, limit)
}

// AuditDataset flattens audit entries into an export dataset.
func AuditDataset(logs []models.AuditLog) export.Dataset {
	data := export.Dataset{
		Headers: []string{"timestamp", "user_id", "action", "model_name", "object_id", "object_repr", "changes", "ip_address", "user_agent"},
		Rows:    make([]map[string]string, 0, len(logs)),
	}
	for _, log := range logs {
		userID := ""
		if log.UserID != nil {
			userID = *log.UserID
		}
		changes := ""
		if len(log.Changes) > 0 {
			if raw, err := json.Marshal(log.Changes); err == nil {
				changes = string(raw)
			}
		}
		data.Rows = append(data.Rows, map[string]string{
			"timestamp":   log.Timestamp.UTC().Format(time.RFC3339),
			"user_id":     userID,
			"action":      log.Action,
			"model_name":  log.ModelName,
			"object_id":   log.ObjectID,
			"object_repr": log.ObjectRepr,
			"changes":     changes,
			"ip_address":  log.IPAddress,
			"user_agent":  log.UserAgent,
		})
	}
	return data
}

func truncateRepr(repr string) string {
	if utf8.RuneCountInString(repr) <= models.ObjectReprLimit {
		return repr
	}
	runes := []rune(repr)
	return string(runes[:models.ObjectReprLimit])
}

// changeSet collects field changes, skipping fields whose value did not change.
type changeSet models.FieldChanges

func (c changeSet) add(field string, oldValue, newValue interface{}) {
	oldValue, newValue = derefValue(oldValue), derefValue(newValue)
	if reflect.DeepEqual(oldValue, newValue) {
		return
	}
	if fmt.Sprint(oldValue) == fmt.Sprint(newValue) {
		return
	}
	c[field] = models.FieldChange{Old: oldValue, New: newValue}
}

func (c changeSet) fields() models.FieldChanges {
	return models.FieldChanges(c)
}

func derefValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(models.DateLayout)
		}
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return derefValue(rv.Elem().Interface())
}
