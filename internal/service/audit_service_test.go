package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

func TestAuditServiceRecordTruncatesRepr(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, zap.NewNop())
	svc.now = func() time.Time { return engineNow }

	svc.Record(context.Background(), models.Actor{UserID: "user-1", IP: "10.1.1.1", UserAgent: "curl"}, AuditEntry{
		Action:     models.AuditActionUpdate,
		ModelName:  "Device",
		ObjectID:   "BPS-IT-2025-0001",
		ObjectRepr: strings.Repeat("é", 250),
	})
	require.Len(t, repo.logs, 1)
	log := repo.logs[0]
	assert.Equal(t, models.ObjectReprLimit, len([]rune(log.ObjectRepr)))
	assert.Equal(t, "user-1", *log.UserID)
	assert.Equal(t, "10.1.1.1", log.IPAddress)
	assert.NotNil(t, log.Changes)
	assert.Equal(t, engineNow, log.Timestamp)
}

func TestAuditServiceSwallowsFailures(t *testing.T) {
	repo := &mockAuditRepo{err: errors.New("disk full")}
	svc := NewAuditService(repo, zap.NewNop())
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), models.Actor{}, AuditEntry{Action: models.AuditActionLogin, ModelName: "User"})
	})

	var nilSvc *AuditService
	assert.NotPanics(t, func() {
		nilSvc.Record(context.Background(), models.Actor{}, AuditEntry{Action: models.AuditActionLogin})
	})
}

func TestChangeSetKeepsOnlyChangedFields(t *testing.T) {
	oldName, newName := "Latitude", "Latitude"
	day := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	changes := changeSet{}
	changes.add("device_name", &oldName, &newName)
	changes.add("status", "AVAILABLE", "ASSIGNED")
	changes.add("warranty_end_date", nil, &day)
	changes.add("vendor_id", (*string)(nil), nil)

	fields := changes.fields()
	assert.Len(t, fields, 2)
	assert.Equal(t, models.FieldChange{Old: "AVAILABLE", New: "ASSIGNED"}, fields["status"])
	assert.Equal(t, "2025-01-02", fields["warranty_end_date"].New)
}

func TestAuditExportBeforeRequiresRetention(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{}, zap.NewNop())
	_, err := svc.ExportBefore(context.Background(), 0, 10)
	require.Error(t, err)
}

func TestAuditDatasetFlattensEntries(t *testing.T) {
	user := "user-1"
	repo := &mockAuditRepo{logs: []models.AuditLog{{
		UserID:    &user,
		Action:    models.AuditActionUpdate,
		ModelName: "Device",
		ObjectID:  "BPS-IT-2025-0001",
		Changes:   models.FieldChanges{"status": {Old: "AVAILABLE", New: "ASSIGNED"}},
		Timestamp: engineNow,
	}, {Action: models.AuditActionLogin, ModelName: "User", Timestamp: engineNow}}}
	svc := NewAuditService(repo, zap.NewNop())

	logs, err := svc.ExportBefore(context.Background(), 365, 10)
	require.NoError(t, err)
	data := AuditDataset(logs)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "user-1", data.Rows[0]["user_id"])
	assert.Contains(t, data.Rows[0]["changes"], `"ASSIGNED"`)
	assert.Equal(t, engineNow.UTC().Format(time.RFC3339), data.Rows[0]["timestamp"])
	assert.Empty(t, data.Rows[1]["user_id"])
	assert.Empty(t, data.Rows[1]["changes"])
}
