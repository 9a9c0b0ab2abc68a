package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/repository"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type maintenanceRepository interface {
	txProvider
	Create(ctx context.Context, m *models.MaintenanceSchedule) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.MaintenanceSchedule, error)
	Save(ctx context.Context, exec sqlx.ExtContext, m *models.MaintenanceSchedule) error
	List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceSchedule, int, error)
	ListOpenUntil(ctx context.Context, until time.Time) ([]models.MaintenanceSchedule, error)
}

type maintenanceDeviceStore interface {
	FindDetail(ctx context.Context, ref string) (*models.DeviceDetail, error)
	FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Device, error)
	ApplyState(ctx context.Context, exec sqlx.ExtContext, id string, change repository.DeviceStateChange) error
}

// MaintenanceService schedules work on devices and moves them in and out of MAINTENANCE.
type MaintenanceService struct {
	repo        maintenanceRepository
	devices     maintenanceDeviceStore
	assignments qrAssignmentLookup
	vendors     deviceVendorLookup
	audit       *AuditService
	cache       *CacheService
	qr          qrRefresher
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewMaintenanceService constructs the maintenance service.
func NewMaintenanceService(repo maintenanceRepository, devices maintenanceDeviceStore, assignments qrAssignmentLookup, vendors deviceVendorLookup,
	audit *AuditService, cache *CacheService, qr qrRefresher, validate *validator.Validate, logger *zap.Logger) *MaintenanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		repo:        repo,
		devices:     devices,
		assignments: assignments,
		vendors:     vendors,
		audit:       audit,
		cache:       cache,
		qr:          qr,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns schedules matching the filter.
func (s *MaintenanceService) List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceSchedule, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "maintenance", "list maintenance")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Upcoming returns open work due within days, overdue work included.
func (s *MaintenanceService) Upcoming(ctx context.Context, days int) ([]models.MaintenanceSchedule, error) {
	if days <= 0 {
		days = 30
	}
	items, err := s.repo.ListOpenUntil(ctx, models.DateOnly(s.now()).AddDate(0, 0, days))
	if err != nil {
		return nil, repoError(err, "maintenance", "list upcoming maintenance")
	}
	return items, nil
}

// Overdue returns open work whose scheduled date has passed.
func (s *MaintenanceService) Overdue(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	items, err := s.repo.ListOpenUntil(ctx, models.DateOnly(s.now()).AddDate(0, 0, -1))
	if err != nil {
		return nil, repoError(err, "maintenance", "list overdue maintenance")
	}
	return items, nil
}

// Get returns one schedule.
func (s *MaintenanceService) Get(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	m, err := s.repo.FindByID(ctx, nil, id, false)
	if err != nil {
		return nil, repoError(err, "maintenance", "load maintenance")
	}
	return m, nil
}

// Create schedules work for an in-service device.
func (s *MaintenanceService) Create(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.CreateMaintenanceRequest) (*models.MaintenanceSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scheduled, err := parseDate("scheduled_date", &req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	if req.EstimatedCost != nil && req.EstimatedCost.IsNegative() {
		return nil, appErrors.Field("estimated_cost", "cannot be negative")
	}
	device, err := s.devices.FindDetail(ctx, strings.TrimSpace(req.DeviceID))
	if err != nil {
		return nil, repoError(err, "device", "load device")
	}
	if !perms.InScope(device.ScopeDepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "device not found")
	}
	if device.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("device %s is %s", device.DeviceID, device.Status))
	}
	if id := trimPtr(req.VendorID); id != nil {
		vendor, err := s.vendors.FindByID(ctx, *id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Field("vendor_id", "does not exist")
			}
			return nil, repoError(err, "vendor", "load vendor")
		}
		if !vendor.IsActive {
			return nil, appErrors.Field("vendor_id", "vendor is inactive")
		}
	}

	now := s.now().UTC()
	m := &models.MaintenanceSchedule{
		ID:            uuid.NewString(),
		DeviceID:      device.ID,
		Type:          req.Type,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		ScheduledDate: *scheduled,
		ScheduledTime: trimPtr(req.ScheduledTime),
		Status:        models.MaintenanceScheduled,
		VendorID:      trimPtr(req.VendorID),
		Technician:    strings.TrimSpace(req.Technician),
		CreatedBy:     actor.UserIDPtr(),
		CreatedAt:     now,
		UpdatedAt:     now,
		DeviceCode:    device.DeviceID,
		DeviceName:    device.DeviceName,
	}
	if req.EstimatedCost != nil {
		m.EstimatedCost = decimal.NewNullDecimal(*req.EstimatedCost)
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, repoError(err, "maintenance", "create maintenance")
	}

	changes := changeSet{}
	changes.add("maintenance_type", nil, string(m.Type))
	changes.add("scheduled_date", nil, m.ScheduledDate)
	changes.add("status", nil, string(m.Status))
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  "MaintenanceSchedule",
		ObjectID:   m.ID,
		ObjectRepr: maintenanceRepr(m),
		Changes:    changes.fields(),
	})
	s.cache.InvalidateStats(ctx)
	return m, nil
}

// Start moves open work in progress and the device into MAINTENANCE. An active
// assignment survives maintenance.
func (s *MaintenanceService) Start(ctx context.Context, actor models.Actor, id string) (*models.MaintenanceSchedule, error) {
	return s.transition(ctx, actor, id, func(tx *sqlx.Tx, m *models.MaintenanceSchedule, device *models.Device, changes changeSet, now time.Time) error {
		if !m.Status.Open() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("maintenance is %s", m.Status))
		}
		if device.Status.Terminal() || device.Status == models.DeviceLost {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("device %s is %s", device.DeviceID, device.Status))
		}
		changes.add("status", string(m.Status), string(models.MaintenanceInProgress))
		m.Status = models.MaintenanceInProgress
		if device.Status == models.DeviceMaintenance {
			return nil
		}
		status := models.DeviceMaintenance
		changes.add("device_status", string(device.Status), string(status))
		return s.applyDevice(ctx, tx, device.ID, repository.DeviceStateChange{Status: &status, UpdatedBy: actor.UserIDPtr(), At: now})
	})
}

// Complete records finished work. A device in MAINTENANCE goes back to ASSIGNED when it
// still has an active assignment and to AVAILABLE otherwise.
func (s *MaintenanceService) Complete(ctx context.Context, actor models.Actor, id string, req dto.CompleteMaintenanceRequest) (*models.MaintenanceSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Condition != nil && !req.Condition.Valid() {
		return nil, appErrors.Field("condition", "unknown condition "+string(*req.Condition))
	}
	if req.ActualCost != nil && req.ActualCost.IsNegative() {
		return nil, appErrors.Field("actual_cost", "cannot be negative")
	}
	completion, err := parseDate("completion_date", req.CompletionDate)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, func(tx *sqlx.Tx, m *models.MaintenanceSchedule, device *models.Device, changes changeSet, now time.Time) error {
		if m.Status != models.MaintenanceInProgress && !m.Status.Open() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("maintenance is %s", m.Status))
		}
		day := models.DateOnly(now)
		if completion != nil {
			if completion.After(day) {
				return appErrors.Field("completion_date", "cannot be in the future")
			}
			day = *completion
		}
		changes.add("status", string(m.Status), string(models.MaintenanceCompleted))
		changes.add("completion_date", nil, day)
		m.Status = models.MaintenanceCompleted
		m.CompletionDate = &day
		m.WorkPerformed = strings.TrimSpace(req.WorkPerformed)
		m.PartsUsed = strings.TrimSpace(req.PartsUsed)
		if req.ActualCost != nil {
			changes.add("actual_cost", priceString(m.ActualCost), req.ActualCost.StringFixed(2))
			m.ActualCost = decimal.NewNullDecimal(*req.ActualCost)
		}

		change := repository.DeviceStateChange{LastMaintenanceDate: &day, Condition: req.Condition, UpdatedBy: actor.UserIDPtr(), At: now}
		if device.Status == models.DeviceMaintenance {
			next, err := s.statusAfterMaintenance(ctx, tx, device.ID)
			if err != nil {
				return err
			}
			changes.add("device_status", string(device.Status), string(next))
			change.Status = &next
		}
		return s.applyDevice(ctx, tx, device.ID, change)
	})
}

// Cancel abandons open or in-progress work, releasing the device from MAINTENANCE.
func (s *MaintenanceService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.MaintenanceSchedule, error) {
	return s.transition(ctx, actor, id, func(tx *sqlx.Tx, m *models.MaintenanceSchedule, device *models.Device, changes changeSet, now time.Time) error {
		if m.Status != models.MaintenanceInProgress && !m.Status.Open() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("maintenance is %s", m.Status))
		}
		wasRunning := m.Status == models.MaintenanceInProgress
		changes.add("status", string(m.Status), string(models.MaintenanceCancelled))
		m.Status = models.MaintenanceCancelled
		if !wasRunning || device.Status != models.DeviceMaintenance {
			return nil
		}
		next, err := s.statusAfterMaintenance(ctx, tx, device.ID)
		if err != nil {
			return err
		}
		changes.add("device_status", string(device.Status), string(next))
		return s.applyDevice(ctx, tx, device.ID, repository.DeviceStateChange{Status: &next, UpdatedBy: actor.UserIDPtr(), At: now})
	})
}

// Postpone moves open work to a later date.
func (s *MaintenanceService) Postpone(ctx context.Context, actor models.Actor, id string, req dto.PostponeMaintenanceRequest) (*models.MaintenanceSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDate("scheduled_date", &req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, func(_ *sqlx.Tx, m *models.MaintenanceSchedule, _ *models.Device, changes changeSet, now time.Time) error {
		if !m.Status.Open() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("maintenance is %s", m.Status))
		}
		if !date.After(m.ScheduledDate) || date.Before(models.DateOnly(now)) {
			return appErrors.Field("scheduled_date", "must be later than the current schedule and not in the past")
		}
		changes.add("status", string(m.Status), string(models.MaintenancePostponed))
		changes.add("scheduled_date", m.ScheduledDate, *date)
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			changes.add("reason", nil, reason)
			m.Description = strings.TrimSpace(m.Description + "\nPostponed: " + reason)
		}
		m.Status = models.MaintenancePostponed
		m.ScheduledDate = *date
		return nil
	})
}

type maintenanceStep func(tx *sqlx.Tx, m *models.MaintenanceSchedule, device *models.Device, changes changeSet, now time.Time) error

// transition locks the schedule and its device, applies step and persists both in one transaction.
func (s *MaintenanceService) transition(ctx context.Context, actor models.Actor, id string, step maintenanceStep) (*models.MaintenanceSchedule, error) {
	now := s.now().UTC()
	changes := changeSet{}
	var (
		m      *models.MaintenanceSchedule
		device *models.Device
	)
	err := inTx(ctx, s.repo, func(tx *sqlx.Tx) error {
		var err error
		m, err = s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return repoError(err, "maintenance", "load maintenance")
		}
		device, err = s.devices.FindByRef(ctx, tx, m.DeviceID, true)
		if err != nil {
			return repoError(err, "device", "load device")
		}
		if err := step(tx, m, device, changes, now); err != nil {
			return err
		}
		m.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, m); err != nil {
			return repoError(err, "maintenance", "update maintenance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionUpdate,
		ModelName:  "MaintenanceSchedule",
		ObjectID:   m.ID,
		ObjectRepr: maintenanceRepr(m),
		Changes:    changes.fields(),
	})
	s.cache.InvalidateStats(ctx)
	if s.qr != nil {
		if err := s.qr.RefreshPayload(ctx, device.ID); err != nil {
			s.logger.Warn("failed to refresh qr payload", zap.String("device_id", device.ID), zap.Error(err))
		}
	}
	return m, nil
}

func (s *MaintenanceService) statusAfterMaintenance(ctx context.Context, tx sqlx.ExtContext, deviceID string) (models.DeviceStatus, error) {
	_, err := s.assignments.ActiveForDevice(ctx, tx, deviceID)
	switch {
	case err == nil:
		return models.DeviceAssigned, nil
	case errors.Is(err, sql.ErrNoRows):
		return models.DeviceAvailable, nil
	default:
		return "", repoError(err, "assignment", "check active assignment")
	}
}

func (s *MaintenanceService) applyDevice(ctx context.Context, tx sqlx.ExtContext, deviceID string, change repository.DeviceStateChange) error {
	if err := s.devices.ApplyState(ctx, tx, deviceID, change); err != nil {
		return repoError(err, "device", "update device status")
	}
	return nil
}

func maintenanceRepr(m *models.MaintenanceSchedule) string {
	if m.DeviceCode == "" {
		return m.Title
	}
	return m.DeviceCode + ": " + m.Title
}
