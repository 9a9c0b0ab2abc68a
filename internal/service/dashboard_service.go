package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type statsRepository interface {
	DeviceStatusCounts(ctx context.Context, restricted bool, departmentIDs []string) ([]models.StatusCount, error)
	AssignmentCounts(ctx context.Context, today time.Time, restricted bool, departmentIDs []string) (int, int, error)
	WarrantyExpiring(ctx context.Context, today, until time.Time, restricted bool, departmentIDs []string) (int, error)
	ExpiringWarranties(ctx context.Context, today, until time.Time, restricted bool, departmentIDs []string, limit int) ([]models.DeviceDetail, error)
	SystemStats(ctx context.Context, dayStart, dayEnd, maintenanceUntil time.Time) (*models.SystemStats, error)
}

type dueAssignmentLister interface {
	ListOverdue(ctx context.Context, today time.Time, departmentIDs []string, restricted bool) ([]models.AssignmentDetail, error)
	ListDueBetween(ctx context.Context, from, to time.Time, departmentIDs []string, restricted bool) ([]models.AssignmentDetail, error)
}

type maintenanceDueLister interface {
	ListOpenUntil(ctx context.Context, until time.Time) ([]models.MaintenanceSchedule, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	QuickStatsTTL              time.Duration
	SystemStatsTTL             time.Duration
	NotificationsTTL           time.Duration
	WarrantyAlertDays          int
	AssignmentNotificationDays int
	MaintenanceHorizonDays     int
	NotificationLimit          int
}

// DashboardService computes the cached per-user dashboard context.
type DashboardService struct {
	stats       statsRepository
	assignments dueAssignmentLister
	maintenance maintenanceDueLister
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Stats       statsRepository
	Assignments dueAssignmentLister
	Maintenance maintenanceDueLister
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.QuickStatsTTL <= 0 {
		cfg.QuickStatsTTL = 5 * time.Minute
	}
	if cfg.SystemStatsTTL <= 0 {
		cfg.SystemStatsTTL = 15 * time.Minute
	}
	if cfg.NotificationsTTL <= 0 {
		cfg.NotificationsTTL = 10 * time.Minute
	}
	if cfg.WarrantyAlertDays <= 0 {
		cfg.WarrantyAlertDays = 30
	}
	if cfg.AssignmentNotificationDays <= 0 {
		cfg.AssignmentNotificationDays = 7
	}
	if cfg.MaintenanceHorizonDays <= 0 {
		cfg.MaintenanceHorizonDays = 7
	}
	if cfg.NotificationLimit <= 0 {
		cfg.NotificationLimit = 20
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:       params.Stats,
		assignments: params.Assignments,
		maintenance: params.Maintenance,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Dashboard returns quick stats and notifications for the user, plus system totals for
// callers who can see every device. The bool reports whether everything came from cache.
func (s *DashboardService) Dashboard(ctx context.Context, principal *models.Principal) (*models.Dashboard, bool, error) {
	if principal == nil {
		return nil, false, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	quick, quickHit, err := s.QuickStats(ctx, principal.User.ID, principal.Permissions)
	if err != nil {
		return nil, false, err
	}
	notes, notesHit, err := s.Notifications(ctx, principal.User.ID, principal.Permissions)
	if err != nil {
		return nil, false, err
	}
	out := &models.Dashboard{QuickStats: *quick, Notifications: notes}
	hit := quickHit && notesHit
	if perms := principal.Permissions; perms != nil && !perms.Restricted() && (perms.CanViewAllDevices || perms.CanSystemAdmin) {
		system, systemHit, err := s.SystemStats(ctx)
		if err != nil {
			return nil, false, err
		}
		out.SystemStats = system
		hit = hit && systemHit
	}
	return out, hit, nil
}

// QuickStats counts devices, assignments and expiring warranties within the caller's scope.
func (s *DashboardService) QuickStats(ctx context.Context, userID string, perms *models.EffectivePermissions) (*models.QuickStats, bool, error) {
	key := cacheKeyQuickStatsPrefix + userID
	var cached models.QuickStats
	if s.cache.Lookup(ctx, key, &cached) {
		return &cached, true, nil
	}

	departmentIDs, restricted := scopeOf(perms)
	now := s.now().UTC()
	today := models.DateOnly(now)

	counts, err := s.stats.DeviceStatusCounts(ctx, restricted, departmentIDs)
	if err != nil {
		return nil, false, repoError(err, "stats", "count devices")
	}
	active, overdue, err := s.stats.AssignmentCounts(ctx, today, restricted, departmentIDs)
	if err != nil {
		return nil, false, repoError(err, "stats", "count assignments")
	}
	expiring, err := s.stats.WarrantyExpiring(ctx, today, today.AddDate(0, 0, s.cfg.WarrantyAlertDays), restricted, departmentIDs)
	if err != nil {
		return nil, false, repoError(err, "stats", "count expiring warranties")
	}

	stats := &models.QuickStats{
		DevicesByStatus:    make(map[string]int, len(counts)),
		ActiveAssignments:  active,
		OverdueAssignments: overdue,
		WarrantyExpiring:   expiring,
		GeneratedAt:        now,
	}
	for _, c := range counts {
		stats.DevicesByStatus[c.Status] = c.Count
		stats.TotalDevices += c.Count
	}
	s.cache.Store(ctx, key, stats, s.cfg.QuickStatsTTL)
	return stats, false, nil
}

// SystemStats returns organisation-wide totals.
func (s *DashboardService) SystemStats(ctx context.Context) (*models.SystemStats, bool, error) {
	var cached models.SystemStats
	if s.cache.Lookup(ctx, cacheKeySystemStats, &cached) {
		return &cached, true, nil
	}
	now := s.now().UTC()
	today := models.DateOnly(now)
	stats, err := s.stats.SystemStats(ctx, today, today.AddDate(0, 0, 1), today.AddDate(0, 0, s.cfg.MaintenanceHorizonDays))
	if err != nil {
		return nil, false, repoError(err, "stats", "load system stats")
	}
	stats.GeneratedAt = now
	s.cache.Store(ctx, cacheKeySystemStats, stats, s.cfg.SystemStatsTTL)
	return stats, false, nil
}

// Notifications lists overdue and soon-due assignments, expiring warranties and due
// maintenance, most urgent first.
func (s *DashboardService) Notifications(ctx context.Context, userID string, perms *models.EffectivePermissions) ([]models.Notification, bool, error) {
	key := cacheKeyNotificationsPrefix + userID
	var cached []models.Notification
	if s.cache.Lookup(ctx, key, &cached) {
		return cached, true, nil
	}

	departmentIDs, restricted := scopeOf(perms)
	today := models.DateOnly(s.now().UTC())
	out := make([]models.Notification, 0)

	overdue, err := s.assignments.ListOverdue(ctx, today, departmentIDs, restricted)
	if err != nil {
		return nil, false, repoError(err, "assignment", "list overdue assignments")
	}
	for _, a := range overdue {
		days := a.DaysOverdue
		if a.ExpectedReturnDate != nil {
			days = int(today.Sub(models.DateOnly(*a.ExpectedReturnDate)).Hours() / 24)
		}
		out = append(out, models.Notification{
			Kind:     models.NotifyAssignmentOverdue,
			ObjectID: a.AssignmentID,
			Title:    fmt.Sprintf("%s is %d day(s) overdue", a.DeviceCode, days),
			DueDate:  a.ExpectedReturnDate,
			Severity: "high",
		})
	}

	due, err := s.assignments.ListDueBetween(ctx, today, today.AddDate(0, 0, s.cfg.AssignmentNotificationDays), departmentIDs, restricted)
	if err != nil {
		return nil, false, repoError(err, "assignment", "list due assignments")
	}
	for _, a := range due {
		out = append(out, models.Notification{
			Kind:     models.NotifyAssignmentDue,
			ObjectID: a.AssignmentID,
			Title:    fmt.Sprintf("%s is due back", a.DeviceCode),
			DueDate:  a.ExpectedReturnDate,
			Severity: "medium",
		})
	}

	warranties, err := s.stats.ExpiringWarranties(ctx, today, today.AddDate(0, 0, s.cfg.WarrantyAlertDays), restricted, departmentIDs, s.cfg.NotificationLimit)
	if err != nil {
		return nil, false, repoError(err, "device", "list expiring warranties")
	}
	for _, d := range warranties {
		out = append(out, models.Notification{
			Kind:     models.NotifyWarrantyExpiring,
			ObjectID: d.DeviceID,
			Title:    fmt.Sprintf("Warranty of %s expires soon", d.DeviceID),
			DueDate:  d.WarrantyEndDate,
			Severity: "medium",
		})
	}

	if perms != nil && (perms.CanManageMaintenance || perms.CanSystemAdmin) && s.maintenance != nil {
		work, err := s.maintenance.ListOpenUntil(ctx, today.AddDate(0, 0, s.cfg.MaintenanceHorizonDays))
		if err != nil {
			return nil, false, repoError(err, "maintenance", "list due maintenance")
		}
		for i := range work {
			m := work[i]
			severity := "low"
			if m.ScheduledDate.Before(today) {
				severity = "high"
			}
			date := m.ScheduledDate
			out = append(out, models.Notification{
				Kind:     models.NotifyMaintenanceDue,
				ObjectID: m.ID,
				Title:    maintenanceRepr(&m),
				DueDate:  &date,
				Severity: severity,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if out[i].DueDate == nil || out[j].DueDate == nil {
			return out[j].DueDate == nil && out[i].DueDate != nil
		}
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	if len(out) > s.cfg.NotificationLimit {
		out = out[:s.cfg.NotificationLimit]
	}
	s.cache.Store(ctx, key, out, s.cfg.NotificationsTTL)
	return out, false, nil
}

func severityRank(severity string) int {
	switch severity {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}
