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
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/repository"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type assignmentStore interface {
	txProvider
	FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Assignment, error)
	ActiveForDevice(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*models.Assignment, error)
	CountActiveForStaff(ctx context.Context, exec sqlx.ExtContext, staffID string) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	UpdateTarget(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	Close(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	UpdateExpectedReturn(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	FindDetail(ctx context.Context, ref string) (*models.AssignmentDetail, error)
	List(ctx context.Context, filter models.AssignmentFilter, today time.Time) ([]models.AssignmentDetail, int, error)
	ListOverdue(ctx context.Context, today time.Time, departmentIDs []string, restricted bool) ([]models.AssignmentDetail, error)
	ListActiveForStaff(ctx context.Context, staffID string) ([]models.Assignment, error)
}

type engineDeviceStore interface {
	FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Device, error)
	FindDetail(ctx context.Context, ref string) (*models.DeviceDetail, error)
	ApplyState(ctx context.Context, exec sqlx.ExtContext, id string, change repository.DeviceStateChange) error
	MarkCritical(ctx context.Context, exec sqlx.ExtContext, id string, by *string, at time.Time) error
}

type historyStore interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AssignmentHistory) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentHistory, error)
}

type engineStaffLookup interface {
	FindByRef(ctx context.Context, ref string) (*models.Staff, error)
	ListCleanupCandidates(ctx context.Context, cutoff time.Time) ([]models.Staff, error)
}

type engineOrgLookup interface {
	FindDepartments(ctx context.Context, ref string) ([]models.Department, error)
	LocationPath(ctx context.Context, locationID string) (*models.LocationPath, error)
}

// qrRefresher rebuilds the cached QR payload of a device.
type qrRefresher interface {
	RefreshPayload(ctx context.Context, deviceID string) error
}

// AssignmentConfig carries the engine limits.
type AssignmentConfig struct {
	MaxDevicesPerStaff int
	CleanupGraceDays   int
	BulkChunkSize      int
}

// AssignmentService is the assignment lifecycle engine. Every transition runs in one
// transaction; audit, cache and QR side effects happen after commit and never fail the call.
type AssignmentService struct {
	assignments assignmentStore
	devices     engineDeviceStore
	history     historyStore
	staff       engineStaffLookup
	org         engineOrgLookup
	audit       *AuditService
	cache       *CacheService
	metrics     *MetricsService
	qr          qrRefresher
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         AssignmentConfig
	now         func() time.Time
}

// NewAssignmentService constructs the engine.
func NewAssignmentService(
	assignments assignmentStore,
	devices engineDeviceStore,
	history historyStore,
	staff engineStaffLookup,
	org engineOrgLookup,
	audit *AuditService,
	cache *CacheService,
	metrics *MetricsService,
	qr qrRefresher,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AssignmentConfig,
) *AssignmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CleanupGraceDays <= 0 {
		cfg.CleanupGraceDays = 365
	}
	if cfg.BulkChunkSize <= 0 {
		cfg.BulkChunkSize = 50
	}
	return &AssignmentService{
		assignments: assignments,
		devices:     devices,
		history:     history,
		staff:       staff,
		org:         org,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		qr:          qr,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// resolvedTarget is a recipient after reference lookup.
type resolvedTarget struct {
	target      models.Target
	staff       *models.Staff
	scopeDeptID *string
}

// assignmentPlan is a validated create request independent of the device.
type assignmentPlan struct {
	resolvedTarget
	assignmentType models.AssignmentType
	purpose        string
	conditions     string
	notes          string
	temporary      bool
	start          time.Time
	expectedReturn *time.Time
	requestedBy    *string
	approvedBy     *string
}

func (s *AssignmentService) today() time.Time {
	return models.DateOnly(s.now())
}

func (s *AssignmentService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return inTx(ctx, s.assignments, fn)
}

// Create starts a new assignment for a device.
func (s *AssignmentService) Create(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.CreateAssignmentRequest) (result *models.Assignment, err error) {
	defer func() { s.metrics.RecordTransition("assign", err) }()

	plan, err := s.prepareCreate(ctx, perms, req.AssignmentTarget, req.AssignmentType, req.IsTemporary, req.StartDate, req.ExpectedReturnDate, req)
	if err != nil {
		return nil, err
	}
	plan.notes = strings.TrimSpace(req.Notes)
	plan.requestedBy = trimPtr(req.RequestedBy)
	plan.approvedBy = trimPtr(req.ApprovedBy)
	return s.execCreate(ctx, actor, req.DeviceID, plan)
}

func (s *AssignmentService) prepareCreate(ctx context.Context, perms *models.EffectivePermissions, target dto.AssignmentTarget,
	assignmentType models.AssignmentType, temporary bool, startRaw, expectedRaw *string, payload interface{}) (*assignmentPlan, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err)
	}
	start, err := parseDate("start_date", startRaw)
	if err != nil {
		return nil, err
	}
	if start == nil {
		today := s.today()
		start = &today
	}
	expected, err := parseDate("expected_return_date", expectedRaw)
	if err != nil {
		return nil, err
	}
	if assignmentType == models.AssignmentTemporary {
		temporary = true
	}

	requested := models.Target{StaffID: target.StaffID, DepartmentID: target.DepartmentID, LocationID: target.LocationID}.Normalize()
	fields := map[string]string{}
	if requested.Empty() {
		fields["staff_id"] = "one of staff_id, department_id or location_id is required"
	}
	if assignmentType == models.AssignmentPersonal && requested.StaffID == nil {
		fields["staff_id"] = "is required for PERSONAL assignments"
	}
	if temporary {
		switch {
		case expected == nil:
			fields["expected_return_date"] = "is required for temporary assignments"
		case !expected.After(*start):
			fields["expected_return_date"] = "must be after start_date"
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	resolved, err := s.resolveTarget(ctx, requested)
	if err != nil {
		return nil, err
	}
	if !perms.InScope(resolved.scopeDeptID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "target department is outside your scope")
	}

	plan := &assignmentPlan{
		resolvedTarget: *resolved,
		assignmentType: assignmentType,
		temporary:      temporary,
		start:          models.DateOnly(*start),
		expectedReturn: expected,
	}
	switch r := payload.(type) {
	case dto.CreateAssignmentRequest:
		plan.purpose, plan.conditions = strings.TrimSpace(r.Purpose), strings.TrimSpace(r.Conditions)
	case dto.BulkAssignRequest:
		plan.purpose, plan.conditions = strings.TrimSpace(r.Purpose), strings.TrimSpace(r.Conditions)
	}
	return plan, nil
}

// resolveTarget turns caller references into row ids. Staff accept id or employee id,
// departments id or code, locations id.
func (s *AssignmentService) resolveTarget(ctx context.Context, requested models.Target) (*resolvedTarget, error) {
	out := &resolvedTarget{}
	if requested.StaffID != nil {
		staff, err := s.staff.FindByRef(ctx, *requested.StaffID)
		if err != nil {
			return nil, repoError(err, "staff", "load staff")
		}
		if !staff.IsActive {
			return nil, appErrors.Field("staff_id", "staff member is inactive")
		}
		id := staff.ID
		out.target.StaffID = &id
		out.staff = staff
	}
	if requested.DepartmentID != nil {
		departments, err := s.org.FindDepartments(ctx, *requested.DepartmentID)
		if err != nil {
			return nil, repoError(err, "department", "load department")
		}
		switch len(departments) {
		case 0:
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		case 1:
		default:
			return nil, appErrors.Field("department_id", "department code is ambiguous, use the department id")
		}
		id := departments[0].ID
		out.target.DepartmentID = &id
	}
	var locationDept *string
	if requested.LocationID != nil {
		path, err := s.org.LocationPath(ctx, *requested.LocationID)
		if err != nil {
			return nil, repoError(err, "location", "load location")
		}
		id := path.LocationID
		out.target.LocationID = &id
		dept := path.DepartmentID
		locationDept = &dept
	}

	switch {
	case out.target.DepartmentID != nil:
		out.scopeDeptID = out.target.DepartmentID
	case out.staff != nil:
		dept := out.staff.DepartmentID
		out.scopeDeptID = &dept
	default:
		out.scopeDeptID = locationDept
	}
	return out, nil
}

func (s *AssignmentService) checkStaffCap(ctx context.Context, exec sqlx.ExtContext, staffID string) error {
	if s.cfg.MaxDevicesPerStaff <= 0 {
		return nil
	}
	count, err := s.assignments.CountActiveForStaff(ctx, exec, staffID)
	if err != nil {
		return repoError(err, "staff", "count staff assignments")
	}
	if count >= s.cfg.MaxDevicesPerStaff {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("staff member already holds %d devices (limit %d)", count, s.cfg.MaxDevicesPerStaff))
	}
	return nil
}

func (s *AssignmentService) execCreate(ctx context.Context, actor models.Actor, deviceRef string, plan *assignmentPlan) (*models.Assignment, error) {
	now := s.now().UTC()
	var (
		device     *models.Device
		assignment *models.Assignment
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		device, err = s.devices.FindByRef(ctx, tx, deviceRef, true)
		if err != nil {
			return repoError(err, "device", "load device")
		}
		if _, err := s.assignments.ActiveForDevice(ctx, tx, device.ID); err == nil {
			return appErrors.Clone(appErrors.ErrAlreadyAssigned, fmt.Sprintf("device %s already has an active assignment", device.DeviceID))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return repoError(err, "assignment", "check active assignment")
		}
		if !device.Status.Assignable() {
			return appErrors.Clone(appErrors.ErrDeviceUnavailable,
				fmt.Sprintf("device %s is %s and cannot be assigned", device.DeviceID, device.Status))
		}
		if plan.staff != nil {
			if err := s.checkStaffCap(ctx, tx, plan.staff.ID); err != nil {
				return err
			}
		}

		assignment = &models.Assignment{
			ID:                     uuid.NewString(),
			DeviceID:               device.ID,
			AssignedToStaffID:      plan.target.StaffID,
			AssignedToDepartmentID: plan.target.DepartmentID,
			AssignedToLocationID:   plan.target.LocationID,
			AssignmentType:         plan.assignmentType,
			Purpose:                plan.purpose,
			Conditions:             plan.conditions,
			Notes:                  plan.notes,
			IsTemporary:            plan.temporary,
			StartDate:              plan.start,
			ExpectedReturnDate:     plan.expectedReturn,
			IsActive:               true,
			CreatedBy:              actor.UserIDPtr(),
			RequestedBy:            plan.requestedBy,
			ApprovedBy:             plan.approvedBy,
			UpdatedBy:              actor.UserIDPtr(),
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := s.assignments.Create(ctx, tx, assignment); err != nil {
			return repoError(err, "assignment", "create assignment")
		}

		status := models.DeviceAssigned
		start := plan.start
		if err := s.devices.ApplyState(ctx, tx, device.ID, repository.DeviceStateChange{
			Status:         &status,
			LocationID:     plan.target.LocationID,
			DeploymentDate: &start,
			UpdatedBy:      actor.UserIDPtr(),
			At:             now,
		}); err != nil {
			return repoError(err, "device", "update device status")
		}

		return s.appendHistory(ctx, tx, &models.AssignmentHistory{
			AssignmentID:    assignment.ID,
			DeviceID:        device.ID,
			Action:          models.HistoryAssigned,
			NewStaffID:      plan.target.StaffID,
			NewDepartmentID: plan.target.DepartmentID,
			NewLocationID:   plan.target.LocationID,
			Reason:          plan.purpose,
			ChangedBy:       actor.UserIDPtr(),
			ChangedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	changes := changeSet{}
	changes.add("device_id", nil, device.DeviceID)
	changes.add("assignment_type", nil, string(assignment.AssignmentType))
	changes.add("assigned_to_staff_id", nil, assignment.AssignedToStaffID)
	changes.add("assigned_to_department_id", nil, assignment.AssignedToDepartmentID)
	changes.add("assigned_to_location_id", nil, assignment.AssignedToLocationID)
	changes.add("expected_return_date", nil, assignment.ExpectedReturnDate)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionAssign,
		ModelName:  "Assignment",
		ObjectID:   assignment.AssignmentID,
		ObjectRepr: assignmentRepr(assignment, device),
		Changes:    changes.fields(),
	})
	s.afterChange(ctx, device.ID)
	return assignment, nil
}

func (s *AssignmentService) appendHistory(ctx context.Context, exec sqlx.ExtContext, entry *models.AssignmentHistory) error {
	entry.ID = uuid.NewString()
	if err := s.history.Append(ctx, exec, entry); err != nil {
		return repoError(err, "history", "record assignment history")
	}
	return nil
}

// afterChange refreshes caches derived from assignment state.
func (s *AssignmentService) afterChange(ctx context.Context, deviceID string) {
	s.cache.InvalidateStats(ctx)
	if s.qr == nil {
		return
	}
	if err := s.qr.RefreshPayload(ctx, deviceID); err != nil {
		s.logger.Warn("failed to refresh qr payload", zap.String("device_id", deviceID), zap.Error(err))
	}
}

// loadVisible returns the assignment detail, hiding rows outside the caller's scope.
func (s *AssignmentService) loadVisible(ctx context.Context, perms *models.EffectivePermissions, ref string) (*models.AssignmentDetail, error) {
	detail, err := s.assignments.FindDetail(ctx, ref)
	if err != nil {
		return nil, repoError(err, "assignment", "load assignment")
	}
	if !perms.InScope(detail.ScopeDepartment) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return detail, nil
}

func (s *AssignmentService) lockActive(ctx context.Context, tx sqlx.ExtContext, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByRef(ctx, tx, id, true)
	if err != nil {
		return nil, repoError(err, "assignment", "load assignment")
	}
	if !assignment.IsActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("assignment %s is closed", assignment.AssignmentID))
	}
	return assignment, nil
}

// Transfer moves an active assignment to a new target. Device status is unchanged.
func (s *AssignmentService) Transfer(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.TransferAssignmentRequest) (result *models.Assignment, err error) {
	defer func() { s.metrics.RecordTransition("transfer", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	requested := models.Target{StaffID: req.StaffID, DepartmentID: req.DepartmentID, LocationID: req.LocationID}.Normalize()
	if requested.Empty() {
		return nil, appErrors.Field("staff_id", "one of staff_id, department_id or location_id is required")
	}
	current, err := s.loadVisible(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolveTarget(ctx, requested)
	if err != nil {
		return nil, err
	}
	if !perms.InScope(resolved.scopeDeptID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "target department is outside your scope")
	}

	now := s.now().UTC()
	reason := strings.TrimSpace(req.Reason)
	var (
		assignment *models.Assignment
		previous   models.Target
		prevType   models.AssignmentType
	)
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		assignment, err = s.lockActive(ctx, tx, current.ID)
		if err != nil {
			return err
		}
		previous = assignment.Target()
		prevType = assignment.AssignmentType
		if sameTarget(previous, resolved.target) {
			return appErrors.Field("staff_id", "new target matches the current target")
		}
		if resolved.staff != nil && (previous.StaffID == nil || *previous.StaffID != resolved.staff.ID) {
			if err := s.checkStaffCap(ctx, tx, resolved.staff.ID); err != nil {
				return err
			}
		}

		assignment.AssignedToStaffID = resolved.target.StaffID
		assignment.AssignedToDepartmentID = resolved.target.DepartmentID
		assignment.AssignedToLocationID = resolved.target.LocationID
		if assignment.AssignmentType == models.AssignmentPersonal && resolved.target.StaffID == nil {
			if resolved.target.DepartmentID != nil {
				assignment.AssignmentType = models.AssignmentDepartmental
			} else {
				assignment.AssignmentType = models.AssignmentShared
			}
		}
		assignment.UpdatedBy = actor.UserIDPtr()
		assignment.UpdatedAt = now
		if err := s.assignments.UpdateTarget(ctx, tx, assignment); err != nil {
			return repoError(err, "assignment", "transfer assignment")
		}
		// staff and departments carry no location, so the cached one is cleared
		if err := s.devices.ApplyState(ctx, tx, assignment.DeviceID, repository.DeviceStateChange{
			LocationID:    resolved.target.LocationID,
			ClearLocation: resolved.target.LocationID == nil,
			UpdatedBy:     actor.UserIDPtr(),
			At:            now,
		}); err != nil {
			return repoError(err, "device", "update device location")
		}
		return s.appendHistory(ctx, tx, &models.AssignmentHistory{
			AssignmentID:         assignment.ID,
			DeviceID:             assignment.DeviceID,
			Action:               models.HistoryTransferred,
			PreviousStaffID:      previous.StaffID,
			PreviousDepartmentID: previous.DepartmentID,
			PreviousLocationID:   previous.LocationID,
			NewStaffID:           resolved.target.StaffID,
			NewDepartmentID:      resolved.target.DepartmentID,
			NewLocationID:        resolved.target.LocationID,
			Reason:               reason,
			ChangedBy:            actor.UserIDPtr(),
			ChangedAt:            now,
		})
	})
	if err != nil {
		return nil, err
	}

	changes := changeSet{}
	changes.add("assigned_to_staff_id", previous.StaffID, assignment.AssignedToStaffID)
	changes.add("assigned_to_department_id", previous.DepartmentID, assignment.AssignedToDepartmentID)
	changes.add("assigned_to_location_id", previous.LocationID, assignment.AssignedToLocationID)
	changes.add("assignment_type", string(prevType), string(assignment.AssignmentType))
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionTransfer,
		ModelName:  "Assignment",
		ObjectID:   assignment.AssignmentID,
		ObjectRepr: assignment.AssignmentID + " (" + current.DeviceCode + "): " + reason,
		Changes:    changes.fields(),
	})
	s.afterChange(ctx, assignment.DeviceID)
	return assignment, nil
}

// Return closes an active assignment and releases the device.
func (s *AssignmentService) Return(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.ReturnAssignmentRequest) (result *models.Assignment, err error) {
	defer func() { s.metrics.RecordTransition("return", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.ReturnCondition.Valid() {
		return nil, appErrors.Field("return_condition", "is not a known condition")
	}
	current, err := s.loadVisible(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	condition := req.ReturnCondition
	return s.closeAssignment(ctx, actor, current.ID, &condition, strings.TrimSpace(req.Notes), strings.TrimSpace(req.Notes))
}

// closeAssignment returns an assignment. A nil condition keeps the device's current condition.
func (s *AssignmentService) closeAssignment(ctx context.Context, actor models.Actor, id string, condition *models.DeviceCondition, notes, reason string) (*models.Assignment, error) {
	now := s.now().UTC()
	today := s.today()
	var (
		assignment *models.Assignment
		device     *models.Device
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		assignment, err = s.lockActive(ctx, tx, id)
		if err != nil {
			return err
		}
		device, err = s.devices.FindByRef(ctx, tx, assignment.DeviceID, true)
		if err != nil {
			return repoError(err, "device", "load device")
		}
		if condition == nil {
			current := device.Condition
			condition = &current
		}

		assignment.IsActive = false
		assignment.ActualReturnDate = &today
		assignment.ReturnCondition = condition
		if notes != "" {
			assignment.ReturnNotes = &notes
		}
		assignment.UpdatedBy = actor.UserIDPtr()
		assignment.UpdatedAt = now
		if err := s.assignments.Close(ctx, tx, assignment); err != nil {
			return repoError(err, "assignment", "return assignment")
		}

		previous := assignment.Target()
		if err := s.appendHistory(ctx, tx, &models.AssignmentHistory{
			AssignmentID:         assignment.ID,
			DeviceID:             assignment.DeviceID,
			Action:               models.HistoryReturned,
			PreviousStaffID:      previous.StaffID,
			PreviousDepartmentID: previous.DepartmentID,
			PreviousLocationID:   previous.LocationID,
			Reason:               reason,
			ChangedBy:            actor.UserIDPtr(),
			ChangedAt:            now,
		}); err != nil {
			return err
		}

		status := models.DeviceAvailable
		if err := s.devices.ApplyState(ctx, tx, assignment.DeviceID, repository.DeviceStateChange{
			Status:    &status,
			Condition: condition,
			UpdatedBy: actor.UserIDPtr(),
			At:        now,
		}); err != nil {
			return repoError(err, "device", "release device")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := changeSet{}
	changes.add("is_active", true, false)
	changes.add("actual_return_date", nil, assignment.ActualReturnDate)
	changes.add("return_condition", nil, string(*assignment.ReturnCondition))
	changes.add("device_condition", string(device.Condition), string(*assignment.ReturnCondition))
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionReturn,
		ModelName:  "Assignment",
		ObjectID:   assignment.AssignmentID,
		ObjectRepr: assignmentRepr(assignment, device),
		Changes:    changes.fields(),
	})
	s.afterChange(ctx, assignment.DeviceID)
	return assignment, nil
}

// Extend pushes out the expected return date of an active temporary assignment.
func (s *AssignmentService) Extend(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.ExtendAssignmentRequest) (result *models.Assignment, err error) {
	defer func() { s.metrics.RecordTransition("extend", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	newDate, err := parseDate("expected_return_date", &req.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}
	current, err := s.loadVisible(ctx, perms, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		assignment *models.Assignment
		previous   *time.Time
	)
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		assignment, err = s.lockActive(ctx, tx, current.ID)
		if err != nil {
			return err
		}
		if !assignment.IsTemporary {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "only temporary assignments can be extended")
		}
		floor := s.today()
		if assignment.ExpectedReturnDate != nil && models.DateOnly(*assignment.ExpectedReturnDate).After(floor) {
			floor = models.DateOnly(*assignment.ExpectedReturnDate)
		}
		if !newDate.After(floor) {
			return appErrors.Field("expected_return_date", "must be after "+floor.Format(models.DateLayout))
		}
		previous = assignment.ExpectedReturnDate
		assignment.ExpectedReturnDate = newDate
		assignment.UpdatedBy = actor.UserIDPtr()
		assignment.UpdatedAt = now
		if err := s.assignments.UpdateExpectedReturn(ctx, tx, assignment); err != nil {
			return repoError(err, "assignment", "extend assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := changeSet{}
	changes.add("expected_return_date", previous, assignment.ExpectedReturnDate)
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		changes.add("reason", nil, reason)
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionExtend,
		ModelName:  "Assignment",
		ObjectID:   assignment.AssignmentID,
		ObjectRepr: assignment.AssignmentID + " (" + current.DeviceCode + ")",
		Changes:    changes.fields(),
	})
	s.cache.InvalidateStats(ctx)
	return assignment, nil
}

// EscalateCritical flags a device as critical. An active assignment gets an ESCALATED history row.
func (s *AssignmentService) EscalateCritical(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, deviceRef, reason string) (err error) {
	defer func() { s.metrics.RecordTransition("escalate", err) }()

	detail, err := s.devices.FindDetail(ctx, deviceRef)
	if err != nil {
		return repoError(err, "device", "load device")
	}
	if !perms.InScope(detail.ScopeDepartmentID) {
		return appErrors.Clone(appErrors.ErrNotFound, "device not found")
	}

	reason = strings.TrimSpace(reason)
	now := s.now().UTC()
	wasCritical := detail.IsCritical
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.devices.MarkCritical(ctx, tx, detail.ID, actor.UserIDPtr(), now); err != nil {
			return repoError(err, "device", "escalate device")
		}
		active, err := s.assignments.ActiveForDevice(ctx, tx, detail.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return repoError(err, "assignment", "check active assignment")
		}
		target := active.Target()
		return s.appendHistory(ctx, tx, &models.AssignmentHistory{
			AssignmentID:         active.ID,
			DeviceID:             detail.ID,
			Action:               models.HistoryEscalated,
			PreviousStaffID:      target.StaffID,
			PreviousDepartmentID: target.DepartmentID,
			PreviousLocationID:   target.LocationID,
			NewStaffID:           target.StaffID,
			NewDepartmentID:      target.DepartmentID,
			NewLocationID:        target.LocationID,
			Reason:               reason,
			ChangedBy:            actor.UserIDPtr(),
			ChangedAt:            now,
		})
	})
	if err != nil {
		return err
	}

	changes := changeSet{}
	changes.add("is_critical", wasCritical, true)
	if reason != "" {
		changes.add("reason", nil, reason)
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionEscalate,
		ModelName:  "Device",
		ObjectID:   detail.DeviceID,
		ObjectRepr: detail.DeviceID + " " + detail.DeviceName,
		Changes:    changes.fields(),
	})
	s.cache.InvalidateStats(ctx)
	return nil
}

// BulkAssign assigns many devices to one target. Each device runs in its own transaction.
func (s *AssignmentService) BulkAssign(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.BulkAssignRequest) (*models.BulkAssignResult, error) {
	plan, err := s.prepareCreate(ctx, perms, req.AssignmentTarget, req.AssignmentType, req.IsTemporary, nil, req.ExpectedReturnDate, req)
	if err != nil {
		return nil, err
	}

	result := &models.BulkAssignResult{
		Created:                []string{},
		SkippedAlreadyAssigned: []string{},
		SkippedUnavailable:     []string{},
		Failed:                 map[string]string{},
	}
	deviceIDs := dedupe(req.DeviceIDs)
	for start := 0; start < len(deviceIDs); start += s.cfg.BulkChunkSize {
		end := start + s.cfg.BulkChunkSize
		if end > len(deviceIDs) {
			end = len(deviceIDs)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			for _, ref := range deviceIDs[start:] {
				result.Failed[ref] = "request cancelled"
			}
			break
		}
		for _, ref := range deviceIDs[start:end] {
			itemPlan := *plan
			_, err := s.execCreate(ctx, actor, ref, &itemPlan)
			s.metrics.RecordTransition("assign", err)
			switch {
			case err == nil:
				result.Created = append(result.Created, ref)
			case errors.Is(err, appErrors.ErrAlreadyAssigned):
				result.SkippedAlreadyAssigned = append(result.SkippedAlreadyAssigned, ref)
			case errors.Is(err, appErrors.ErrDeviceUnavailable):
				result.SkippedUnavailable = append(result.SkippedUnavailable, ref)
			default:
				result.Failed[ref] = appErrors.FromError(err).Message
			}
		}
	}
	result.Counts = models.BulkAssignCounts{
		Created:                len(result.Created),
		SkippedAlreadyAssigned: len(result.SkippedAlreadyAssigned),
		SkippedUnavailable:     len(result.SkippedUnavailable),
		Failed:                 len(result.Failed),
	}
	s.logger.Info("bulk assignment finished",
		zap.Int("created", result.Counts.Created),
		zap.Int("skipped_already_assigned", result.Counts.SkippedAlreadyAssigned),
		zap.Int("skipped_unavailable", result.Counts.SkippedUnavailable),
		zap.Int("failed", result.Counts.Failed))
	return result, nil
}

// Get returns one assignment visible to the caller.
func (s *AssignmentService) Get(ctx context.Context, perms *models.EffectivePermissions, ref string) (*models.AssignmentDetail, error) {
	detail, err := s.loadVisible(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	s.decorate(detail, s.today())
	return detail, nil
}

// List returns assignments narrowed to the caller's scope.
func (s *AssignmentService) List(ctx context.Context, perms *models.EffectivePermissions, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	filter.DepartmentIDs, filter.Restricted = scopeOf(perms)
	today := s.today()
	items, total, err := s.assignments.List(ctx, filter, today)
	if err != nil {
		return nil, nil, repoError(err, "assignment", "list assignments")
	}
	for i := range items {
		s.decorate(&items[i], today)
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Overdue lists active temporary assignments past their expected return date, oldest first.
func (s *AssignmentService) Overdue(ctx context.Context, perms *models.EffectivePermissions) ([]models.AssignmentDetail, error) {
	today := s.today()
	departmentIDs, restricted := scopeOf(perms)
	items, err := s.assignments.ListOverdue(ctx, today, departmentIDs, restricted)
	if err != nil {
		return nil, repoError(err, "assignment", "list overdue assignments")
	}
	for i := range items {
		s.decorate(&items[i], today)
	}
	return items, nil
}

// History lists the lifecycle events of one assignment.
func (s *AssignmentService) History(ctx context.Context, perms *models.EffectivePermissions, ref string) ([]models.AssignmentHistory, error) {
	detail, err := s.loadVisible(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListByAssignment(ctx, detail.ID)
	if err != nil {
		return nil, repoError(err, "history", "list assignment history")
	}
	return entries, nil
}

// StaffActiveCount returns how many active assignments a staff member holds.
func (s *AssignmentService) StaffActiveCount(ctx context.Context, staffRef string) (int, error) {
	staff, err := s.staff.FindByRef(ctx, staffRef)
	if err != nil {
		return 0, repoError(err, "staff", "load staff")
	}
	count, err := s.assignments.CountActiveForStaff(ctx, nil, staff.ID)
	if err != nil {
		return 0, repoError(err, "staff", "count staff assignments")
	}
	return count, nil
}

func (s *AssignmentService) decorate(detail *models.AssignmentDetail, today time.Time) {
	detail.Overdue = detail.Assignment.IsOverdue(today)
	if detail.Overdue {
		detail.DaysOverdue = int(today.Sub(models.DateOnly(*detail.ExpectedReturnDate)).Hours() / 24)
	}
}

// CleanupInactiveStaff returns every active assignment held by staff who left more than
// the grace period ago.
func (s *AssignmentService) CleanupInactiveStaff(ctx context.Context) (*models.StaffCleanupResult, error) {
	cutoff := s.today().AddDate(0, 0, -s.cfg.CleanupGraceDays)
	candidates, err := s.staff.ListCleanupCandidates(ctx, cutoff)
	if err != nil {
		return nil, repoError(err, "staff", "list cleanup candidates")
	}
	system := models.Actor{Username: "system"}
	result := &models.StaffCleanupResult{}
	for _, member := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		active, err := s.assignments.ListActiveForStaff(ctx, member.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", member.EmployeeID, err))
			continue
		}
		result.StaffProcessed++
		for _, assignment := range active {
			if _, err := s.closeAssignment(ctx, system, assignment.ID, nil, "", "staff inactive"); err != nil {
				s.metrics.RecordTransition("cleanup", err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", assignment.AssignmentID, err))
				continue
			}
			s.metrics.RecordTransition("cleanup", nil)
			result.AssignmentsReturned++
		}
	}
	return result, nil
}

// StartCleanup runs CleanupInactiveStaff on a ticker until ctx is cancelled.
func (s *AssignmentService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				result, err := s.CleanupInactiveStaff(ctx)
				if err != nil {
					s.logger.Error("staff cleanup failed", zap.Error(err))
					continue
				}
				if result.AssignmentsReturned > 0 || len(result.Errors) > 0 {
					s.logger.Info("staff cleanup finished",
						zap.Int("staff", result.StaffProcessed),
						zap.Int("returned", result.AssignmentsReturned),
						zap.Strings("errors", result.Errors))
				}
			}
		}
	}()
}

// scopeOf returns the department filter for listings.
func scopeOf(perms *models.EffectivePermissions) ([]string, bool) {
	if !perms.Restricted() {
		return nil, false
	}
	return perms.DepartmentIDs, true
}

func sameTarget(a, b models.Target) bool {
	return eqPtr(a.StaffID, b.StaffID) && eqPtr(a.DepartmentID, b.DepartmentID) && eqPtr(a.LocationID, b.LocationID)
}

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func assignmentRepr(a *models.Assignment, d *models.Device) string {
	return fmt.Sprintf("%s: %s %s", a.AssignmentID, d.DeviceID, d.DeviceName)
}
