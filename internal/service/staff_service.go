package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	FindByRef(ctx context.Context, ref string) (*models.Staff, error)
	Create(ctx context.Context, staff *models.Staff) error
	Update(ctx context.Context, staff *models.Staff) error
	Deactivate(ctx context.Context, id string, leavingDate, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountAssignments(ctx context.Context, id string) (active int, total int, err error)
}

type departmentLookup interface {
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
}

// StaffService manages the people devices can be assigned to.
type StaffService struct {
	repo        staffRepository
	departments departmentLookup
	audit       *AuditService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewStaffService constructs the staff service.
func NewStaffService(repo staffRepository, departments departmentLookup, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, departments: departments, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// List returns staff visible to the caller.
func (s *StaffService) List(ctx context.Context, perms *models.EffectivePermissions, filter models.StaffFilter) ([]models.Staff, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	filter.DepartmentIDs, filter.Restricted = scopeOf(perms)
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "staff", "list staff")
	}
	return staff, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one staff member by id or employee id.
func (s *StaffService) Get(ctx context.Context, perms *models.EffectivePermissions, ref string) (*models.Staff, error) {
	staff, err := s.repo.FindByRef(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, repoError(err, "staff", "load staff")
	}
	if !perms.InScope(&staff.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
	}
	return staff, nil
}

// Create registers a staff member in an active department.
func (s *StaffService) Create(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.CreateStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	joining, err := parseDate("joining_date", &req.JoiningDate)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if joining.After(models.DateOnly(now)) {
		return nil, appErrors.Field("joining_date", "cannot be in the future")
	}
	departmentID := strings.TrimSpace(req.DepartmentID)
	if err := s.checkDepartment(ctx, perms, departmentID); err != nil {
		return nil, err
	}

	staff := &models.Staff{
		ID:           uuid.NewString(),
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		FullName:     strings.TrimSpace(req.FullName),
		Designation:  strings.TrimSpace(req.Designation),
		DepartmentID: departmentID,
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		JoiningDate:  *joining,
		IsActive:     true,
		UserID:       trimPtr(req.UserID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, repoError(err, "staff", "create staff")
	}

	changes := changeSet{}
	changes.add("employee_id", nil, staff.EmployeeID)
	changes.add("full_name", nil, staff.FullName)
	changes.add("department_id", nil, staff.DepartmentID)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  "Staff",
		ObjectID:   staff.ID,
		ObjectRepr: staffRepr(staff),
		Changes:    changes.fields(),
	})
	return staff, nil
}

// Update patches mutable staff fields.
func (s *StaffService) Update(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.UpdateStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	staff, err := s.Get(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	before := *staff
	if req.FullName != nil {
		staff.FullName = strings.TrimSpace(*req.FullName)
		if staff.FullName == "" {
			return nil, appErrors.Field("full_name", "is required")
		}
	}
	if req.Designation != nil {
		staff.Designation = strings.TrimSpace(*req.Designation)
	}
	if req.DepartmentID != nil {
		departmentID := strings.TrimSpace(*req.DepartmentID)
		if departmentID != staff.DepartmentID {
			if err := s.checkDepartment(ctx, perms, departmentID); err != nil {
				return nil, err
			}
			staff.DepartmentID = departmentID
		}
	}
	if req.Phone != nil {
		staff.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		staff.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.UserID != nil {
		staff.UserID = trimPtr(req.UserID)
	}

	changes := changeSet{}
	changes.add("full_name", before.FullName, staff.FullName)
	changes.add("designation", before.Designation, staff.Designation)
	changes.add("department_id", before.DepartmentID, staff.DepartmentID)
	changes.add("phone", before.Phone, staff.Phone)
	changes.add("email", before.Email, staff.Email)
	changes.add("user_id", before.UserID, staff.UserID)
	if len(changes) == 0 {
		return staff, nil
	}

	staff.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, repoError(err, "staff", "update staff")
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionUpdate,
		ModelName:  "Staff",
		ObjectID:   staff.ID,
		ObjectRepr: staffRepr(staff),
		Changes:    changes.fields(),
	})
	return staff, nil
}

// Deactivate is the soft delete. Active assignments are left for the scheduled cleanup.
func (s *StaffService) Deactivate(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.DeactivateStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	staff, err := s.Get(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	if !staff.IsActive {
		return staff, nil
	}
	now := s.now().UTC()
	leaving := models.DateOnly(now)
	if req.LeavingDate != nil {
		parsed, err := parseDate("leaving_date", req.LeavingDate)
		if err != nil {
			return nil, err
		}
		if parsed.Before(staff.JoiningDate) {
			return nil, appErrors.Field("leaving_date", "cannot be before joining_date")
		}
		leaving = *parsed
	}
	if err := s.repo.Deactivate(ctx, staff.ID, leaving, now); err != nil {
		return nil, repoError(err, "staff", "deactivate staff")
	}

	changes := changeSet{}
	changes.add("is_active", true, false)
	changes.add("leaving_date", nil, leaving)
	staff.IsActive = false
	staff.LeavingDate = &leaving
	staff.UpdatedAt = now
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionDeactivate,
		ModelName:  "Staff",
		ObjectID:   staff.ID,
		ObjectRepr: staffRepr(staff),
		Changes:    changes.fields(),
	})
	return staff, nil
}

// Delete removes a staff member. Anyone still holding a device must be deactivated instead.
func (s *StaffService) Delete(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string) error {
	staff, err := s.Get(ctx, perms, ref)
	if err != nil {
		return err
	}
	active, total, err := s.repo.CountAssignments(ctx, staff.ID)
	if err != nil {
		return repoError(err, "staff", "count staff assignments")
	}
	if active > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "staff member still holds active assignments; deactivate instead")
	}
	if total > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "staff member has assignment history; deactivate instead")
	}
	if err := s.repo.Delete(ctx, staff.ID); err != nil {
		return repoError(err, "staff", "delete staff")
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionDelete,
		ModelName:  "Staff",
		ObjectID:   staff.ID,
		ObjectRepr: staffRepr(staff),
	})
	return nil
}

func (s *StaffService) checkDepartment(ctx context.Context, perms *models.EffectivePermissions, departmentID string) error {
	if departmentID == "" {
		return appErrors.Field("department_id", "is required")
	}
	department, err := s.departments.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Field("department_id", "does not exist")
		}
		return repoError(err, "department", "load department")
	}
	if !department.IsActive {
		return appErrors.Field("department_id", "is inactive")
	}
	if !perms.InScope(&department.ID) {
		return appErrors.Clone(appErrors.ErrForbidden, "department is outside your scope")
	}
	return nil
}

func staffRepr(staff *models.Staff) string {
	return staff.EmployeeID + " " + staff.FullName
}
