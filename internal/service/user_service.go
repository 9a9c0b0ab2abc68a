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
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
	RoleAssignments(ctx context.Context, userID string) ([]models.UserRoleAssignment, error)
	ReplaceRoleAssignments(ctx context.Context, userID string, assignments []models.UserRoleAssignment) error
	ListRoles(ctx context.Context) ([]models.Role, error)
}

type sessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID, reason string) error
}

// UserService administers accounts and their role grants.
type UserService struct {
	repo        userRepository
	departments departmentLookup
	sessions    sessionRevoker
	audit       *AuditService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(repo userRepository, departments departmentLookup, sessions sessionRevoker, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, departments: departments, sessions: sessions, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// List returns paginated users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "user", "list users")
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a user with role grants and effective permissions.
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserDetail, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "user", "load user")
	}
	roles, err := s.repo.RoleAssignments(ctx, user.ID)
	if err != nil {
		return nil, repoError(err, "role assignment", "load role assignments")
	}
	return &dto.UserDetail{
		User:        *user,
		Roles:       roles,
		Permissions: models.ResolvePermissions(roles, s.now()),
	}, nil
}

// Roles lists the role catalogue.
func (s *UserService) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, repoError(err, "role", "list roles")
	}
	return roles, nil
}

// Create registers an account and grants the named roles without a department scope.
func (s *UserService) Create(ctx context.Context, actor models.Actor, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	byName, err := s.rolesByName(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	grants := make([]models.UserRoleAssignment, 0, len(req.Roles))
	for _, name := range req.Roles {
		role, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, appErrors.Field("roles", "unknown role "+name)
		}
		grants = append(grants, models.UserRoleAssignment{
			ID:        uuid.NewString(),
			RoleID:    role.ID,
			RoleName:  role.Name,
			StartDate: models.DateOnly(now),
			IsActive:  true,
			CreatedBy: actor.UserIDPtr(),
			CreatedAt: now,
		})
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, repoError(err, "user", "create user")
	}
	if len(grants) > 0 {
		if err := s.repo.ReplaceRoleAssignments(ctx, user.ID, grants); err != nil {
			return nil, repoError(err, "role assignment", "assign roles")
		}
	}

	changes := changeSet{}
	changes.add("username", nil, user.Username)
	changes.add("roles", nil, strings.Join(req.Roles, ","))
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  "User",
		ObjectID:   user.ID,
		ObjectRepr: user.Username,
		Changes:    changes.fields(),
	})
	return user, nil
}

// EditRoles replaces every role grant of a user.
func (s *UserService) EditRoles(ctx context.Context, actor models.Actor, userID string, req dto.EditRolesRequest) (*dto.UserDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, repoError(err, "role", "list roles")
	}
	byID := make(map[string]models.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}

	now := s.now().UTC()
	grants := make([]models.UserRoleAssignment, 0, len(req.Assignments))
	for i, in := range req.Assignments {
		field := fmt.Sprintf("assignments[%d]", i)
		role, ok := byID[strings.TrimSpace(in.RoleID)]
		if !ok {
			return nil, appErrors.Field(field+".role_id", "does not exist")
		}
		if !role.IsActive {
			return nil, appErrors.Field(field+".role_id", "role is inactive")
		}
		start, err := parseDate(field+".start_date", in.StartDate)
		if err != nil {
			return nil, err
		}
		if start == nil {
			today := models.DateOnly(now)
			start = &today
		}
		end, err := parseDate(field+".end_date", in.EndDate)
		if err != nil {
			return nil, err
		}
		if end != nil && end.Before(*start) {
			return nil, appErrors.Field(field+".end_date", "cannot be before start_date")
		}
		department := trimPtr(in.DepartmentID)
		if department != nil {
			if err := s.checkDepartment(ctx, field+".department_id", *department); err != nil {
				return nil, err
			}
		}
		grants = append(grants, models.UserRoleAssignment{
			ID:           uuid.NewString(),
			UserID:       current.User.ID,
			RoleID:       role.ID,
			RoleName:     role.Name,
			Permissions:  role.Permissions,
			DepartmentID: department,
			StartDate:    *start,
			EndDate:      end,
			IsActive:     true,
			CreatedBy:    actor.UserIDPtr(),
			CreatedAt:    now,
		})
	}

	if err := s.repo.ReplaceRoleAssignments(ctx, current.User.ID, grants); err != nil {
		return nil, repoError(err, "role assignment", "replace role assignments")
	}

	changes := changeSet{}
	changes.add("roles", roleNames(current.Roles), roleNames(grants))
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionUpdate,
		ModelName:  "User",
		ObjectID:   current.User.ID,
		ObjectRepr: current.User.Username,
		Changes:    changes.fields(),
	})
	return &dto.UserDetail{
		User:        current.User,
		Roles:       grants,
		Permissions: models.ResolvePermissions(grants, now),
	}, nil
}

// ToggleStatus flips is_active. Deactivation closes every open session of the user.
func (s *UserService) ToggleStatus(ctx context.Context, actor models.Actor, userID string) (*dto.ToggleStatusResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user", "load user")
	}
	if user.ID == actor.UserID && user.IsActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "you cannot deactivate your own account")
	}
	active := !user.IsActive
	if err := s.repo.SetActive(ctx, user.ID, active, s.now().UTC()); err != nil {
		return nil, repoError(err, "user", "update user status")
	}

	resp := &dto.ToggleStatusResponse{ID: user.ID, IsActive: active}
	if !active && s.sessions != nil {
		if err := s.sessions.RevokeUserSessions(ctx, user.ID, models.SessionClosedDeactivated); err != nil {
			s.logger.Warn("failed to revoke sessions of deactivated user", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			resp.SessionsClosed = true
		}
	}

	action := models.AuditActionUpdate
	if !active {
		action = models.AuditActionDeactivate
	}
	changes := changeSet{}
	changes.add("is_active", user.IsActive, active)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     action,
		ModelName:  "User",
		ObjectID:   user.ID,
		ObjectRepr: user.Username,
		Changes:    changes.fields(),
	})
	return resp, nil
}

func (s *UserService) rolesByName(ctx context.Context) (map[string]models.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, repoError(err, "role", "list roles")
	}
	out := make(map[string]models.Role, len(roles))
	for _, r := range roles {
		out[strings.ToUpper(r.Name)] = r
	}
	return out, nil
}

func (s *UserService) checkDepartment(ctx context.Context, field, id string) error {
	if s.departments == nil {
		return nil
	}
	department, err := s.departments.GetDepartment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Field(field, "does not exist")
		}
		return repoError(err, "department", "load department")
	}
	if !department.IsActive {
		return appErrors.Field(field, "is inactive")
	}
	return nil
}

func roleNames(grants []models.UserRoleAssignment) string {
	names := make([]string, 0, len(grants))
	for _, g := range grants {
		name := g.RoleName
		if g.DepartmentID != nil {
			name += "@" + *g.DepartmentID
		}
		names = append(names, name)
	}
	return strings.Join(names, ",")
}
