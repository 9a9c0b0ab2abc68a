package dto

import "github.com/bps-secretariat/bps-inventory/internal/models"

// RoleAssignmentInput is one requested role grant.
type RoleAssignmentInput struct {
	RoleID       string  `json:"role_id" validate:"required"`
	DepartmentID *string `json:"department_id"`
	StartDate    *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// EditRolesRequest replaces a user's role assignments.
type EditRolesRequest struct {
	Assignments []RoleAssignmentInput `json:"assignments" validate:"dive"`
}

// UserDetail is a user with role assignments and effective permissions.
type UserDetail struct {
	User        models.User                  `json:"user"`
	Roles       []models.UserRoleAssignment  `json:"roles"`
	Permissions *models.EffectivePermissions `json:"permissions"`
}

// CreateUserRequest registers a login account. Used by the setup command.
type CreateUserRequest struct {
	Username string   `json:"username" yaml:"username" validate:"required,max=150"`
	Email    string   `json:"email" yaml:"email" validate:"omitempty,email"`
	FullName string   `json:"full_name" yaml:"full_name" validate:"required"`
	Password string   `json:"password" yaml:"password" validate:"required,min=8"`
	Roles    []string `json:"roles" yaml:"roles"`
}

// ToggleStatusResponse reports the new account state.
type ToggleStatusResponse struct {
	ID             string `json:"id"`
	IsActive       bool   `json:"is_active"`
	SessionsClosed bool   `json:"sessions_closed"`
}
