package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Role names seeded by inventory-admin setup.
const (
	RoleITAdministrator = "IT_ADMINISTRATOR"
	RoleITOfficer       = "IT_OFFICER"
	RoleDepartmentHead  = "DEPARTMENT_HEAD"
	RoleManager         = "MANAGER"
	RoleGeneralStaff    = "GENERAL_STAFF"
	RoleAuditor         = "AUDITOR"
	RoleVendor          = "VENDOR"
	RoleReadonly        = "READONLY"
)

// Permission identifies a single capability flag.
type Permission string

const (
	PermViewAllDevices       Permission = "can_view_all_devices"
	PermManageAssignments    Permission = "can_manage_assignments"
	PermApproveRequests      Permission = "can_approve_requests"
	PermGenerateReports      Permission = "can_generate_reports"
	PermManageUsers          Permission = "can_manage_users"
	PermSystemAdmin          Permission = "can_system_admin"
	PermManageMaintenance    Permission = "can_manage_maintenance"
	PermManageVendors        Permission = "can_manage_vendors"
	PermBulkOperations       Permission = "can_bulk_operations"
	PermExportData           Permission = "can_export_data"
	PermViewFinancialData    Permission = "can_view_financial_data"
	PermScanQRCodes          Permission = "can_scan_qr_codes"
	PermGenerateQRCodes      Permission = "can_generate_qr_codes"
	PermRestrictedDepartment Permission = "restricted_to_own_department"
)

// PermissionSet is the flat capability map stored as JSONB on roles.
type PermissionSet struct {
	CanViewAllDevices         bool `json:"can_view_all_devices" yaml:"can_view_all_devices"`
	CanManageAssignments      bool `json:"can_manage_assignments" yaml:"can_manage_assignments"`
	CanApproveRequests        bool `json:"can_approve_requests" yaml:"can_approve_requests"`
	CanGenerateReports        bool `json:"can_generate_reports" yaml:"can_generate_reports"`
	CanManageUsers            bool `json:"can_manage_users" yaml:"can_manage_users"`
	CanSystemAdmin            bool `json:"can_system_admin" yaml:"can_system_admin"`
	CanManageMaintenance      bool `json:"can_manage_maintenance" yaml:"can_manage_maintenance"`
	CanManageVendors          bool `json:"can_manage_vendors" yaml:"can_manage_vendors"`
	CanBulkOperations         bool `json:"can_bulk_operations" yaml:"can_bulk_operations"`
	CanExportData             bool `json:"can_export_data" yaml:"can_export_data"`
	CanViewFinancialData      bool `json:"can_view_financial_data" yaml:"can_view_financial_data"`
	CanScanQRCodes            bool `json:"can_scan_qr_codes" yaml:"can_scan_qr_codes"`
	CanGenerateQRCodes        bool `json:"can_generate_qr_codes" yaml:"can_generate_qr_codes"`
	RestrictedToOwnDepartment bool `json:"restricted_to_own_department" yaml:"restricted_to_own_department"`
}

// Has reports whether the capability is granted. System administrators hold every capability.
func (p PermissionSet) Has(perm Permission) bool {
	if p.CanSystemAdmin && perm != PermRestrictedDepartment {
		return true
	}
	switch perm {
	case PermViewAllDevices:
		return p.CanViewAllDevices
	case PermManageAssignments:
		return p.CanManageAssignments
	case PermApproveRequests:
		return p.CanApproveRequests
	case PermGenerateReports:
		return p.CanGenerateReports
	case PermManageUsers:
		return p.CanManageUsers
	case PermSystemAdmin:
		return p.CanSystemAdmin
	case PermManageMaintenance:
		return p.CanManageMaintenance
	case PermManageVendors:
		return p.CanManageVendors
	case PermBulkOperations:
		return p.CanBulkOperations
	case PermExportData:
		return p.CanExportData
	case PermViewFinancialData:
		return p.CanViewFinancialData
	case PermScanQRCodes:
		return p.CanScanQRCodes
	case PermGenerateQRCodes:
		return p.CanGenerateQRCodes
	case PermRestrictedDepartment:
		return p.RestrictedToOwnDepartment
	default:
		return false
	}
}

// Union ORs every capability. Department restriction survives only when both sides are restricted.
func (p PermissionSet) Union(o PermissionSet) PermissionSet {
	return PermissionSet{
		CanViewAllDevices:         p.CanViewAllDevices || o.CanViewAllDevices,
		CanManageAssignments:      p.CanManageAssignments || o.CanManageAssignments,
		CanApproveRequests:        p.CanApproveRequests || o.CanApproveRequests,
		CanGenerateReports:        p.CanGenerateReports || o.CanGenerateReports,
		CanManageUsers:            p.CanManageUsers || o.CanManageUsers,
		CanSystemAdmin:            p.CanSystemAdmin || o.CanSystemAdmin,
		CanManageMaintenance:      p.CanManageMaintenance || o.CanManageMaintenance,
		CanManageVendors:          p.CanManageVendors || o.CanManageVendors,
		CanBulkOperations:         p.CanBulkOperations || o.CanBulkOperations,
		CanExportData:             p.CanExportData || o.CanExportData,
		CanViewFinancialData:      p.CanViewFinancialData || o.CanViewFinancialData,
		CanScanQRCodes:            p.CanScanQRCodes || o.CanScanQRCodes,
		CanGenerateQRCodes:        p.CanGenerateQRCodes || o.CanGenerateQRCodes,
		RestrictedToOwnDepartment: p.RestrictedToOwnDepartment && o.RestrictedToOwnDepartment,
	}
}

// Value marshals the permission set for persistence.
func (p PermissionSet) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal permission set: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB into the permission set.
func (p *PermissionSet) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil || len(data) == 0 {
		*p = PermissionSet{}
		return err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal permission set: %w", err)
	}
	return nil
}

// Role groups a named permission set.
type Role struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Permissions PermissionSet `db:"permissions" json:"permissions"`
	IsActive    bool          `db:"is_active" json:"is_active"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// UserRoleAssignment grants a role to a user for a date window, optionally scoped to a department.
type UserRoleAssignment struct {
	ID           string        `db:"id" json:"id"`
	UserID       string        `db:"user_id" json:"user_id"`
	RoleID       string        `db:"role_id" json:"role_id"`
	RoleName     string        `db:"role_name" json:"role_name"`
	Permissions  PermissionSet `db:"permissions" json:"-"`
	DepartmentID *string       `db:"department_id" json:"department_id,omitempty"`
	StartDate    time.Time     `db:"start_date" json:"start_date"`
	EndDate      *time.Time    `db:"end_date" json:"end_date,omitempty"`
	IsActive     bool          `db:"is_active" json:"is_active"`
	CreatedBy    *string       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// InEffect reports whether the assignment applies on the given day.
func (a UserRoleAssignment) InEffect(day time.Time) bool {
	if !a.IsActive {
		return false
	}
	d := DateOnly(day)
	if DateOnly(a.StartDate).After(d) {
		return false
	}
	return a.EndDate == nil || !DateOnly(*a.EndDate).Before(d)
}

// EffectivePermissions is the resolved authorization state of a user.
type EffectivePermissions struct {
	PermissionSet
	Roles         []string `json:"roles"`
	DepartmentIDs []string `json:"department_ids,omitempty"`
}

// Restricted reports whether listings must be narrowed to DepartmentIDs.
func (e *EffectivePermissions) Restricted() bool {
	return e != nil && e.RestrictedToOwnDepartment && !e.CanSystemAdmin
}

// InScope reports whether a department id is visible. Unrestricted users see everything.
func (e *EffectivePermissions) InScope(departmentID *string) bool {
	if !e.Restricted() {
		return true
	}
	if departmentID == nil {
		return false
	}
	for _, id := range e.DepartmentIDs {
		if id == *departmentID {
			return true
		}
	}
	return false
}

// ResolvePermissions unions the permission sets of every assignment in effect on day.
func ResolvePermissions(assignments []UserRoleAssignment, day time.Time) *EffectivePermissions {
	eff := &EffectivePermissions{}
	seenDept := map[string]struct{}{}
	first := true
	for _, a := range assignments {
		if !a.InEffect(day) {
			continue
		}
		if first {
			eff.PermissionSet = a.Permissions
			first = false
		} else {
			eff.PermissionSet = eff.PermissionSet.Union(a.Permissions)
		}
		eff.Roles = append(eff.Roles, a.RoleName)
		if a.Permissions.RestrictedToOwnDepartment && a.DepartmentID != nil {
			if _, ok := seenDept[*a.DepartmentID]; !ok {
				seenDept[*a.DepartmentID] = struct{}{}
				eff.DepartmentIDs = append(eff.DepartmentIDs, *a.DepartmentID)
			}
		}
	}
	if first {
		// No role in effect: nothing is visible.
		eff.RestrictedToOwnDepartment = true
	}
	return eff
}

// DefaultRolePermissions returns the seeded permission matrix for the built-in roles.
func DefaultRolePermissions() map[string]PermissionSet {
	return map[string]PermissionSet{
		RoleITAdministrator: {
			CanViewAllDevices: true, CanManageAssignments: true, CanApproveRequests: true,
			CanGenerateReports: true, CanManageUsers: true, CanSystemAdmin: true,
			CanManageMaintenance: true, CanManageVendors: true, CanBulkOperations: true,
			CanExportData: true, CanViewFinancialData: true, CanScanQRCodes: true, CanGenerateQRCodes: true,
		},
		RoleITOfficer: {
			CanViewAllDevices: true, CanManageAssignments: true, CanApproveRequests: true,
			CanGenerateReports: true, CanManageMaintenance: true, CanManageVendors: true,
			CanBulkOperations: true, CanExportData: true, CanViewFinancialData: true,
			CanScanQRCodes: true, CanGenerateQRCodes: true,
		},
		RoleDepartmentHead: {
			CanApproveRequests: true, CanGenerateReports: true, CanExportData: true,
			CanScanQRCodes: true, RestrictedToOwnDepartment: true,
		},
		RoleManager: {
			CanManageAssignments: true, CanApproveRequests: true, CanGenerateReports: true,
			CanExportData: true, CanScanQRCodes: true, RestrictedToOwnDepartment: true,
		},
		RoleGeneralStaff: {CanScanQRCodes: true, RestrictedToOwnDepartment: true},
		RoleAuditor: {
			CanViewAllDevices: true, CanGenerateReports: true, CanExportData: true,
			CanViewFinancialData: true, CanScanQRCodes: true,
		},
		RoleVendor: {CanManageMaintenance: true, CanScanQRCodes: true, RestrictedToOwnDepartment: true},
		RoleReadonly: {
			CanViewAllDevices: true, CanGenerateReports: true, CanExportData: true, CanScanQRCodes: true,
		},
	}
}

// DefaultRoles is the built-in role catalogue with its permission matrices.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleITAdministrator, Description: "Full system access and administration capabilities", IsActive: true, Permissions: PermissionSet{
			CanViewAllDevices: true, CanManageAssignments: true, CanApproveRequests: true, CanGenerateReports: true,
			CanManageUsers: true, CanSystemAdmin: true, CanManageMaintenance: true, CanManageVendors: true,
			CanBulkOperations: true, CanExportData: true, CanViewFinancialData: true, CanScanQRCodes: true, CanGenerateQRCodes: true,
		}},
		{Name: RoleITOfficer, Description: "IT operations and device management", IsActive: true, Permissions: PermissionSet{
			CanViewAllDevices: true, CanManageAssignments: true, CanApproveRequests: true, CanGenerateReports: true,
			CanManageMaintenance: true, CanManageVendors: true, CanBulkOperations: true, CanExportData: true,
			CanViewFinancialData: true, CanScanQRCodes: true, CanGenerateQRCodes: true,
		}},
		{Name: RoleDepartmentHead, Description: "Department-level device oversight and approval", IsActive: true, Permissions: PermissionSet{
			CanApproveRequests: true, CanGenerateReports: true, CanExportData: true, CanScanQRCodes: true,
			RestrictedToOwnDepartment: true,
		}},
		{Name: RoleManager, Description: "Mid-level management with departmental device access", IsActive: true, Permissions: PermissionSet{
			CanManageAssignments: true, CanApproveRequests: true, CanGenerateReports: true, CanExportData: true,
			CanScanQRCodes: true, RestrictedToOwnDepartment: true,
		}},
		{Name: RoleGeneralStaff, Description: "Basic staff access to assigned devices", IsActive: true, Permissions: PermissionSet{
			CanScanQRCodes: true, RestrictedToOwnDepartment: true,
		}},
		{Name: RoleAuditor, Description: "Audit and inspection access across all departments", IsActive: true, Permissions: PermissionSet{
			CanViewAllDevices: true, CanGenerateReports: true, CanExportData: true, CanViewFinancialData: true, CanScanQRCodes: true,
		}},
		{Name: RoleVendor, Description: "External vendor access for maintenance and support", IsActive: true, Permissions: PermissionSet{
			CanManageMaintenance: true, CanScanQRCodes: true, RestrictedToOwnDepartment: true,
		}},
		{Name: RoleReadonly, Description: "Read-only access for reporting and monitoring", IsActive: true, Permissions: PermissionSet{
			CanViewAllDevices: true, CanGenerateReports: true, CanExportData: true, CanScanQRCodes: true,
		}},
	}
}
