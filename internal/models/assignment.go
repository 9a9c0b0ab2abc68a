package models

import "time"

// AssignmentType classifies why a device is allocated.
type AssignmentType string

const (
	AssignmentPersonal     AssignmentType = "PERSONAL"
	AssignmentDepartmental AssignmentType = "DEPARTMENTAL"
	AssignmentProject      AssignmentType = "PROJECT"
	AssignmentTemporary    AssignmentType = "TEMPORARY"
	AssignmentShared       AssignmentType = "SHARED"
)

// Valid reports whether t is a known assignment type.
func (t AssignmentType) Valid() bool {
	switch t {
	case AssignmentPersonal, AssignmentDepartmental, AssignmentProject, AssignmentTemporary, AssignmentShared:
		return true
	}
	return false
}

// Target is the one-of-three recipient of an assignment.
type Target struct {
	StaffID      *string `json:"staff_id,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	LocationID   *string `json:"location_id,omitempty"`
}

// Empty reports whether no recipient is set.
func (t Target) Empty() bool {
	return isBlank(t.StaffID) && isBlank(t.DepartmentID) && isBlank(t.LocationID)
}

// Normalize drops blank ids so they persist as NULL.
func (t Target) Normalize() Target {
	return Target{StaffID: nilIfBlank(t.StaffID), DepartmentID: nilIfBlank(t.DepartmentID), LocationID: nilIfBlank(t.LocationID)}
}

// Assignment allocates one device to a staff member, department or location.
type Assignment struct {
	ID                     string           `db:"id" json:"id"`
	AssignmentID           string           `db:"assignment_id" json:"assignment_id"`
	DeviceID               string           `db:"device_id" json:"device_id"`
	AssignedToStaffID      *string          `db:"assigned_to_staff_id" json:"assigned_to_staff_id,omitempty"`
	AssignedToDepartmentID *string          `db:"assigned_to_department_id" json:"assigned_to_department_id,omitempty"`
	AssignedToLocationID   *string          `db:"assigned_to_location_id" json:"assigned_to_location_id,omitempty"`
	AssignmentType         AssignmentType   `db:"assignment_type" json:"assignment_type"`
	Purpose                string           `db:"purpose" json:"purpose"`
	Conditions             string           `db:"conditions" json:"conditions"`
	Notes                  string           `db:"notes" json:"notes"`
	IsTemporary            bool             `db:"is_temporary" json:"is_temporary"`
	StartDate              time.Time        `db:"start_date" json:"start_date"`
	ExpectedReturnDate     *time.Time       `db:"expected_return_date" json:"expected_return_date,omitempty"`
	ActualReturnDate       *time.Time       `db:"actual_return_date" json:"actual_return_date,omitempty"`
	ReturnCondition        *DeviceCondition `db:"return_condition" json:"return_condition,omitempty"`
	ReturnNotes            *string          `db:"return_notes" json:"return_notes,omitempty"`
	IsActive               bool             `db:"is_active" json:"is_active"`
	CreatedBy              *string          `db:"created_by" json:"created_by,omitempty"`
	RequestedBy            *string          `db:"requested_by" json:"requested_by,omitempty"`
	ApprovedBy             *string          `db:"approved_by" json:"approved_by,omitempty"`
	UpdatedBy              *string          `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt              time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time        `db:"updated_at" json:"updated_at"`
}

// Target returns the current recipient.
func (a Assignment) Target() Target {
	return Target{StaffID: a.AssignedToStaffID, DepartmentID: a.AssignedToDepartmentID, LocationID: a.AssignedToLocationID}
}

// IsOverdue reports whether a temporary assignment is still out past its expected return date.
func (a Assignment) IsOverdue(today time.Time) bool {
	return a.IsActive && a.IsTemporary && a.ActualReturnDate == nil &&
		a.ExpectedReturnDate != nil && DateOnly(*a.ExpectedReturnDate).Before(DateOnly(today))
}

// AssignmentDetail joins display names onto an assignment.
type AssignmentDetail struct {
	Assignment
	DeviceCode      string  `db:"device_code" json:"device_code"`
	DeviceName      string  `db:"device_name" json:"device_name"`
	StaffEmployeeID *string `db:"staff_employee_id" json:"staff_employee_id,omitempty"`
	StaffName       *string `db:"staff_name" json:"staff_name,omitempty"`
	DepartmentName  *string `db:"department_name" json:"department_name,omitempty"`
	ScopeDepartment *string `db:"scope_department_id" json:"-"`
	LocationCode    *string `db:"location_code" json:"location_code,omitempty"`
	Overdue         bool    `db:"-" json:"is_overdue"`
	DaysOverdue     int     `db:"-" json:"days_overdue,omitempty"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	DeviceID      string
	StaffID       string
	DepartmentID  string
	LocationID    string
	Active        *bool
	Type          string
	Overdue       bool
	Search        string
	DepartmentIDs []string
	Restricted    bool
	Page          int
	PageSize      int
}

// HistoryAction is the kind of event recorded in assignment history.
type HistoryAction string

const (
	HistoryAssigned    HistoryAction = "ASSIGNED"
	HistoryTransferred HistoryAction = "TRANSFERRED"
	HistoryReturned    HistoryAction = "RETURNED"
	HistoryExtended    HistoryAction = "EXTENDED"
	HistoryEscalated   HistoryAction = "ESCALATED"
)

// AssignmentHistory is an append-only lifecycle event.
type AssignmentHistory struct {
	ID                   string        `db:"id" json:"id"`
	AssignmentID         string        `db:"assignment_id" json:"assignment_id"`
	DeviceID             string        `db:"device_id" json:"device_id"`
	Action               HistoryAction `db:"action" json:"action"`
	PreviousStaffID      *string       `db:"previous_staff_id" json:"previous_staff_id,omitempty"`
	PreviousDepartmentID *string       `db:"previous_department_id" json:"previous_department_id,omitempty"`
	PreviousLocationID   *string       `db:"previous_location_id" json:"previous_location_id,omitempty"`
	NewStaffID           *string       `db:"new_staff_id" json:"new_staff_id,omitempty"`
	NewDepartmentID      *string       `db:"new_department_id" json:"new_department_id,omitempty"`
	NewLocationID        *string       `db:"new_location_id" json:"new_location_id,omitempty"`
	Reason               string        `db:"reason" json:"reason"`
	ChangedBy            *string       `db:"changed_by" json:"changed_by,omitempty"`
	ChangedAt            time.Time     `db:"changed_at" json:"changed_at"`
}

// BulkAssignResult reports per-device outcomes of a bulk assignment.
type BulkAssignResult struct {
	Created                []string          `json:"created"`
	SkippedAlreadyAssigned []string          `json:"skipped_already_assigned"`
	SkippedUnavailable     []string          `json:"skipped_unavailable"`
	Failed                 map[string]string `json:"failed,omitempty"`
	Counts                 BulkAssignCounts  `json:"counts"`
}

// BulkAssignCounts summarises a bulk assignment.
type BulkAssignCounts struct {
	Created                int `json:"created"`
	SkippedAlreadyAssigned int `json:"skipped_already_assigned"`
	SkippedUnavailable     int `json:"skipped_unavailable"`
	Failed                 int `json:"failed"`
}

// StaffCleanupResult summarises one inactive-staff sweep.
type StaffCleanupResult struct {
	StaffProcessed      int      `json:"staff_processed"`
	AssignmentsReturned int      `json:"assignments_returned"`
	Errors              []string `json:"errors,omitempty"`
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

func nilIfBlank(s *string) *string {
	if isBlank(s) {
		return nil
	}
	v := *s
	return &v
}
