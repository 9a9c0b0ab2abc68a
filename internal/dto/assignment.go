package dto

import "github.com/bps-secretariat/bps-inventory/internal/models"

// AssignmentTarget names the recipient. Staff may be given by id or employee id,
// departments by id or code, locations by id.
type AssignmentTarget struct {
	StaffID      *string `json:"staff_id"`
	DepartmentID *string `json:"department_id"`
	LocationID   *string `json:"location_id"`
}

// CreateAssignmentRequest starts an assignment. DeviceID accepts the row id or
// the generated device id.
type CreateAssignmentRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
	AssignmentTarget
	AssignmentType     models.AssignmentType `json:"assignment_type" validate:"required,oneof=PERSONAL DEPARTMENTAL PROJECT TEMPORARY SHARED"`
	Purpose            string                `json:"purpose" validate:"max=500"`
	Conditions         string                `json:"conditions"`
	Notes              string                `json:"notes"`
	IsTemporary        bool                  `json:"is_temporary"`
	StartDate          *string               `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedReturnDate *string               `json:"expected_return_date" validate:"omitempty,datetime=2006-01-02"`
	RequestedBy        *string               `json:"requested_by"`
	ApprovedBy         *string               `json:"approved_by"`
}

// TransferAssignmentRequest moves an active assignment to a new target.
type TransferAssignmentRequest struct {
	AssignmentTarget
	Reason string `json:"reason" validate:"required,max=500"`
}

// ReturnAssignmentRequest closes an active assignment.
type ReturnAssignmentRequest struct {
	ReturnCondition models.DeviceCondition `json:"return_condition" validate:"required"`
	Notes           string                 `json:"notes"`
}

// ExtendAssignmentRequest pushes out the expected return date.
type ExtendAssignmentRequest struct {
	ExpectedReturnDate string `json:"expected_return_date" validate:"required,datetime=2006-01-02"`
	Reason             string `json:"reason"`
}

// EscalateRequest flags the device behind an assignment as critical.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// BulkAssignRequest assigns many devices to one target.
type BulkAssignRequest struct {
	DeviceIDs []string `json:"device_ids" validate:"required,min=1,max=500"`
	AssignmentTarget
	AssignmentType     models.AssignmentType `json:"assignment_type" validate:"required,oneof=PERSONAL DEPARTMENTAL PROJECT TEMPORARY SHARED"`
	Purpose            string                `json:"purpose" validate:"max=500"`
	Conditions         string                `json:"conditions"`
	IsTemporary        bool                  `json:"is_temporary"`
	ExpectedReturnDate *string               `json:"expected_return_date" validate:"omitempty,datetime=2006-01-02"`
}
