package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on code so cloned sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "authentication required")
	ErrSessionExpired     = New("SESSION_EXPIRED", http.StatusUnauthorized, "session expired")
	ErrCSRF               = New("CSRF_FAILED", http.StatusForbidden, "csrf token missing or invalid")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict, refresh and retry")
	ErrAlreadyAssigned    = New("ALREADY_ASSIGNED", http.StatusConflict, "device already has an active assignment")
	ErrDuplicate          = New("DUPLICATE", http.StatusConflict, "duplicate value")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusConflict, "operation not allowed in current state")
	ErrDeviceUnavailable  = New("DEVICE_UNAVAILABLE", http.StatusConflict, "device is not in an assignable state")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrReportTooLarge     = New("REPORT_TOO_LARGE", http.StatusUnprocessableEntity, "report exceeds record limit")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Fields != nil {
		clone.Fields = make(map[string]string, len(err.Fields))
		for k, v := range err.Fields {
			clone.Fields[k] = v
		}
	}
	return &clone
}

// Validation builds a validation error carrying field-level messages.
func Validation(fields map[string]string) *Error {
	msg := ErrValidation.Message
	if len(fields) == 1 {
		for field, reason := range fields {
			msg = fmt.Sprintf("%s: %s", field, reason)
		}
	}
	out := Clone(ErrValidation, msg)
	out.Fields = fields
	return out
}

// Field is shorthand for a single-field validation error.
func Field(field, reason string) *Error {
	return Validation(map[string]string{field: reason})
}
