package service

import (
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

var (
	employeeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	phonePattern      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	macPattern        = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
)

// NewValidator returns a validator with the inventory field rules registered and
// errors keyed by json field name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("employee_id", func(fl validator.FieldLevel) bool {
		return employeeIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		digits := strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String())
		return phonePattern.MatchString(digits)
	})
	_ = v.RegisterValidation("mac_address", func(fl validator.FieldLevel) bool {
		return macPattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError converts validator output into a field-keyed validation error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = describeTag(fe)
	}
	return appErrors.Validation(fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must match " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "employee_id":
		return "must be 3-20 letters, digits, dashes or underscores"
	case "phone":
		return "must be 10-15 digits"
	case "mac_address":
		return "must be a MAC address like AA:BB:CC:DD:EE:FF"
	case "ip":
		return "must be an IP address"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// parseDate reads an optional YYYY-MM-DD string. Format is checked by the validator.
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, appErrors.Field(field, "must match 2006-01-02")
	}
	return &t, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// repoError maps repository failures: missing rows become not found, typed
// errors pass through, anything else is an internal error.
func repoError(err error, what, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op)
}
