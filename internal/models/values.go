package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO date format used for date-only columns and exports.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders an optional date as YYYY-MM-DD.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// Specifications is a free-form key/value map persisted as JSONB.
type Specifications map[string]string

// Value marshals the map to JSON.
func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]string(s))
	if err != nil {
		return nil, fmt.Errorf("marshal specifications: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB into the map.
func (s *Specifications) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	out := map[string]string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("unmarshal specifications: %w", err)
		}
	}
	*s = out
	return nil
}

// StringList is a JSONB array of strings.
type StringList []string

// Value marshals the list to JSON.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB array.
func (l *StringList) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	out := []string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("unmarshal string list: %w", err)
		}
	}
	*l = out
	return nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T for json column", value)
	}
}
