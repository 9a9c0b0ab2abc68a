package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit actions.
const (
	AuditActionCreate           = "CREATE"
	AuditActionUpdate           = "UPDATE"
	AuditActionDelete           = "DELETE"
	AuditActionRetire           = "RETIRE"
	AuditActionDeactivate       = "DEACTIVATE"
	AuditActionAssign           = "ASSIGN"
	AuditActionTransfer         = "TRANSFER"
	AuditActionReturn           = "RETURN"
	AuditActionExtend           = "EXTEND"
	AuditActionEscalate         = "ESCALATE"
	AuditActionLogin            = "LOGIN"
	AuditActionLoginFailed      = "LOGIN_FAILED"
	AuditActionLogout           = "LOGOUT"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionPermissionDenied = "PERMISSION_DENIED"
	AuditActionQRGenerate       = "QR_GENERATE"
	AuditActionView             = "VIEW"
	AuditActionExport           = "EXPORT"
)

// ObjectReprLimit bounds AuditLog.ObjectRepr.
const ObjectReprLimit = 200

// FieldChange captures the old and new value of a single field.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// FieldChanges maps field names to their change, persisted as JSONB.
type FieldChanges map[string]FieldChange

// Value marshals changes to JSON.
func (c FieldChanges) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]FieldChange(c))
	if err != nil {
		return nil, fmt.Errorf("marshal field changes: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB changes.
func (c *FieldChanges) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	out := map[string]FieldChange{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("unmarshal field changes: %w", err)
		}
	}
	*c = out
	return nil
}

// AuditLog is an append-only record of a mutating or security relevant action.
type AuditLog struct {
	ID         string       `db:"id" json:"id"`
	UserID     *string      `db:"user_id" json:"user_id,omitempty"`
	Action     string       `db:"action" json:"action"`
	ModelName  string       `db:"model_name" json:"model_name"`
	ObjectID   string       `db:"object_id" json:"object_id"`
	ObjectRepr string       `db:"object_repr" json:"object_repr"`
	Changes    FieldChanges `db:"changes" json:"changes"`
	IPAddress  string       `db:"ip_address" json:"ip_address"`
	UserAgent  string       `db:"user_agent" json:"user_agent"`
	Timestamp  time.Time    `db:"timestamp" json:"timestamp"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	UserID    string
	Action    string
	ModelName string
	ObjectID  string
	From      *time.Time
	To        *time.Time
	Before    *time.Time
	Page      int
	PageSize  int
}

// Actor identifies who performed an operation and from where.
type Actor struct {
	UserID    string
	Username  string
	IP        string
	UserAgent string
}

// UserIDPtr returns nil for anonymous actors.
func (a Actor) UserIDPtr() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}
