package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// LoginResponse returns the issued session token and user info.
type LoginResponse struct {
	Token       string               `json:"token"`
	CSRFToken   string               `json:"csrf_token"`
	SessionID   string               `json:"session_id"`
	ExpiresAt   time.Time            `json:"expires_at"`
	RememberMe  bool                 `json:"remember_me"`
	User        UserInfo             `json:"user"`
	Permissions EffectivePermissions `json:"permissions"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// JWTClaims is the payload of the session token.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	CSRF      string `json:"csrf"`
	jwt.RegisteredClaims
}

// SessionCloseReason explains why a session ended.
const (
	SessionClosedLogout         = "logout"
	SessionClosedIdle           = "idle_timeout"
	SessionClosedExpired        = "expired"
	SessionClosedPasswordChange = "password_change"
	SessionClosedDeactivated    = "account_deactivated"
)

// UserSession is a server-side login session.
type UserSession struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	RememberMe   bool       `db:"remember_me" json:"remember_me"`
	IPAddress    string     `db:"ip_address" json:"ip_address"`
	UserAgent    string     `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastActivity time.Time  `db:"last_activity" json:"last_activity"`
	ExpiresAt    time.Time  `db:"expires_at" json:"expires_at"`
	ClosedAt     *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CloseReason  *string    `db:"close_reason" json:"close_reason,omitempty"`
}

// Open reports whether the session has neither been closed nor passed its hard expiry.
func (s UserSession) Open(now time.Time) bool {
	return s.ClosedAt == nil && now.Before(s.ExpiresAt)
}

// SessionStatus answers the check-session probe.
type SessionStatus struct {
	Active           bool  `json:"active"`
	ExpiresInSeconds int64 `json:"expires_in_seconds"`
}

// Profile is the current user with resolved permissions.
type Profile struct {
	User        UserInfo              `json:"user"`
	Permissions *EffectivePermissions `json:"permissions"`
	LastLogin   *time.Time            `json:"last_login,omitempty"`
	Staff       *Staff                `json:"staff,omitempty"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User        UserInfo
	SessionID   string
	CSRFToken   string
	Permissions *EffectivePermissions
}

// Actor converts the principal into an audit actor.
func (p *Principal) Actor(ip, userAgent string) Actor {
	if p == nil {
		return Actor{IP: ip, UserAgent: userAgent}
	}
	return Actor{UserID: p.User.ID, Username: p.User.Username, IP: ip, UserAgent: userAgent}
}
