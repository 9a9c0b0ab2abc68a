package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdateLastActivity(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RoleAssignments(ctx context.Context, userID string) ([]models.UserRoleAssignment, error)
}

type sessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	FindByID(ctx context.Context, id string) (*models.UserSession, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Close(ctx context.Context, id, reason string, at time.Time) error
	CloseOthers(ctx context.Context, userID, keepID, reason string, at time.Time) ([]string, error)
}

type sessionActivity interface {
	StartIdle(ctx context.Context, sessionID, userID string, idle time.Duration) error
	Refresh(ctx context.Context, sessionID string, idle time.Duration) (bool, error)
	Remaining(ctx context.Context, sessionID string) (time.Duration, error)
	Revoke(ctx context.Context, sessionIDs ...string) error
	ShouldRecordActivity(ctx context.Context, userID string, window time.Duration) (bool, error)
	ForgetActivity(ctx context.Context, userID string) error
}

type staffActivity interface {
	FindByUserID(ctx context.Context, userID string) (*models.Staff, error)
	TouchActivity(ctx context.Context, userID string, at time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret      string
	Issuer           string
	SessionTTL       time.Duration
	RememberFor      time.Duration
	IdleTimeout      time.Duration
	ActivityThrottle time.Duration
}

// AuthService provides login sessions backed by Postgres rows and Redis idle keys.
type AuthService struct {
	users     authUserRepository
	sessions  sessionRepository
	activity  sessionActivity
	staff     staffActivity
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions sessionRepository, activity sessionActivity, staff staffActivity,
	audit *AuditService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.RememberFor <= 0 {
		config.RememberFor = 14 * 24 * time.Hour
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = time.Hour
	}
	if config.ActivityThrottle <= 0 {
		config.ActivityThrottle = 5 * time.Minute
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		activity:  activity,
		staff:     staff,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Login verifies credentials, opens a session and issues its token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	username := strings.TrimSpace(req.Username)
	actor := models.Actor{Username: username, IP: req.IP, UserAgent: req.UserAgent}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.loginFailed(ctx, actor, "", username, "unknown user")
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	actor.UserID = user.ID

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.loginFailed(ctx, actor, user.ID, username, "bad password")
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}
	if !user.IsActive {
		s.loginFailed(ctx, actor, user.ID, username, "inactive account")
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	perms, err := s.Permissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ttl := s.config.SessionTTL
	if req.RememberMe {
		ttl = s.config.RememberFor
	}
	session := &models.UserSession{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		RememberMe:   req.RememberMe,
		IPAddress:    req.IP,
		UserAgent:    req.UserAgent,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	if err := s.activity.StartIdle(ctx, session.ID, user.ID, s.config.IdleTimeout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start session")
	}

	csrf, err := randomToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create csrf token")
	}
	token, err := s.signToken(user, session, csrf, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionLogin,
		ModelName:  "User",
		ObjectID:   user.ID,
		ObjectRepr: user.Username,
		Changes:    models.FieldChanges{"session_id": {New: session.ID}, "remember_me": {New: req.RememberMe}},
	})

	return &models.LoginResponse{
		Token:       token,
		CSRFToken:   csrf,
		SessionID:   session.ID,
		ExpiresAt:   session.ExpiresAt,
		RememberMe:  req.RememberMe,
		User:        userInfo(user),
		Permissions: *perms,
	}, nil
}

// Authenticate resolves a session token into the request principal. Idle sessions are
// closed and reported as expired; otherwise the idle window is pushed forward.
func (s *AuthService) Authenticate(ctx context.Context, token, ip, userAgent string) (*models.Principal, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSessionExpired, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	actor := models.Actor{UserID: claims.UserID, Username: claims.Username, IP: ip, UserAgent: userAgent}
	if session.ClosedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "session closed")
	}
	if !session.Open(now) {
		s.closeSession(ctx, actor, session.ID, models.SessionClosedExpired)
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "session expired")
	}

	alive, err := s.activity.Refresh(ctx, session.ID, s.config.IdleTimeout)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh session")
	}
	if !alive {
		s.closeSession(ctx, actor, session.ID, models.SessionClosedIdle)
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "session timed out due to inactivity")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.IsActive {
		s.closeSession(ctx, actor, session.ID, models.SessionClosedDeactivated)
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	perms, err := s.Permissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.recordActivity(ctx, user.ID, session.ID, false)
	return &models.Principal{
		User:        userInfo(user),
		SessionID:   session.ID,
		CSRFToken:   claims.CSRF,
		Permissions: perms,
	}, nil
}

// Permissions resolves the effective permission set of a user for today.
func (s *AuthService) Permissions(ctx context.Context, userID string) (*models.EffectivePermissions, error) {
	assignments, err := s.users.RoleAssignments(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role assignments")
	}
	return models.ResolvePermissions(assignments, s.now()), nil
}

// Logout closes the session and drops its Redis keys.
func (s *AuthService) Logout(ctx context.Context, actor models.Actor, sessionID string) error {
	now := s.now().UTC()
	if err := s.sessions.Close(ctx, sessionID, models.SessionClosedLogout, now); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close session")
	}
	if err := s.activity.Revoke(ctx, sessionID); err != nil {
		s.logger.Warn("failed to revoke session keys", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := s.activity.ForgetActivity(ctx, actor.UserID); err != nil {
		s.logger.Warn("failed to clear activity throttle", zap.String("user_id", actor.UserID), zap.Error(err))
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionLogout,
		ModelName:  "User",
		ObjectID:   actor.UserID,
		ObjectRepr: actor.Username,
		Changes:    models.FieldChanges{"reason": {New: models.SessionClosedLogout}},
	})
	return nil
}

// ChangePassword replaces the password and closes every other session of the user.
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, sessionID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return repoError(err, "user", "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Field("old_password", "does not match")
	}
	if req.OldPassword == req.NewPassword {
		return appErrors.Field("new_password", "must differ from the current password")
	}
	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	closed, err := s.sessions.CloseOthers(ctx, user.ID, sessionID, models.SessionClosedPasswordChange, now)
	if err != nil {
		s.logger.Warn("failed to close other sessions after password change", zap.String("user_id", user.ID), zap.Error(err))
	} else if err := s.activity.Revoke(ctx, closed...); err != nil {
		s.logger.Warn("failed to revoke session keys", zap.Strings("session_ids", closed), zap.Error(err))
	}

	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionPasswordChange,
		ModelName:  "User",
		ObjectID:   user.ID,
		ObjectRepr: user.Username,
		Changes:    models.FieldChanges{"sessions_closed": {New: len(closed)}},
	})
	return nil
}

// TouchActivity records activity now, ignoring the throttle window.
func (s *AuthService) TouchActivity(ctx context.Context, userID, sessionID string) {
	s.recordActivity(ctx, userID, sessionID, true)
}

// CheckSession reports the idle time left without refreshing it.
func (s *AuthService) CheckSession(ctx context.Context, sessionID string) (*models.SessionStatus, error) {
	remaining, err := s.activity.Remaining(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session")
	}
	return &models.SessionStatus{
		Active:           remaining > 0,
		ExpiresInSeconds: int64(remaining / time.Second),
	}, nil
}

// Profile returns the current user with permissions and linked staff record.
func (s *AuthService) Profile(ctx context.Context, principal *models.Principal) (*models.Profile, error) {
	user, err := s.users.FindByID(ctx, principal.User.ID)
	if err != nil {
		return nil, repoError(err, "user", "load user")
	}
	profile := &models.Profile{
		User:        userInfo(user),
		Permissions: principal.Permissions,
		LastLogin:   user.LastLogin,
	}
	if s.staff != nil {
		staff, err := s.staff.FindByUserID(ctx, user.ID)
		switch {
		case err == nil:
			profile.Staff = staff
		case !errors.Is(err, sql.ErrNoRows):
			return nil, repoError(err, "staff", "load staff")
		}
	}
	return profile, nil
}

// RevokeUserSessions closes every open session of a user. Used on deactivation.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID, reason string) error {
	closed, err := s.sessions.CloseOthers(ctx, userID, "", reason, s.now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close sessions")
	}
	if err := s.activity.Revoke(ctx, closed...); err != nil {
		s.logger.Warn("failed to revoke session keys", zap.Strings("session_ids", closed), zap.Error(err))
	}
	return nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrSessionExpired.Code, appErrors.ErrSessionExpired.Status, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// HashPassword bcrypts a password with the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

func (s *AuthService) recordActivity(ctx context.Context, userID, sessionID string, force bool) {
	if !force {
		ok, err := s.activity.ShouldRecordActivity(ctx, userID, s.config.ActivityThrottle)
		if err != nil {
			s.logger.Warn("failed to check activity throttle", zap.String("user_id", userID), zap.Error(err))
			return
		}
		if !ok {
			return
		}
	} else if _, err := s.activity.Refresh(ctx, sessionID, s.config.IdleTimeout); err != nil {
		s.logger.Warn("failed to refresh session", zap.String("session_id", sessionID), zap.Error(err))
	}
	now := s.now().UTC()
	if err := s.users.UpdateLastActivity(ctx, userID, now); err != nil {
		s.logger.Warn("failed to update last activity", zap.String("user_id", userID), zap.Error(err))
	}
	if err := s.sessions.Touch(ctx, sessionID, now); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session_id", sessionID), zap.Error(err))
	}
	if s.staff != nil {
		if err := s.staff.TouchActivity(ctx, userID, now); err != nil {
			s.logger.Warn("failed to update staff activity", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func (s *AuthService) closeSession(ctx context.Context, actor models.Actor, sessionID, reason string) {
	if err := s.sessions.Close(ctx, sessionID, reason, s.now().UTC()); err != nil {
		s.logger.Warn("failed to close session", zap.String("session_id", sessionID), zap.String("reason", reason), zap.Error(err))
	}
	if err := s.activity.Revoke(ctx, sessionID); err != nil {
		s.logger.Warn("failed to revoke session keys", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionLogout,
		ModelName:  "User",
		ObjectID:   actor.UserID,
		ObjectRepr: actor.Username,
		Changes:    models.FieldChanges{"reason": {New: reason}},
	})
}

func (s *AuthService) loginFailed(ctx context.Context, actor models.Actor, userID, username, reason string) {
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionLoginFailed,
		ModelName:  "User",
		ObjectID:   userID,
		ObjectRepr: username,
		Changes:    models.FieldChanges{"reason": {New: reason}},
	})
}

func (s *AuthService) signToken(user *models.User, session *models.UserSession, csrf string, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:    user.ID,
		SessionID: session.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		CSRF:      csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{ID: user.ID, Username: user.Username, Email: user.Email, FullName: user.FullName}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
