package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

var authNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type mockAuthUsers struct {
	users        map[string]*models.User
	assignments  []models.UserRoleAssignment
	lastActivity int
	lastLogin    bool
}

func (m *mockAuthUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = true
	return nil
}

func (m *mockAuthUsers) UpdateLastActivity(ctx context.Context, id string, ts time.Time) error {
	m.lastActivity++
	return nil
}

func (m *mockAuthUsers) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.users[id].PasswordHash = passwordHash
	return nil
}

func (m *mockAuthUsers) RoleAssignments(ctx context.Context, userID string) ([]models.UserRoleAssignment, error) {
	return m.assignments, nil
}

type mockSessions struct {
	rows    map[string]*models.UserSession
	touched int
}

func (m *mockSessions) Create(ctx context.Context, session *models.UserSession) error {
	copied := *session
	m.rows[session.ID] = &copied
	return nil
}

func (m *mockSessions) FindByID(ctx context.Context, id string) (*models.UserSession, error) {
	if s, ok := m.rows[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessions) Touch(ctx context.Context, id string, at time.Time) error {
	m.touched++
	return nil
}

func (m *mockSessions) Close(ctx context.Context, id, reason string, at time.Time) error {
	if s, ok := m.rows[id]; ok && s.ClosedAt == nil {
		s.ClosedAt = &at
		s.CloseReason = &reason
	}
	return nil
}

func (m *mockSessions) CloseOthers(ctx context.Context, userID, keepID, reason string, at time.Time) ([]string, error) {
	var closed []string
	for id, s := range m.rows {
		if s.UserID == userID && id != keepID && s.ClosedAt == nil {
			s.ClosedAt = &at
			s.CloseReason = &reason
			closed = append(closed, id)
		}
	}
	return closed, nil
}

type mockActivity struct {
	idle     map[string]time.Duration
	lastSeen map[string]bool
	revoked  []string
}

func newMockActivity() *mockActivity {
	return &mockActivity{idle: map[string]time.Duration{}, lastSeen: map[string]bool{}}
}

func (m *mockActivity) StartIdle(ctx context.Context, sessionID, userID string, idle time.Duration) error {
	m.idle[sessionID] = idle
	return nil
}

func (m *mockActivity) Refresh(ctx context.Context, sessionID string, idle time.Duration) (bool, error) {
	if _, ok := m.idle[sessionID]; !ok {
		return false, nil
	}
	m.idle[sessionID] = idle
	return true, nil
}

func (m *mockActivity) Remaining(ctx context.Context, sessionID string) (time.Duration, error) {
	return m.idle[sessionID], nil
}

func (m *mockActivity) Revoke(ctx context.Context, sessionIDs ...string) error {
	for _, id := range sessionIDs {
		delete(m.idle, id)
	}
	m.revoked = append(m.revoked, sessionIDs...)
	return nil
}

func (m *mockActivity) ShouldRecordActivity(ctx context.Context, userID string, window time.Duration) (bool, error) {
	if m.lastSeen[userID] {
		return false, nil
	}
	m.lastSeen[userID] = true
	return true, nil
}

func (m *mockActivity) ForgetActivity(ctx context.Context, userID string) error {
	delete(m.lastSeen, userID)
	return nil
}

type authFixture struct {
	svc      *AuthService
	users    *mockAuthUsers
	sessions *mockSessions
	activity *mockActivity
	audit    *mockAuditRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	fx := &authFixture{
		users: &mockAuthUsers{
			users: map[string]*models.User{
				"user-1": {ID: "user-1", Username: "rina", FullName: "Rina Kusuma", PasswordHash: string(hash), IsActive: true},
				"user-2": {ID: "user-2", Username: "former", FullName: "Former", PasswordHash: string(hash), IsActive: false},
			},
			assignments: []models.UserRoleAssignment{{
				RoleName:    "IT_OFFICER",
				Permissions: models.PermissionSet{CanManageAssignments: true, CanScanQRCodes: true},
				StartDate:   authNow.AddDate(-1, 0, 0),
				IsActive:    true,
			}},
		},
		sessions: &mockSessions{rows: map[string]*models.UserSession{}},
		activity: newMockActivity(),
		audit:    &mockAuditRepo{},
	}
	fx.svc = NewAuthService(fx.users, fx.sessions, fx.activity, nil, NewAuditService(fx.audit, zap.NewNop()), nil, zap.NewNop(), AuthConfig{
		TokenSecret: "test-secret",
		Issuer:      "bps-inventory",
		IdleTimeout: 60 * time.Minute,
	})
	fx.svc.now = func() time.Time { return authNow }
	return fx
}

func TestAuthServiceLoginOpensSession(t *testing.T) {
	fx := newAuthFixture(t)

	resp, err := fx.svc.Login(context.Background(), models.LoginRequest{Username: "rina", Password: "password123", IP: "10.0.0.5"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.CSRFToken)
	assert.Equal(t, authNow.Add(24*time.Hour), resp.ExpiresAt)
	assert.True(t, resp.Permissions.CanManageAssignments)
	assert.True(t, fx.users.lastLogin)

	require.Contains(t, fx.sessions.rows, resp.SessionID)
	assert.Equal(t, 60*time.Minute, fx.activity.idle[resp.SessionID])

	claims, err := fx.svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, resp.CSRFToken, claims.CSRF)
	assert.Equal(t, []string{models.AuditActionLogin}, fx.audit.actions())
}

func TestAuthServiceLoginRememberMe(t *testing.T) {
	fx := newAuthFixture(t)

	resp, err := fx.svc.Login(context.Background(), models.LoginRequest{Username: "rina", Password: "password123", RememberMe: true})
	require.NoError(t, err)
	assert.Equal(t, authNow.Add(14*24*time.Hour), resp.ExpiresAt)
	assert.True(t, fx.sessions.rows[resp.SessionID].RememberMe)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		code     string
	}{
		{name: "unknown user", username: "ghost", password: "password123", code: appErrors.ErrInvalidCredentials.Code},
		{name: "wrong password", username: "rina", password: "nope-nope", code: appErrors.ErrInvalidCredentials.Code},
		{name: "inactive", username: "former", password: "password123", code: appErrors.ErrInactiveAccount.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newAuthFixture(t)
			_, err := fx.svc.Login(context.Background(), models.LoginRequest{Username: tc.username, Password: tc.password})
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.code, appErr.Code)
			assert.Empty(t, fx.sessions.rows)
			assert.Equal(t, []string{models.AuditActionLoginFailed}, fx.audit.actions())
		})
	}
}

func TestAuthServiceAuthenticateThrottlesActivity(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	resp, err := fx.svc.Login(ctx, models.LoginRequest{Username: "rina", Password: "password123"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		principal, err := fx.svc.Authenticate(ctx, resp.Token, "10.0.0.5", "test")
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.User.ID)
		assert.Equal(t, resp.CSRFToken, principal.CSRFToken)
	}
	assert.Equal(t, 1, fx.users.lastActivity)
	assert.Equal(t, 1, fx.sessions.touched)

	fx.svc.TouchActivity(ctx, "user-1", resp.SessionID)
	assert.Equal(t, 2, fx.users.lastActivity)
}

func TestAuthServiceIdleSessionIsClosed(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	resp, err := fx.svc.Login(ctx, models.LoginRequest{Username: "rina", Password: "password123", RememberMe: true})
	require.NoError(t, err)

	delete(fx.activity.idle, resp.SessionID)

	_, err = fx.svc.Authenticate(ctx, resp.Token, "", "")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErr.Code)

	session := fx.sessions.rows[resp.SessionID]
	require.NotNil(t, session.ClosedAt)
	assert.Equal(t, models.SessionClosedIdle, *session.CloseReason)
	assert.Equal(t, []string{models.AuditActionLogin, models.AuditActionLogout}, fx.audit.actions())

	_, err = fx.svc.Authenticate(ctx, resp.Token, "", "")
	require.Error(t, err)
}

func TestAuthServiceLogout(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	resp, err := fx.svc.Login(ctx, models.LoginRequest{Username: "rina", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Logout(ctx, models.Actor{UserID: "user-1", Username: "rina"}, resp.SessionID))
	assert.Equal(t, models.SessionClosedLogout, *fx.sessions.rows[resp.SessionID].CloseReason)
	assert.Contains(t, fx.activity.revoked, resp.SessionID)

	status, err := fx.svc.CheckSession(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.False(t, status.Active)
}

func TestAuthServiceChangePasswordClosesOtherSessions(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	first, err := fx.svc.Login(ctx, models.LoginRequest{Username: "rina", Password: "password123"})
	require.NoError(t, err)
	second, err := fx.svc.Login(ctx, models.LoginRequest{Username: "rina", Password: "password123"})
	require.NoError(t, err)

	actor := models.Actor{UserID: "user-1", Username: "rina"}
	err = fx.svc.ChangePassword(ctx, actor, second.SessionID, models.ChangePasswordRequest{OldPassword: "wrong-password", NewPassword: "newpassword1"})
	require.Error(t, err)

	require.NoError(t, fx.svc.ChangePassword(ctx, actor, second.SessionID, models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))
	assert.NotNil(t, fx.sessions.rows[first.SessionID].ClosedAt)
	assert.Nil(t, fx.sessions.rows[second.SessionID].ClosedAt)
	assert.Equal(t, []string{first.SessionID}, fx.activity.revoked)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(fx.users.users["user-1"].PasswordHash), []byte("newpassword1")))

	status, err := fx.svc.CheckSession(ctx, second.SessionID)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, int64(3600), status.ExpiresInSeconds)
}

func TestAuthServiceRejectsForeignToken(t *testing.T) {
	fx := newAuthFixture(t)
	other := NewAuthService(fx.users, fx.sessions, fx.activity, nil, nil, nil, nil, AuthConfig{TokenSecret: "another-secret"})
	other.now = fx.svc.now
	resp, err := other.Login(context.Background(), models.LoginRequest{Username: "rina", Password: "password123"})
	require.NoError(t, err)

	_, err = fx.svc.ValidateToken(resp.Token)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
