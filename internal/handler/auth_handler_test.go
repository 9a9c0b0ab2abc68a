package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type fakeAuthSrv struct {
	loginResp   *models.LoginResponse
	loginErr    error
	lastLogin   models.LoginRequest
	loggedOut   string
	touched     []string
	checked     string
	status      *models.SessionStatus
	changeErr   error
	changedSess string
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	return f.loginResp, f.loginErr
}

func (f *fakeAuthSrv) Logout(_ context.Context, actor models.Actor, sessionID string) error {
	f.loggedOut = sessionID
	return nil
}

func (f *fakeAuthSrv) ChangePassword(_ context.Context, actor models.Actor, sessionID string, req models.ChangePasswordRequest) error {
	f.changedSess = sessionID
	return f.changeErr
}

func (f *fakeAuthSrv) TouchActivity(_ context.Context, userID, sessionID string) {
	f.touched = append(f.touched, userID+"/"+sessionID)
}

func (f *fakeAuthSrv) CheckSession(_ context.Context, sessionID string) (*models.SessionStatus, error) {
	f.checked = sessionID
	return f.status, nil
}

func (f *fakeAuthSrv) Profile(_ context.Context, principal *models.Principal) (*models.Profile, error) {
	return &models.Profile{User: principal.User, Permissions: principal.Permissions}, nil
}

var handlerCookies = middleware.Cookies{Name: "bps_session", CSRFName: "bps_csrf"}

func TestAuthHandlerLoginRememberMeSetsPersistentCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{loginResp: &models.LoginResponse{Token: "jwt", CSRFToken: "csrf", RememberMe: true}}
	handler := NewAuthHandler(srv, handlerCookies, 14*24*time.Hour)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"username":"rina","password":"secret123","remember_me":true}`))
	c.Request.Header.Set("User-Agent", "browser/1.0")

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rina", srv.lastLogin.Username)
	assert.Equal(t, "browser/1.0", srv.lastLogin.UserAgent)
	cookies := w.Header().Values("Set-Cookie")
	require.Len(t, cookies, 2)
	assert.True(t, strings.HasPrefix(cookies[0], "bps_session=jwt"))
	assert.Contains(t, cookies[0], "Max-Age=1209600")
	assert.True(t, strings.HasPrefix(cookies[1], "bps_csrf=csrf"))
}

func TestAuthHandlerLoginSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{loginResp: &models.LoginResponse{Token: "jwt", CSRFToken: "csrf"}}
	handler := NewAuthHandler(srv, handlerCookies, 14*24*time.Hour)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"username":"rina","password":"secret123"}`))
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Header().Values("Set-Cookie")[0], "Max-Age")
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials}, handlerCookies, time.Hour)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"username":"rina","password":"wrong"}`))
	handler.Login(c)

	assert.Equal(t, appErrors.ErrInvalidCredentials.Status, w.Code)
	assert.Empty(t, w.Header().Values("Set-Cookie"))

	c, w = newGinContext(http.MethodPost, "/auth/login", []byte(`{`))
	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLogoutClearsCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv, handlerCookies, time.Hour)

	c, w := newGinContext(http.MethodPost, "/auth/logout", nil)
	withPrincipal(c, models.PermissionSet{})

	handler.Logout(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "sess-1", srv.loggedOut)
	assert.Contains(t, w.Header().Values("Set-Cookie")[0], "Max-Age=0")
}

func TestAuthHandlerActivityAndCheckSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{status: &models.SessionStatus{Active: true, ExpiresInSeconds: 1500}}
	handler := NewAuthHandler(srv, handlerCookies, time.Hour)

	c, w := newGinContext(http.MethodPost, "/auth/ajax/update-activity", nil)
	withPrincipal(c, models.PermissionSet{})
	handler.UpdateActivity(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user-1/sess-1"}, srv.touched)

	c, w = newGinContext(http.MethodGet, "/auth/ajax/check-session", nil)
	c.Set(middleware.ContextClaimsKey, &models.JWTClaims{UserID: "user-1", SessionID: "sess-9"})
	handler.CheckSession(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-9", srv.checked)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, float64(1500), envelope.Data["expires_in_seconds"])
}

func TestAuthHandlerChangePasswordNeedsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv, handlerCookies, time.Hour)

	c, w := newGinContext(http.MethodPost, "/auth/change-password", []byte(`{"old_password":"a","new_password":"b"}`))
	handler.ChangePassword(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodPost, "/auth/change-password", []byte(`{"old_password":"old-secret","new_password":"new-secret"}`))
	withPrincipal(c, models.PermissionSet{})
	handler.ChangePassword(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "sess-1", srv.changedSess)
}
