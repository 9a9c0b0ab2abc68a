package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, actor models.Actor, sessionID string) error
	ChangePassword(ctx context.Context, actor models.Actor, sessionID string, req models.ChangePasswordRequest) error
	TouchActivity(ctx context.Context, userID, sessionID string)
	CheckSession(ctx context.Context, sessionID string) (*models.SessionStatus, error)
	Profile(ctx context.Context, principal *models.Principal) (*models.Profile, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service     authService
	cookies     middleware.Cookies
	rememberFor time.Duration
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies middleware.Cookies, rememberFor time.Duration) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, rememberFor: rememberFor}
}

// Login godoc
// @Summary Authenticate user
// @Description Opens a session, sets the session and CSRF cookies and returns the bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	maxAge := 0
	if res.RememberMe {
		maxAge = int(h.rememberFor / time.Second)
	}
	h.cookies.Set(c, res.Token, res.CSRFToken, maxAge)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Logout(c.Request.Context(), middleware.ActorFrom(c), principal.SessionID); err != nil {
		response.Error(c, err)
		return
	}
	h.cookies.Clear(c)
	response.NoContent(c)
}

// Profile godoc
// @Summary Current user profile
// @Description Returns the user, effective permissions and department scope
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change password for current user. Other sessions are revoked.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), middleware.ActorFrom(c), principal.SessionID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateActivity godoc
// @Summary Record user activity
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/ajax/update-activity [post]
func (h *AuthHandler) UpdateActivity(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.service.TouchActivity(c.Request.Context(), principal.User.ID, principal.SessionID)
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}

// CheckSession godoc
// @Summary Idle time left on the current session
// @Description Does not extend the idle window
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/ajax/check-session [get]
func (h *AuthHandler) CheckSession(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.service.CheckSession(c.Request.Context(), claims.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
