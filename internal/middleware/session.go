package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/logger"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

const (
	// ContextPrincipalKey stores the authenticated *models.Principal.
	ContextPrincipalKey = "principal"
	// ContextClaimsKey stores token claims for routes that must not refresh the session.
	ContextClaimsKey = "session_claims"
	// CSRFHeader carries the CSRF token on cookie-authenticated writes.
	CSRFHeader = "X-CSRF-Token"
)

type authenticator interface {
	Authenticate(ctx context.Context, token, ip, userAgent string) (*models.Principal, error)
}

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Cookies names and scopes the session and CSRF cookies.
type Cookies struct {
	Name     string
	CSRFName string
	Domain   string
	Secure   bool
}

// Set writes both cookies. maxAge 0 keeps them for the browser session only.
func (k Cookies) Set(c *gin.Context, token, csrf string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.Name, token, maxAge, "/", k.Domain, k.Secure, true)
	c.SetCookie(k.CSRFName, csrf, maxAge, "/", k.Domain, k.Secure, false)
}

// Clear expires both cookies.
func (k Cookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.Name, "", -1, "/", k.Domain, k.Secure, true)
	c.SetCookie(k.CSRFName, "", -1, "/", k.Domain, k.Secure, false)
}

// Session requires a live session from the bearer header or the session cookie.
// Cookie-authenticated unsafe requests must echo the CSRF token in X-CSRF-Token.
func Session(auth authenticator, cookies Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, viaCookie := requestToken(c, cookies.Name)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token, c.ClientIP(), c.GetHeader("User-Agent"))
		if err != nil {
			if viaCookie && appErrors.FromError(err).Code == appErrors.ErrSessionExpired.Code {
				cookies.Clear(c)
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		if viaCookie && !safeMethod(c.Request.Method) {
			sent := strings.TrimSpace(c.GetHeader(CSRFHeader))
			if sent == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(principal.CSRFToken)) != 1 {
				response.Error(c, appErrors.ErrCSRF)
				c.Abort()
				return
			}
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.ContextUserIDKey, principal.User.ID)
		c.Next()
	}
}

// SessionProbe only validates the token signature and claims. The idle window is left untouched.
func SessionProbe(tokens tokenValidator, cookies Cookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := requestToken(c, cookies.Name)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextClaimsKey, claims)
		c.Set(logger.ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller, or nil on public routes.
func PrincipalFrom(c *gin.Context) *models.Principal {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*models.Principal)
	return principal
}

// ClaimsFrom returns the claims set by SessionProbe.
func ClaimsFrom(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

// PermissionsFrom returns the caller's effective permissions, nil when anonymous.
func PermissionsFrom(c *gin.Context) *models.EffectivePermissions {
	if principal := PrincipalFrom(c); principal != nil {
		return principal.Permissions
	}
	return nil
}

// ActorFrom builds the audit actor of the request. Anonymous callers keep ip and user agent.
func ActorFrom(c *gin.Context) models.Actor {
	return PrincipalFrom(c).Actor(c.ClientIP(), c.GetHeader("User-Agent"))
}

func requestToken(c *gin.Context, cookieName string) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1]), false
		}
		return "", false
	}
	if cookieName == "" {
		return "", false
	}
	if value, err := c.Cookie(cookieName); err == nil && value != "" {
		return value, true
	}
	return "", false
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
