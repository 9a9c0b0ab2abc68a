package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/response"
)

// RequirePermission allows the request only when the caller holds every listed permission.
func RequirePermission(recorder deniedRecorder, perms ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted := PermissionsFrom(c)
		for _, perm := range perms {
			if granted == nil || !granted.Has(perm) {
				deny(c, recorder, perms)
				return
			}
		}
		c.Next()
	}
}

// RequireAny allows the request when the caller holds at least one of the listed permissions.
func RequireAny(recorder deniedRecorder, perms ...models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted := PermissionsFrom(c)
		if granted != nil {
			for _, perm := range perms {
				if granted.Has(perm) {
					c.Next()
					return
				}
			}
		}
		deny(c, recorder, perms)
	}
}

func deny(c *gin.Context, recorder deniedRecorder, perms []models.Permission) {
	names := make([]string, 0, len(perms))
	for _, perm := range perms {
		names = append(names, string(perm))
	}
	recordDenied(c, recorder, strings.Join(names, ","))
	response.Error(c, appErrors.ErrForbidden)
	c.Abort()
}
