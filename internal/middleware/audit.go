package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
)

type deniedRecorder interface {
	Record(ctx context.Context, actor models.Actor, entry service.AuditEntry)
}

// recordDenied appends a PERMISSION_DENIED entry naming the route and the missing capability.
func recordDenied(c *gin.Context, recorder deniedRecorder, required string) {
	if recorder == nil {
		return
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	recorder.Record(c.Request.Context(), ActorFrom(c), service.AuditEntry{
		Action:     models.AuditActionPermissionDenied,
		ModelName:  "Route",
		ObjectID:   route,
		ObjectRepr: c.Request.Method + " " + route,
		Changes: models.FieldChanges{
			"required": {New: required},
		},
	})
}
