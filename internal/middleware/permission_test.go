package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/service"
)

type recordedAudit struct {
	entries []service.AuditEntry
	actors  []models.Actor
}

func (r *recordedAudit) Record(ctx context.Context, actor models.Actor, entry service.AuditEntry) {
	r.actors = append(r.actors, actor)
	r.entries = append(r.entries, entry)
}

func permissionRouter(principal *models.Principal, gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set(ContextPrincipalKey, principal)
		}
		c.Next()
	})
	router.POST("/assignments", gate, func(c *gin.Context) { c.Status(http.StatusCreated) })
	return router
}

func TestRequirePermissionAllowsHolder(t *testing.T) {
	audit := &recordedAudit{}
	router := permissionRouter(testPrincipal(), RequirePermission(audit, models.PermManageAssignments))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assignments", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, audit.entries)
}

func TestRequirePermissionDeniesAndAudits(t *testing.T) {
	audit := &recordedAudit{}
	router := permissionRouter(testPrincipal(), RequirePermission(audit, models.PermManageAssignments, models.PermBulkOperations))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assignments", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, models.AuditActionPermissionDenied, entry.Action)
	assert.Equal(t, "/assignments", entry.ObjectID)
	assert.Equal(t, "can_manage_assignments,can_bulk_operations", entry.Changes["required"].New)
	assert.Equal(t, "user-1", audit.actors[0].UserID)
}

func TestRequireAny(t *testing.T) {
	audit := &recordedAudit{}
	router := permissionRouter(testPrincipal(), RequireAny(audit, models.PermSystemAdmin, models.PermManageAssignments))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assignments", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	router = permissionRouter(nil, RequireAny(audit, models.PermSystemAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assignments", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, audit.entries, 1)
}

func TestSystemAdminPassesEveryGate(t *testing.T) {
	principal := testPrincipal()
	principal.Permissions = &models.EffectivePermissions{PermissionSet: models.PermissionSet{CanSystemAdmin: true}}
	router := permissionRouter(principal, RequirePermission(nil, models.PermViewFinancialData, models.PermBulkOperations))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assignments", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFinishMetaStampsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/dashboard", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		SetCacheHit(c, true)
		meta = FinishMeta(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
