package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/pkg/config"
	"github.com/bps-secretariat/bps-inventory/pkg/logger"
	corsmiddleware "github.com/bps-secretariat/bps-inventory/pkg/middleware/cors"
	reqidmiddleware "github.com/bps-secretariat/bps-inventory/pkg/middleware/requestid"
)

var orgLevels = []models.OrgLevel{
	models.LevelBuilding,
	models.LevelBlock,
	models.LevelFloor,
	models.LevelDepartment,
	models.LevelRoom,
	models.LevelLocation,
}

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsHandler.Health)
	r.GET("/ready", app.metricsHandler.Ready)
	r.GET("/metrics", app.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	root := r.Group(cfg.APIPrefix)
	root.POST("/auth/login", app.authHandler.Login)
	root.GET("/auth/ajax/check-session", middleware.SessionProbe(app.auth, app.cookies), app.authHandler.CheckSession)
	root.GET("/verify/:device_id", app.qrHandler.PublicVerify)
	root.GET("/reports/download/:token", app.reportHandler.Download)

	secured := root.Group("")
	secured.Use(middleware.Session(app.auth, app.cookies))

	gate := func(perms ...models.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(app.audit, perms...)
	}

	secured.GET("/metrics/snapshot", gate(models.PermSystemAdmin), app.metricsHandler.Snapshot)

	auth := secured.Group("/auth")
	{
		auth.POST("/logout", app.authHandler.Logout)
		auth.GET("/profile", app.authHandler.Profile)
		auth.POST("/change-password", app.authHandler.ChangePassword)
		auth.POST("/ajax/update-activity", app.authHandler.UpdateActivity)

		auth.GET("/roles", gate(models.PermManageUsers), app.userHandler.Roles)
		users := auth.Group("/users", gate(models.PermManageUsers))
		users.GET("", app.userHandler.List)
		users.POST("", app.userHandler.Create)
		users.GET("/:id", app.userHandler.Get)
		users.POST("/:id/edit-roles", app.userHandler.EditRoles)
		users.POST("/:id/toggle-status", app.userHandler.ToggleStatus)
	}

	inv := secured.Group("/inventory")
	inv.GET("/dashboard", app.dashboardHandler.Dashboard)

	devices := inv.Group("/devices")
	{
		devices.GET("", app.deviceHandler.List)
		devices.POST("", gate(models.PermManageAssignments), app.deviceHandler.Create)
		devices.POST("/bulk-actions", gate(models.PermBulkOperations), app.deviceHandler.BulkAction)
		devices.GET("/:id", app.deviceHandler.Get)
		devices.POST("/:id/edit", gate(models.PermManageAssignments), app.deviceHandler.Update)
		devices.POST("/:id/delete", gate(models.PermManageAssignments), app.deviceHandler.Retire)
		devices.GET("/:id/history", app.deviceHandler.History)
		devices.POST("/:id/escalate", gate(models.PermManageAssignments), app.assignmentHandler.Escalate)
	}

	assignments := inv.Group("/assignments")
	{
		assignments.GET("", app.assignmentHandler.List)
		assignments.POST("", gate(models.PermManageAssignments), app.assignmentHandler.Create)
		assignments.GET("/overdue", app.assignmentHandler.Overdue)
		assignments.POST("/bulk", gate(models.PermManageAssignments, models.PermBulkOperations), app.assignmentHandler.BulkAssign)
		assignments.GET("/:id", app.assignmentHandler.Get)
		assignments.POST("/:id/transfer", gate(models.PermManageAssignments), app.assignmentHandler.Transfer)
		assignments.POST("/:id/return", gate(models.PermManageAssignments), app.assignmentHandler.Return)
		assignments.POST("/:id/extend", gate(models.PermManageAssignments), app.assignmentHandler.Extend)
	}
	inv.GET("/departments/:id/assignments", app.assignmentHandler.DepartmentAssignments)
	inv.GET("/departments/code", app.registryHandler.DepartmentCode)
	inv.GET("/locations/resolve", app.registryHandler.Resolve)

	for _, level := range orgLevels {
		path := "/" + string(level)
		inv.GET(path, app.registryHandler.List(level))
		inv.POST(path, gate(models.PermSystemAdmin), app.registryHandler.Create(level))
		inv.POST(path+"/:id/rename", gate(models.PermSystemAdmin), app.registryHandler.Rename(level))
		inv.POST(path+"/:id/deactivate", gate(models.PermSystemAdmin), app.registryHandler.Deactivate(level))
	}

	staff := inv.Group("/staff")
	{
		staff.GET("", app.staffHandler.List)
		staff.POST("", gate(models.PermManageUsers), app.staffHandler.Create)
		staff.GET("/:id", app.staffHandler.Get)
		staff.GET("/:id/assignments", app.assignmentHandler.StaffAssignments)
		staff.POST("/:id/edit", gate(models.PermManageUsers), app.staffHandler.Update)
		staff.POST("/:id/deactivate", gate(models.PermManageUsers), app.staffHandler.Deactivate)
		staff.POST("/:id/delete", gate(models.PermManageUsers), app.staffHandler.Delete)
	}

	vendors := inv.Group("/vendors")
	{
		vendors.GET("", app.vendorHandler.List)
		vendors.POST("", gate(models.PermManageVendors), app.vendorHandler.Create)
		vendors.GET("/:id", app.vendorHandler.Get)
		vendors.POST("/:id/activate", gate(models.PermManageVendors), app.vendorHandler.Activate)
		vendors.POST("/:id/deactivate", gate(models.PermManageVendors), app.vendorHandler.Deactivate)
	}

	inv.GET("/categories", app.catalogHandler.Categories)
	inv.POST("/categories", gate(models.PermSystemAdmin), app.catalogHandler.CreateCategory)
	inv.GET("/subcategories", app.catalogHandler.Subcategories)
	inv.POST("/subcategories", gate(models.PermSystemAdmin), app.catalogHandler.CreateSubcategory)
	inv.GET("/device-types", app.catalogHandler.Types)
	inv.POST("/device-types", gate(models.PermSystemAdmin), app.catalogHandler.CreateType)

	maintenance := inv.Group("/maintenance")
	{
		maintenance.GET("", app.maintenanceHandler.List)
		maintenance.POST("", gate(models.PermManageMaintenance), app.maintenanceHandler.Create)
		maintenance.GET("/upcoming", app.maintenanceHandler.Upcoming)
		maintenance.GET("/overdue", app.maintenanceHandler.Overdue)
		maintenance.GET("/:id", app.maintenanceHandler.Get)
		maintenance.POST("/:id/start", gate(models.PermManageMaintenance), app.maintenanceHandler.Start)
		maintenance.POST("/:id/complete", gate(models.PermManageMaintenance), app.maintenanceHandler.Complete)
		maintenance.POST("/:id/cancel", gate(models.PermManageMaintenance), app.maintenanceHandler.Cancel)
		maintenance.POST("/:id/postpone", gate(models.PermManageMaintenance), app.maintenanceHandler.Postpone)
	}

	qr := secured.Group("/qr")
	{
		generate := gate(models.PermGenerateQRCodes)
		scan := gate(models.PermScanQRCodes)
		qr.POST("/generate/:device_id", generate, app.qrHandler.Generate)
		qr.GET("/image/:device_id", generate, app.qrHandler.Image)
		qr.POST("/bulk-generate", generate, app.qrHandler.BulkGenerate)
		qr.POST("/print-labels", generate, app.qrHandler.PrintLabels)
		qr.POST("/verify/:device_id", scan, app.qrHandler.Verify)
		qr.POST("/scan/mobile", scan, app.qrHandler.MobileScan)
		qr.GET("/scan/history", scan, app.qrHandler.History)
		qr.POST("/batch-verify", scan, app.qrHandler.BatchVerify)
		qr.GET("/analytics", scan, app.qrHandler.Analytics)
	}

	reports := secured.Group("/reports", gate(models.PermGenerateReports))
	{
		reports.GET("/jobs/:id", app.reportHandler.Status)
		reports.GET("/:type", app.reportHandler.Preview)
		reports.POST("/:type/export", gate(models.PermExportData), app.reportHandler.Export)
	}

	return r
}
