package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/bps-secretariat/bps-inventory/api/swagger"
	"github.com/bps-secretariat/bps-inventory/internal/handler"
	"github.com/bps-secretariat/bps-inventory/internal/middleware"
	"github.com/bps-secretariat/bps-inventory/internal/repository"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	"github.com/bps-secretariat/bps-inventory/pkg/cache"
	"github.com/bps-secretariat/bps-inventory/pkg/config"
	"github.com/bps-secretariat/bps-inventory/pkg/database"
	"github.com/bps-secretariat/bps-inventory/pkg/jobs"
	"github.com/bps-secretariat/bps-inventory/pkg/logger"
	"github.com/bps-secretariat/bps-inventory/pkg/qrcode"
	"github.com/bps-secretariat/bps-inventory/pkg/storage"
)

// @title BPS Inventory API
// @version 1.0.0
// @description IT asset and assignment tracking for the BPS secretariat
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("postgres connection failed", zap.Error(err))
	}
	defer db.Close()

	if applied, err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("migrations failed", zap.Error(err))
	} else if len(applied) > 0 {
		logr.Info("migrations applied", zap.Strings("versions", applied))
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	app, err := buildApp(ctx, cfg, db, rdb, logr)
	if err != nil {
		logr.Fatal("failed to wire application", zap.Error(err))
	}
	defer app.queue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	db      *sqlx.DB
	redis   *redis.Client
	queue   *jobs.Queue
	metrics *service.MetricsService
	audit   *service.AuditService
	auth    *service.AuthService

	authHandler        *handler.AuthHandler
	userHandler        *handler.UserHandler
	deviceHandler      *handler.DeviceHandler
	assignmentHandler  *handler.AssignmentHandler
	registryHandler    *handler.RegistryHandler
	staffHandler       *handler.StaffHandler
	vendorHandler      *handler.VendorHandler
	catalogHandler     *handler.CatalogHandler
	maintenanceHandler *handler.MaintenanceHandler
	dashboardHandler   *handler.DashboardHandler
	qrHandler          *handler.QRHandler
	reportHandler      *handler.ReportHandler
	metricsHandler     *handler.MetricsHandler
	cookies            middleware.Cookies
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, rdb *redis.Client, logr *zap.Logger) (*application, error) {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	activity := repository.NewSessionActivityStore(rdb)
	staffRepo := repository.NewStaffRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	scanRepo := repository.NewScanRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	datasetRepo := repository.NewReportDatasetRepository(db)

	audit := service.NewAuditService(repository.NewAuditRepository(db), logr)
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(rdb), metrics, cfg.Cache.QuickStatsTTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(users, sessions, activity, staffRepo, audit, validate, logr, service.AuthConfig{
		TokenSecret:      cfg.JWT.Secret,
		Issuer:           cfg.JWT.Issuer,
		SessionTTL:       cfg.JWT.Expiration,
		RememberFor:      cfg.Session.RememberFor(),
		IdleTimeout:      cfg.Session.IdleTimeout(),
		ActivityThrottle: cfg.Session.ActivityThrottle,
	})
	userSvc := service.NewUserService(users, registryRepo, authSvc, audit, validate, logr)
	staffSvc := service.NewStaffService(staffRepo, registryRepo, audit, validate, logr)
	registrySvc := service.NewRegistryService(registryRepo, audit, validate, logr)
	vendorSvc := service.NewVendorService(vendorRepo, audit, validate, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, audit, validate, logr)

	qrSvc := service.NewQRService(deviceRepo, assignmentRepo, staffRepo, scanRepo,
		qrcode.NewEncoder(cfg.QR.ModuleSize, cfg.QR.Border), qrcode.NewLabelRenderer(),
		audit, metrics, validate, logr, service.QRConfig{BaseURL: cfg.QR.BaseURL})
	deviceSvc := service.NewDeviceService(deviceRepo, assignmentRepo, historyRepo, catalogRepo, registryRepo, vendorRepo,
		audit, cacheSvc, qrSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, deviceRepo, historyRepo, staffRepo, registryRepo,
		audit, cacheSvc, metrics, qrSvc, validate, logr, service.AssignmentConfig{
			MaxDevicesPerStaff: cfg.Inventory.MaxDevicesPerStaff,
			CleanupGraceDays:   cfg.Inventory.StaffInactiveGraceDays,
			BulkChunkSize:      cfg.Inventory.BulkChunkSize,
		})
	maintenanceSvc := service.NewMaintenanceService(maintenanceRepo, deviceRepo, assignmentRepo, vendorRepo,
		audit, cacheSvc, qrSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Stats:       statsRepo,
		Assignments: assignmentRepo,
		Maintenance: maintenanceRepo,
		Cache:       cacheSvc,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			QuickStatsTTL:              cfg.Cache.QuickStatsTTL,
			SystemStatsTTL:             cfg.Cache.SystemStatsTTL,
			NotificationsTTL:           cfg.Cache.NotificationsTTL,
			WarrantyAlertDays:          cfg.Inventory.WarrantyAlertDays,
			AssignmentNotificationDays: cfg.Inventory.AssignmentNotificationDays,
		},
	})

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("report storage: %w", err)
	}
	exporter := service.NewExportService(datasetRepo, files, storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL, MaxRecords: cfg.Reports.MaxRecords}, logr)
	worker := service.NewReportWorker(reportRepo, exporter, audit, metrics, cfg.Reports.WorkerRetries, cfg.Reports.GenerationTimeout, logr)

	mux := jobs.NewMux()
	mux.Handle(service.JobTypeReportExport, worker.Handle)
	mux.Handle(service.JobTypeQRBulkGenerate, qrSvc.HandleJob)
	queue := jobs.NewQueue("inventory", mux.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		JobTimeout: cfg.Reports.GenerationTimeout,
		Logger:     logr,
	})
	queue.Start(ctx)
	qrSvc.UseQueue(queue)
	metrics.TrackQueue("inventory", queue.Stats)

	reportSvc := service.NewReportService(reportRepo, queue, exporter, cacheSvc, audit, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		PreviewTTL:      cfg.Reports.CacheTimeout,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)
	assignmentSvc.StartCleanup(ctx, cfg.Inventory.StaffCleanupInterval)

	cookies := middleware.Cookies{
		Name:     cfg.Session.CookieName,
		CSRFName: cfg.Session.CSRFCookieName,
		Domain:   cfg.Session.CookieDomain,
		Secure:   cfg.Session.CookieSecure,
	}

	return &application{
		db:      db,
		redis:   rdb,
		queue:   queue,
		metrics: metrics,
		audit:   audit,
		auth:    authSvc,

		authHandler:        handler.NewAuthHandler(authSvc, cookies, cfg.Session.RememberFor()),
		userHandler:        handler.NewUserHandler(userSvc),
		deviceHandler:      handler.NewDeviceHandler(deviceSvc),
		assignmentHandler:  handler.NewAssignmentHandler(assignmentSvc),
		registryHandler:    handler.NewRegistryHandler(registrySvc),
		staffHandler:       handler.NewStaffHandler(staffSvc),
		vendorHandler:      handler.NewVendorHandler(vendorSvc),
		catalogHandler:     handler.NewCatalogHandler(catalogSvc),
		maintenanceHandler: handler.NewMaintenanceHandler(maintenanceSvc),
		dashboardHandler:   handler.NewDashboardHandler(dashboardSvc),
		qrHandler:          handler.NewQRHandler(qrSvc),
		reportHandler:      handler.NewReportHandler(reportSvc),
		metricsHandler: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		cookies: cookies,
	}, nil
}
