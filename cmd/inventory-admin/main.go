// inventory-admin runs one-shot maintenance tasks against the inventory database.
//
//	inventory-admin migrate
//	inventory-admin setup --file seed.yaml
//	inventory-admin cleanup-staff
//	inventory-admin audit-export --out audit.csv [--days N] [--limit N]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/repository"
	"github.com/bps-secretariat/bps-inventory/internal/service"
	"github.com/bps-secretariat/bps-inventory/pkg/config"
	"github.com/bps-secretariat/bps-inventory/pkg/database"
	"github.com/bps-secretariat/bps-inventory/pkg/export"
	"github.com/bps-secretariat/bps-inventory/pkg/logger"
)

var errUsage = errors.New("usage: inventory-admin <migrate|setup|cleanup-staff|audit-export> [flags]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	flags := pflag.NewFlagSet("inventory-admin "+command, pflag.ContinueOnError)
	seedPath := flags.String("file", "", "seed YAML file (setup)")
	outPath := flags.StringP("out", "o", "audit_export.csv", "output CSV path (audit-export)")
	days := flags.Int("days", 0, "retention window in days; defaults to AUDIT_LOG_RETENTION_DAYS (audit-export)")
	limit := flags.Int("limit", 100000, "maximum rows to export (audit-export)")
	if err := flags.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	validate := service.NewValidator()
	audit := service.NewAuditService(repository.NewAuditRepository(db), logr)

	switch command {
	case "migrate":
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			return err
		}
		logr.Info("migrations complete", zap.Strings("applied", applied))
		return nil

	case "setup":
		if *seedPath == "" {
			return errors.New("setup requires --file")
		}
		seed, err := service.LoadSeedFile(*seedPath)
		if err != nil {
			return err
		}
		if _, err := database.Migrate(ctx, db); err != nil {
			return err
		}
		users := repository.NewUserRepository(db)
		registryRepo := repository.NewRegistryRepository(db)
		setup := service.NewSetupService(
			users,
			service.NewRegistryService(registryRepo, audit, validate, logr),
			service.NewCatalogService(repository.NewCatalogRepository(db), audit, validate, logr),
			service.NewVendorService(repository.NewVendorRepository(db), audit, validate, logr),
			service.NewUserService(users, registryRepo, nil, audit, validate, logr),
			logr,
		)
		summary, err := setup.Apply(ctx, seed)
		if err != nil {
			return err
		}
		fmt.Printf("roles=%d org_nodes=%d catalogue=%d vendors=%d admin_added=%t\n",
			summary.Roles, summary.OrgNodes, summary.Catalogue, summary.Vendors, summary.AdminAdded)
		return nil

	case "cleanup-staff":
		staffRepo := repository.NewStaffRepository(db)
		registryRepo := repository.NewRegistryRepository(db)
		engine := service.NewAssignmentService(
			repository.NewAssignmentRepository(db),
			repository.NewDeviceRepository(db),
			repository.NewHistoryRepository(db),
			staffRepo,
			registryRepo,
			audit, nil, nil, nil, validate, logr,
			service.AssignmentConfig{
				MaxDevicesPerStaff: cfg.Inventory.MaxDevicesPerStaff,
				CleanupGraceDays:   cfg.Inventory.StaffInactiveGraceDays,
				BulkChunkSize:      cfg.Inventory.BulkChunkSize,
			},
		)
		result, err := engine.CleanupInactiveStaff(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", *result)
		return nil

	case "audit-export":
		retention := *days
		if retention <= 0 {
			retention = cfg.Audit.RetentionDays
		}
		logs, err := audit.ExportBefore(ctx, retention, *limit)
		if err != nil {
			return err
		}
		out, err := export.NewCSVExporter().Export(service.AuditDataset(logs), "audit")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*outPath, out.Payload, 0o640); err != nil {
			return fmt.Errorf("write %s: %w", *outPath, err)
		}
		logr.Info("audit export written", zap.String("path", *outPath), zap.Int("rows", out.Rows), zap.Int("retention_days", retention))
		return nil

	default:
		return errUsage
	}
}
