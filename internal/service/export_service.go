package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
	"github.com/bps-secretariat/bps-inventory/pkg/export"
	"github.com/bps-secretariat/bps-inventory/pkg/storage"
)

type reportDatasetSource interface {
	Inventory(ctx context.Context, scope models.ReportScope) ([]models.InventoryRow, error)
	Warranty(ctx context.Context, scope models.ReportScope) ([]models.WarrantyRow, error)
	Assignments(ctx context.Context, scope models.ReportScope) ([]models.AssignmentReportRow, error)
	Maintenance(ctx context.Context, scope models.ReportScope) ([]models.MaintenanceReportRow, error)
	Audit(ctx context.Context, scope models.ReportScope) ([]models.AuditReportRow, error)
	DepartmentUtilization(ctx context.Context, scope models.ReportScope) ([]models.DepartmentUtilizationRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// InventoryHeaders is the column order of inventory_report.csv.
var InventoryHeaders = []string{
	"Device ID", "Asset Tag", "Device Name", "Category", "Type", "Brand", "Model", "Serial Number",
	"Status", "Condition", "Purchase Date", "Purchase Price", "Vendor", "Warranty End",
	"Current Location", "Current Assignment", "Created Date",
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix  string
	ResultTTL  time.Duration
	MaxRecords int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
	Rows         int
	Truncated    bool
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	datasets reportDatasetSource
	storage  fileStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(datasets reportDatasetSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 10000
	}
	return &ExportService{
		datasets: datasets,
		storage:  files,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate builds the dataset of a job, renders it in the requested format and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.Dataset(ctx, job.Type, job.Params)
	if err != nil {
		return nil, err
	}
	exporter, err := export.ForFormat(string(job.Params.Format))
	if err != nil {
		return nil, err
	}
	out, err := exporter.Export(dataset, title)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job, out.Extension), out.Payload)
	if err != nil {
		return nil, err
	}
	token, grant, err := s.signer.Issue(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    grant.ExpiresAt,
		Rows:         out.Rows,
		Truncated:    out.Truncated,
	}, nil
}

// Dataset loads the rows of a report within the captured scope. More than MaxRecords
// rows fails with ErrReportTooLarge.
func (s *ExportService) Dataset(ctx context.Context, reportType models.ReportType, params models.ReportJobParams) (export.Dataset, string, error) {
	scope, err := s.scope(params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	var (
		dataset export.Dataset
		title   string
	)
	switch reportType {
	case models.ReportTypeInventory:
		dataset, err = s.inventoryDataset(ctx, scope, params.Financial, InventoryHeaders)
		title = "Inventory Report"
	case models.ReportTypeCustom:
		columns, colErr := customColumns(params.Filters.Columns)
		if colErr != nil {
			return export.Dataset{}, "", colErr
		}
		dataset, err = s.inventoryDataset(ctx, scope, params.Financial, columns)
		title = "Custom Device Report"
	case models.ReportTypeWarranty:
		dataset, err = s.warrantyDataset(ctx, scope)
		title = "Warranty Report"
	case models.ReportTypeAssignments:
		dataset, err = s.assignmentDataset(ctx, scope)
		title = "Assignment Report"
	case models.ReportTypeMaintenance:
		dataset, err = s.maintenanceDataset(ctx, scope, params.Financial)
		title = "Maintenance Report"
	case models.ReportTypeAudit:
		dataset, err = s.auditDataset(ctx, scope)
		title = "Audit Log Report"
	case models.ReportTypeDepartmentUtilization:
		dataset, err = s.utilizationDataset(ctx, scope)
		title = "Department Utilization Report"
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if err != nil {
		return export.Dataset{}, "", err
	}
	if len(dataset.Rows) > s.cfg.MaxRecords {
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrReportTooLarge,
			fmt.Sprintf("report exceeds %d records; narrow the filters", s.cfg.MaxRecords))
	}
	return dataset, title, nil
}

// VerifyToken checks a download token and returns the file it grants.
func (s *ExportService) VerifyToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Verify(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) scope(params models.ReportJobParams) (models.ReportScope, error) {
	from, err := parseDate("filters.dateFrom", &params.Filters.DateFrom)
	if err != nil {
		return models.ReportScope{}, err
	}
	to, err := parseDate("filters.dateTo", &params.Filters.DateTo)
	if err != nil {
		return models.ReportScope{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return models.ReportScope{}, appErrors.Field("filters.dateTo", "cannot be before dateFrom")
	}
	if to != nil {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	return models.ReportScope{
		Filters:       params.Filters,
		DateFrom:      from,
		DateTo:        to,
		Restricted:    params.Restricted,
		DepartmentIDs: params.DepartmentIDs,
		Limit:         s.cfg.MaxRecords + 1,
	}, nil
}

func (s *ExportService) buildFilename(job *models.ReportJob, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", ReportFilename(job.Type), timestamp, sanitizeFilename(job.ID), ext)
}

// ReportFilename is the download base name of a report type, e.g. inventory_report.
func ReportFilename(reportType models.ReportType) string {
	return strings.ReplaceAll(string(reportType), "-", "_") + "_report"
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func customColumns(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return InventoryHeaders, nil
	}
	known := make(map[string]string, len(InventoryHeaders))
	for _, h := range InventoryHeaders {
		known[strings.ToLower(h)] = h
	}
	out := make([]string, 0, len(requested))
	for _, col := range dedupe(requested) {
		header, ok := known[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			return nil, appErrors.Field("filters.columns", "unknown column "+col)
		}
		out = append(out, header)
	}
	return out, nil
}

func (s *ExportService) inventoryDataset(ctx context.Context, scope models.ReportScope, financial bool, headers []string) (export.Dataset, error) {
	rows, err := s.datasets.Inventory(ctx, scope)
	if err != nil {
		return export.Dataset{}, repoError(err, "device", "load inventory report")
	}
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		price := ""
		if financial {
			price = decimalCell(r.PurchasePrice)
		}
		full := map[string]string{
			"Device ID":          r.DeviceID,
			"Asset Tag":          r.AssetTag,
			"Device Name":        r.DeviceName,
			"Category":           r.Category,
			"Type":               r.Type,
			"Brand":              r.Brand,
			"Model":              r.Model,
			"Serial Number":      r.SerialNumber,
			"Status":             r.Status,
			"Condition":          r.Condition,
			"Purchase Date":      dateCell(r.PurchaseDate),
			"Purchase Price":     price,
			"Vendor":             stringCell(r.Vendor),
			"Warranty End":       dateCell(r.WarrantyEnd),
			"Current Location":   stringCell(r.CurrentLocation),
			"Current Assignment": stringCell(r.CurrentAssignment),
			"Created Date":       r.CreatedAt.UTC().Format(models.DateLayout),
		}
		row := make(map[string]string, len(headers))
		for _, h := range headers {
			row[h] = full[h]
		}
		out = append(out, row)
	}
	return export.Dataset{Headers: headers, Rows: out}, nil
}

func (s *ExportService) warrantyDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, error) {
	rows, err := s.datasets.Warranty(ctx, scope)
	if err != nil {
		return export.Dataset{}, repoError(err, "device", "load warranty report")
	}
	today := models.DateOnly(s.now().UTC())
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		remaining := ""
		if r.WarrantyEnd != nil {
			remaining = strconv.Itoa(int(models.DateOnly(*r.WarrantyEnd).Sub(today).Hours() / 24))
		}
		out = append(out, map[string]string{
			"Device ID":      r.DeviceID,
			"Device Name":    r.DeviceName,
			"Category":       r.Category,
			"Vendor":         stringCell(r.Vendor),
			"Warranty Type":  r.WarrantyType,
			"Warranty Start": dateCell(r.WarrantyStart),
			"Warranty End":   dateCell(r.WarrantyEnd),
			"Days Remaining": remaining,
		})
	}
	return export.Dataset{
		Headers: []string{"Device ID", "Device Name", "Category", "Vendor", "Warranty Type", "Warranty Start", "Warranty End", "Days Remaining"},
		Rows:    out,
	}, nil
}

func (s *ExportService) assignmentDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, error) {
	rows, err := s.datasets.Assignments(ctx, scope)
	if err != nil {
		return export.Dataset{}, repoError(err, "assignment", "load assignment report")
	}
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]string{
			"Assignment ID":   r.AssignmentID,
			"Device ID":       r.DeviceID,
			"Device Name":     r.DeviceName,
			"Assigned To":     stringCell(r.AssignedTo),
			"Department":      stringCell(r.Department),
			"Location":        stringCell(r.Location),
			"Type":            r.Type,
			"Temporary":       yesNo(r.IsTemporary),
			"Active":          yesNo(r.IsActive),
			"Start Date":      r.StartDate.Format(models.DateLayout),
			"Expected Return": dateCell(r.ExpectedReturnDate),
			"Actual Return":   dateCell(r.ActualReturnDate),
		})
	}
	return export.Dataset{
		Headers: []string{"Assignment ID", "Device ID", "Device Name", "Assigned To", "Department", "Location", "Type",
			"Temporary", "Active", "Start Date", "Expected Return", "Actual Return"},
		Rows: out,
	}, nil
}

func (s *ExportService) maintenanceDataset(ctx context.Context, scope models.ReportScope, financial bool) (export.Dataset, error) {
	rows, err := s.datasets.Maintenance(ctx, scope)
	if err != nil {
		return export.Dataset{}, repoError(err, "maintenance", "load maintenance report")
	}
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		estimated, actual := "", ""
		if financial {
			estimated, actual = decimalCell(r.EstimatedCost), decimalCell(r.ActualCost)
		}
		out = append(out, map[string]string{
			"Device ID":      r.DeviceID,
			"Title":          r.Title,
			"Type":           r.Type,
			"Status":         r.Status,
			"Scheduled Date": r.ScheduledDate.Format(models.DateLayout),
			"Completed":      dateCell(r.CompletionDate),
			"Technician":     r.Technician,
			"Vendor":         stringCell(r.Vendor),
			"Estimated Cost": estimated,
			"Actual Cost":    actual,
		})
	}
	return export.Dataset{
		Headers: []string{"Device ID", "Title", "Type", "Status", "Scheduled Date", "Completed", "Technician", "Vendor", "Estimated Cost", "Actual Cost"},
		Rows:    out,
	}, nil
}

func (s *ExportService) auditDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, error) {
	rows, err := s.datasets.Audit(ctx, scope)
	if err != nil {
		return export.Dataset{}, repoError(err, "audit log", "load audit report")
	}
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]string{
			"Timestamp":  r.Timestamp.UTC().Format(time.RFC3339),
			"User":       stringCell(r.Username),
			"Action":     r.Action,
			"Model":      r.ModelName,
			"Object ID":  r.ObjectID,
			"Object":     r.ObjectRepr,
			"IP Address": r.IPAddress,
		})
	}
	return export.Dataset{
		Headers: []string{"Timestamp", "User", "Action", "Model", "Object ID", "Object", "IP Address"},
		Rows:    out,
	}, nil
}

func (s *ExportService) utilizationDataset(ctx context.Context, scope models.ReportScope) (export.Dataset, error) {
	rows, err := s.datasets.DepartmentUtilization(ctx, scope)
	if err != nil {
		return export.Dataset{}, repoError(err, "department", "load utilization report")
	}
	out := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		perStaff := "0.00"
		if r.ActiveStaff > 0 {
			perStaff = fmt.Sprintf("%.2f", float64(r.ActiveAssignments)/float64(r.ActiveStaff))
		}
		out = append(out, map[string]string{
			"Code":               r.Code,
			"Department":         r.Name,
			"Active Staff":       strconv.Itoa(r.ActiveStaff),
			"Active Assignments": strconv.Itoa(r.ActiveAssignments),
			"Overdue":            strconv.Itoa(r.OverdueCount),
			"Devices per Staff":  perStaff,
		})
	}
	return export.Dataset{
		Headers: []string{"Code", "Department", "Active Staff", "Active Assignments", "Overdue", "Devices per Staff"},
		Rows:    out,
	}, nil
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

func stringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func decimalCell(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
