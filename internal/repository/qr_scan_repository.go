package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const scanColumns = `id, device_id, scanned_code, scanned_by, scan_type, verification_success, device_location_at_scan,
assigned_staff_at_scan, scan_location, discrepancies_found, error_message, ip_address, user_agent, timestamp`

// ScanRepository stores QR scan records.
type ScanRepository struct {
	db *sqlx.DB
}

// NewScanRepository constructs the repository.
func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create appends a scan.
func (r *ScanRepository) Create(ctx context.Context, scan *models.QRCodeScan) error {
	const query = `INSERT INTO qr_code_scans (` + scanColumns + `)
VALUES (:id, :device_id, :scanned_code, :scanned_by, :scan_type, :verification_success, :device_location_at_scan,
:assigned_staff_at_scan, :scan_location, :discrepancies_found, :error_message, :ip_address, :user_agent, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, scan); err != nil {
		return fmt.Errorf("create qr scan: %w", err)
	}
	return nil
}

func scanWhere(filter models.ScanFilter) whereBuilder {
	var where whereBuilder
	if filter.DeviceID != "" {
		where.add("device_id = ?", filter.DeviceID)
	}
	if filter.ScanType != "" {
		where.add("scan_type = ?", filter.ScanType)
	}
	if filter.Success != nil {
		where.add("verification_success = ?", *filter.Success)
	}
	if filter.ScannedBy != "" {
		where.add("scanned_by = ?", filter.ScannedBy)
	}
	if filter.DateFrom != nil {
		where.add("timestamp >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where.add("timestamp < ?", *filter.DateTo)
	}
	return where
}

// List returns newest-first scans and the total count.
func (r *ScanRepository) List(ctx context.Context, filter models.ScanFilter) ([]models.QRCodeScan, int, error) {
	where := scanWhere(filter)
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM qr_code_scans%s ORDER BY timestamp DESC LIMIT %d OFFSET %d", scanColumns, where.clause(), limit, offset)
	out := make([]models.QRCodeScan, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list qr scans: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM qr_code_scans"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count qr scans: %w", err)
	}
	return out, total, nil
}

// Analytics aggregates scans in [from, to).
func (r *ScanRepository) Analytics(ctx context.Context, from, to time.Time, top int) (*models.ScanAnalytics, error) {
	out := &models.ScanAnalytics{From: from, To: to}
	var totals struct {
		Total   int `db:"total"`
		Success int `db:"success"`
	}
	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE verification_success) AS success
FROM qr_code_scans WHERE timestamp >= $1 AND timestamp < $2`
	if err := r.db.GetContext(ctx, &totals, totalsQuery, from, to); err != nil {
		return nil, fmt.Errorf("scan totals: %w", err)
	}
	out.TotalScans = totals.Total
	out.SuccessfulScans = totals.Success
	if totals.Total > 0 {
		out.SuccessRate = float64(totals.Success) / float64(totals.Total)
	}

	out.ByType = make([]models.ScanCount, 0)
	const byTypeQuery = `SELECT scan_type AS key, COUNT(*) AS count FROM qr_code_scans
WHERE timestamp >= $1 AND timestamp < $2 GROUP BY scan_type ORDER BY count DESC, key`
	if err := r.db.SelectContext(ctx, &out.ByType, byTypeQuery, from, to); err != nil {
		return nil, fmt.Errorf("scans by type: %w", err)
	}

	out.Daily = make([]models.ScanCount, 0)
	const dailyQuery = `SELECT TO_CHAR(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS key, COUNT(*) AS count FROM qr_code_scans
WHERE timestamp >= $1 AND timestamp < $2 GROUP BY key ORDER BY key`
	if err := r.db.SelectContext(ctx, &out.Daily, dailyQuery, from, to); err != nil {
		return nil, fmt.Errorf("daily scans: %w", err)
	}

	out.TopDiscrepancies = make([]models.ScanCount, 0)
	const discrepancyQuery = `SELECT d->>'field' AS key, COUNT(*) AS count
FROM qr_code_scans s, jsonb_array_elements(s.discrepancies_found) d
WHERE s.timestamp >= $1 AND s.timestamp < $2 GROUP BY key ORDER BY count DESC, key LIMIT $3`
	if err := r.db.SelectContext(ctx, &out.TopDiscrepancies, discrepancyQuery, from, to, top); err != nil {
		return nil, fmt.Errorf("top discrepancies: %w", err)
	}
	return out, nil
}
