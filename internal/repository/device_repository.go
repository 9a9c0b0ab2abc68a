package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/pkg/database"
)

const deviceIDRetries = 5

const deviceColumns = `d.id, d.device_id, d.asset_tag, d.serial_number, d.mac_address, d.ip_address, d.device_type_id, d.device_name,
d.brand, d.model, d.status, d.condition, d.vendor_id, d.purchase_date, d.purchase_price, d.purchase_order_number,
d.warranty_start_date, d.warranty_end_date, d.warranty_type, d.specifications, d.is_critical, d.current_location_id,
d.qr_payload, d.qr_generated_at, d.deployment_date, d.last_maintenance_date, d.next_maintenance_date, d.retirement_date,
d.notes, d.created_by, d.updated_by, d.created_at, d.updated_at`

const deviceDetailFrom = ` FROM devices d
JOIN device_types t ON t.id = d.device_type_id
JOIN device_subcategories sc ON sc.id = t.subcategory_id
JOIN device_categories c ON c.id = sc.category_id
LEFT JOIN vendors v ON v.id = d.vendor_id
LEFT JOIN locations l ON l.id = d.current_location_id
LEFT JOIN rooms r ON r.id = l.room_id
LEFT JOIN departments ld ON ld.id = r.department_id
LEFT JOIN floors f ON f.id = ld.floor_id
LEFT JOIN blocks b ON b.id = f.block_id
LEFT JOIN buildings bd ON bd.id = b.building_id
LEFT JOIN assignments a ON a.device_id = d.id AND a.is_active
LEFT JOIN staff st ON st.id = a.assigned_to_staff_id
LEFT JOIN locations al ON al.id = a.assigned_to_location_id
LEFT JOIN rooms ar ON ar.id = al.room_id
LEFT JOIN departments ad ON ad.id = COALESCE(a.assigned_to_department_id, st.department_id, ar.department_id)`

const deviceScopeExpr = `COALESCE(a.assigned_to_department_id, st.department_id, ar.department_id, r.department_id)`

var deviceDetailSelect = "SELECT " + deviceColumns + `, c.code AS category_code, c.name AS category_name, sc.name AS subcategory_name,
t.name AS type_name, v.name AS vendor_name,
CASE WHEN l.id IS NULL THEN NULL ELSE bd.code || '/' || b.code || '/F' || f.floor_number || '/' || ld.code || '/' || r.room_number || '/' || l.code END AS location_display,
a.assignment_id AS active_assignment_id, st.full_name AS assigned_staff_name, ad.id AS assigned_department_id,
ad.name AS assigned_department_name, ` + deviceScopeExpr + ` AS scope_department_id` + deviceDetailFrom

// DeviceStateChange lists the cached device fields the lifecycle engine maintains.
type DeviceStateChange struct {
	Status              *models.DeviceStatus
	Condition           *models.DeviceCondition
	LocationID          *string
	ClearLocation       bool
	DeploymentDate      *time.Time
	LastMaintenanceDate *time.Time
	UpdatedBy           *string
	At                  time.Time
}

// DeviceRepository persists devices.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository constructs the repository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Search returns device details matching filter and the total count.
func (r *DeviceRepository) Search(ctx context.Context, filter models.DeviceFilter) ([]models.DeviceDetail, int, error) {
	where := deviceWhere(filter)

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"device_id":         "d.device_id",
		"device_name":       "d.device_name",
		"status":            "d.status",
		"created_at":        "d.created_at",
		"warranty_end_date": "d.warranty_end_date",
		"purchase_date":     "d.purchase_date",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "d.created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", deviceDetailSelect, where.clause(), column, sortOrder, limit, offset)
	devices := make([]models.DeviceDetail, 0)
	if err := r.db.SelectContext(ctx, &devices, listQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("search devices: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+deviceDetailFrom+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count devices: %w", err)
	}
	return devices, total, nil
}

func deviceWhere(filter models.DeviceFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.Search != "" {
		where.add(`(LOWER(d.device_id) LIKE ? OR LOWER(d.asset_tag) LIKE ? OR LOWER(d.serial_number) LIKE ?
OR LOWER(d.device_name) LIKE ? OR LOWER(d.brand) LIKE ? OR LOWER(d.model) LIKE ?)`, likePattern(filter.Search))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		where.add("d.status = ANY(?)", pqStrings(statuses))
	}
	if filter.Condition != "" {
		where.add("d.condition = ?", filter.Condition)
	}
	if filter.CategoryID != "" {
		where.add("c.id = ?", filter.CategoryID)
	}
	if filter.DeviceTypeID != "" {
		where.add("d.device_type_id = ?", filter.DeviceTypeID)
	}
	if filter.VendorID != "" {
		where.add("d.vendor_id = ?", filter.VendorID)
	}
	if filter.IsCritical != nil {
		where.add("d.is_critical = ?", *filter.IsCritical)
	}
	if filter.WarrantyDays != nil {
		where.add("d.warranty_end_date IS NOT NULL AND d.warranty_end_date >= CURRENT_DATE AND d.warranty_end_date <= CURRENT_DATE + ?::int", *filter.WarrantyDays)
	}
	if filter.Restricted {
		where.scope(deviceScopeExpr, filter.DepartmentIDs)
	}
	return where
}

// FindDetail returns a device detail by row id or generated device id.
func (r *DeviceRepository) FindDetail(ctx context.Context, ref string) (*models.DeviceDetail, error) {
	var device models.DeviceDetail
	if err := r.db.GetContext(ctx, &device, deviceDetailSelect+" WHERE d.id = $1 OR d.device_id = $1 LIMIT 1", ref); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find device detail: %w", err)
	}
	return &device, nil
}

// FindByRef loads a device by row id or device id, locking it when forUpdate is set.
func (r *DeviceRepository) FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Device, error) {
	query := "SELECT " + deviceColumns + " FROM devices d WHERE d.id = $1 OR d.device_id = $1 LIMIT 1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var device models.Device
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &device, query, ref); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find device: %w", err)
	}
	return &device, nil
}

// NextSequence returns the next free sequence for prefix-year, scanning existing ids.
func (r *DeviceRepository) NextSequence(ctx context.Context, prefix string, year int) (int, error) {
	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(fmt.Sprintf("%s-%d-", prefix, year)) + "%"
	const query = `SELECT COALESCE(MAX(CAST(SUBSTRING(device_id FROM '([0-9]+)$') AS INTEGER)), 0) FROM devices WHERE device_id LIKE $1`
	var current int
	if err := r.db.GetContext(ctx, &current, query, pattern); err != nil {
		return 0, fmt.Errorf("scan device id sequence: %w", err)
	}
	return current + 1, nil
}

// Create inserts a device, generating device_id as prefix-YYYY-NNNN. A lost race on
// the generated id is retried with a fresh scan.
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device, prefix string) error {
	const query = `INSERT INTO devices (id, device_id, asset_tag, serial_number, mac_address, ip_address, device_type_id, device_name, brand, model,
status, condition, vendor_id, purchase_date, purchase_price, purchase_order_number, warranty_start_date, warranty_end_date, warranty_type,
specifications, is_critical, current_location_id, notes, created_by, updated_by, created_at, updated_at)
VALUES (:id, :device_id, :asset_tag, :serial_number, :mac_address, :ip_address, :device_type_id, :device_name, :brand, :model,
:status, :condition, :vendor_id, :purchase_date, :purchase_price, :purchase_order_number, :warranty_start_date, :warranty_end_date, :warranty_type,
:specifications, :is_critical, :current_location_id, :notes, :created_by, :updated_by, :created_at, :updated_at)`

	year := device.CreatedAt.Year()
	var lastErr error
	for attempt := 0; attempt < deviceIDRetries; attempt++ {
		seq, err := r.NextSequence(ctx, prefix, year)
		if err != nil {
			return err
		}
		device.DeviceID = FormatDeviceID(prefix, year, seq)
		_, err = r.db.NamedExecContext(ctx, query, device)
		if err == nil {
			return nil
		}
		if constraint, ok := database.UniqueViolation(err); ok && constraint == "devices_device_id_key" {
			lastErr = err
			continue
		}
		return translateUnique(err, "create device")
	}
	return translateUnique(lastErr, "create device")
}

// FormatDeviceID renders prefix-YYYY-NNNN.
func FormatDeviceID(prefix string, year, seq int) string {
	return prefix + "-" + strconv.Itoa(year) + "-" + fmt.Sprintf("%04d", seq)
}

// Update persists the editable device fields. Status is owned by ApplyState and
// Retire and is never written here.
func (r *DeviceRepository) Update(ctx context.Context, exec sqlx.ExtContext, device *models.Device) error {
	const query = `UPDATE devices SET asset_tag = :asset_tag, serial_number = :serial_number, mac_address = :mac_address, ip_address = :ip_address,
device_type_id = :device_type_id, device_name = :device_name, brand = :brand, model = :model, condition = :condition,
vendor_id = :vendor_id, purchase_date = :purchase_date, purchase_price = :purchase_price, purchase_order_number = :purchase_order_number,
warranty_start_date = :warranty_start_date, warranty_end_date = :warranty_end_date, warranty_type = :warranty_type,
specifications = :specifications, is_critical = :is_critical, current_location_id = :current_location_id,
next_maintenance_date = :next_maintenance_date, notes = :notes, updated_by = :updated_by, updated_at = :updated_at
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, device); err != nil {
		return translateUnique(err, "update device")
	}
	return nil
}

// Retire marks a device RETIRED and stamps retirement_date.
func (r *DeviceRepository) Retire(ctx context.Context, exec sqlx.ExtContext, id string, day time.Time, by *string, at time.Time) error {
	const query = `UPDATE devices SET status = 'RETIRED', retirement_date = $2, updated_by = $3, updated_at = $4 WHERE id = $1`
	if _, err := pickExec(r.db, exec).ExecContext(ctx, query, id, day, by, at); err != nil {
		return fmt.Errorf("retire device: %w", err)
	}
	return nil
}

// ApplyState writes the cached lifecycle fields of a device.
func (r *DeviceRepository) ApplyState(ctx context.Context, exec sqlx.ExtContext, id string, change DeviceStateChange) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	argPos := 1
	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}
	if change.Status != nil {
		add("status", *change.Status)
	}
	if change.Condition != nil {
		add("condition", *change.Condition)
	}
	switch {
	case change.ClearLocation:
		set = append(set, "current_location_id = NULL")
	case change.LocationID != nil:
		add("current_location_id", *change.LocationID)
	}
	if change.DeploymentDate != nil {
		set = append(set, fmt.Sprintf("deployment_date = COALESCE(deployment_date, $%d)", argPos))
		args = append(args, *change.DeploymentDate)
		argPos++
	}
	if change.LastMaintenanceDate != nil {
		add("last_maintenance_date", *change.LastMaintenanceDate)
	}
	if len(set) == 0 {
		return nil
	}
	add("updated_by", change.UpdatedBy)
	add("updated_at", change.At)

	query := fmt.Sprintf("UPDATE devices SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)
	if _, err := pickExec(r.db, exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply device state: %w", err)
	}
	return nil
}

// MarkCritical sets is_critical.
func (r *DeviceRepository) MarkCritical(ctx context.Context, exec sqlx.ExtContext, id string, by *string, at time.Time) error {
	const query = `UPDATE devices SET is_critical = TRUE, updated_by = $2, updated_at = $3 WHERE id = $1`
	if _, err := pickExec(r.db, exec).ExecContext(ctx, query, id, by, at); err != nil {
		return fmt.Errorf("mark device critical: %w", err)
	}
	return nil
}

// SaveQR stores the payload and, when png is non-nil, the rendered image.
func (r *DeviceRepository) SaveQR(ctx context.Context, id, payload string, png []byte, at time.Time) error {
	var err error
	if png == nil {
		_, err = r.db.ExecContext(ctx, `UPDATE devices SET qr_payload = $2 WHERE id = $1`, id, payload)
	} else {
		_, err = r.db.ExecContext(ctx, `UPDATE devices SET qr_payload = $2, qr_image = $3, qr_generated_at = $4 WHERE id = $1`, id, payload, png, at)
	}
	if err != nil {
		return fmt.Errorf("save device qr: %w", err)
	}
	return nil
}

// GetQR returns the stored QR artefact.
func (r *DeviceRepository) GetQR(ctx context.Context, id string) (*models.QRImage, error) {
	var image models.QRImage
	const query = `SELECT id AS device_id, qr_payload, qr_image, qr_generated_at FROM devices WHERE id = $1`
	if err := r.db.GetContext(ctx, &image, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get device qr: %w", err)
	}
	return &image, nil
}
