package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/internal/repository"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

const deviceHistoryLimit = 200

type deviceRepository interface {
	Search(ctx context.Context, filter models.DeviceFilter) ([]models.DeviceDetail, int, error)
	FindDetail(ctx context.Context, ref string) (*models.DeviceDetail, error)
	FindByRef(ctx context.Context, exec sqlx.ExtContext, ref string, forUpdate bool) (*models.Device, error)
	Create(ctx context.Context, device *models.Device, prefix string) error
	Update(ctx context.Context, exec sqlx.ExtContext, device *models.Device) error
	ApplyState(ctx context.Context, exec sqlx.ExtContext, id string, change repository.DeviceStateChange) error
	Retire(ctx context.Context, exec sqlx.ExtContext, id string, day time.Time, by *string, at time.Time) error
}

type deviceAssignmentLookup interface {
	txProvider
	ActiveForDevice(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*models.Assignment, error)
}

type deviceHistoryReader interface {
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.AssignmentHistory, error)
}

type deviceCatalogLookup interface {
	FindType(ctx context.Context, id string) (*models.DeviceType, error)
}

type deviceOrgLookup interface {
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	LocationPath(ctx context.Context, locationID string) (*models.LocationPath, error)
}

type deviceVendorLookup interface {
	FindByID(ctx context.Context, id string) (*models.Vendor, error)
}

// deviceQR is the slice of the QR service devices need.
type deviceQR interface {
	RefreshPayload(ctx context.Context, deviceID string) error
	Generate(ctx context.Context, actor models.Actor, deviceRef string) (*models.QRImage, error)
}

// DeviceService manages device records outside the assignment lifecycle.
type DeviceService struct {
	devices     deviceRepository
	assignments deviceAssignmentLookup
	history     deviceHistoryReader
	catalog     deviceCatalogLookup
	org         deviceOrgLookup
	vendors     deviceVendorLookup
	audit       *AuditService
	cache       *CacheService
	qr          deviceQR
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewDeviceService constructs the device service.
func NewDeviceService(
	devices deviceRepository,
	assignments deviceAssignmentLookup,
	history deviceHistoryReader,
	catalog deviceCatalogLookup,
	org deviceOrgLookup,
	vendors deviceVendorLookup,
	audit *AuditService,
	cache *CacheService,
	qr deviceQR,
	validate *validator.Validate,
	logger *zap.Logger,
) *DeviceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceService{
		devices:     devices,
		assignments: assignments,
		history:     history,
		catalog:     catalog,
		org:         org,
		vendors:     vendors,
		audit:       audit,
		cache:       cache,
		qr:          qr,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Search lists devices visible to the caller.
func (s *DeviceService) Search(ctx context.Context, perms *models.EffectivePermissions, filter models.DeviceFilter) ([]models.DeviceDetail, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	filter.DepartmentIDs, filter.Restricted = scopeOf(perms)
	for _, status := range filter.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Field("status", "unknown status "+string(status))
		}
	}
	items, total, err := s.devices.Search(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "device", "search devices")
	}
	today := models.DateOnly(s.now())
	for i := range items {
		s.present(&items[i], perms, today)
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one device. Devices outside the caller's scope do not exist for them.
func (s *DeviceService) Get(ctx context.Context, perms *models.EffectivePermissions, ref string) (*models.DeviceDetail, error) {
	detail, err := s.devices.FindDetail(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, repoError(err, "device", "load device")
	}
	if !perms.InScope(detail.ScopeDepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "device not found")
	}
	s.present(detail, perms, models.DateOnly(s.now()))
	return detail, nil
}

// present derives warranty status and hides financial fields from callers without access.
func (s *DeviceService) present(detail *models.DeviceDetail, perms *models.EffectivePermissions, today time.Time) {
	detail.WarrantyStatus = models.ClassifyWarranty(detail.WarrantyEndDate, today)
	if perms == nil || !perms.Has(models.PermViewFinancialData) {
		detail.PurchasePrice = decimal.NullDecimal{}
	}
}

// Create registers a device and generates its device id.
func (s *DeviceService) Create(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.CreateDeviceRequest) (*models.Device, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	dates, err := parseDeviceDates(req.PurchaseDate, req.WarrantyStartDate, req.WarrantyEndDate)
	if err != nil {
		return nil, err
	}
	condition := req.Condition
	if condition == "" {
		condition = models.ConditionNew
	}
	if !condition.Valid() {
		return nil, appErrors.Field("condition", "unknown condition "+string(condition))
	}
	if req.PurchasePrice != nil && req.PurchasePrice.IsNegative() {
		return nil, appErrors.Field("purchase_price", "cannot be negative")
	}

	deviceType, err := s.catalog.FindType(ctx, strings.TrimSpace(req.DeviceTypeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Field("device_type_id", "does not exist")
		}
		return nil, repoError(err, "device type", "load device type")
	}
	if err := s.checkVendor(ctx, req.VendorID); err != nil {
		return nil, err
	}
	locationID := trimPtr(req.CurrentLocationID)
	if err := s.checkLocation(ctx, perms, locationID); err != nil {
		return nil, err
	}
	departmentCode := ""
	if deptID := trimPtr(req.DepartmentID); deptID != nil {
		department, err := s.org.GetDepartment(ctx, *deptID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Field("department_id", "does not exist")
			}
			return nil, repoError(err, "department", "load department")
		}
		departmentCode = department.Code
	}

	now := s.now().UTC()
	device := &models.Device{
		ID:                  uuid.NewString(),
		AssetTag:            strings.TrimSpace(req.AssetTag),
		SerialNumber:        strings.TrimSpace(req.SerialNumber),
		MACAddress:          normalizeMAC(req.MACAddress),
		IPAddress:           trimPtr(req.IPAddress),
		DeviceTypeID:        deviceType.ID,
		DeviceName:          strings.TrimSpace(req.DeviceName),
		Brand:               strings.TrimSpace(req.Brand),
		Model:               strings.TrimSpace(req.Model),
		Status:              models.DeviceAvailable,
		Condition:           condition,
		VendorID:            trimPtr(req.VendorID),
		PurchaseDate:        dates.purchase,
		PurchaseOrderNumber: strings.TrimSpace(req.PurchaseOrderNumber),
		WarrantyStartDate:   dates.warrantyStart,
		WarrantyEndDate:     dates.warrantyEnd,
		WarrantyType:        strings.TrimSpace(req.WarrantyType),
		Specifications:      models.Specifications(req.Specifications),
		IsCritical:          req.IsCritical,
		CurrentLocationID:   locationID,
		Notes:               strings.TrimSpace(req.Notes),
		CreatedBy:           actor.UserIDPtr(),
		UpdatedBy:           actor.UserIDPtr(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.PurchasePrice != nil {
		device.PurchasePrice = decimal.NewNullDecimal(*req.PurchasePrice)
	}
	if device.Specifications == nil {
		device.Specifications = models.Specifications{}
	}

	if err := s.devices.Create(ctx, device, DeviceIDPrefix(deviceType.CategoryCode, departmentCode)); err != nil {
		return nil, repoError(err, "device", "create device")
	}

	changes := changeSet{}
	changes.add("device_id", nil, device.DeviceID)
	changes.add("asset_tag", nil, device.AssetTag)
	changes.add("serial_number", nil, device.SerialNumber)
	changes.add("device_name", nil, device.DeviceName)
	changes.add("status", nil, string(device.Status))
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  "Device",
		ObjectID:   device.DeviceID,
		ObjectRepr: deviceRepr(device),
		Changes:    changes.fields(),
	})
	s.afterChange(ctx, device.ID)
	return device, nil
}

// Update patches a device. The row is locked for the whole edit so lifecycle
// writes committed by assignments or retirement are never overwritten.
func (s *DeviceService) Update(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref string, req dto.UpdateDeviceRequest) (*models.Device, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.Get(ctx, perms, ref); err != nil {
		return nil, err
	}
	var (
		device  models.Device
		changes changeSet
	)
	err := inTx(ctx, s.assignments, func(tx *sqlx.Tx) error {
		current, err := s.devices.FindByRef(ctx, tx, strings.TrimSpace(ref), true)
		if err != nil {
			return repoError(err, "device", "load device")
		}
		if current.Status.Terminal() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("device %s is %s and can no longer be edited", current.DeviceID, current.Status))
		}
		device = *current
		if err := s.patchDevice(ctx, tx, perms, &device, req); err != nil {
			return err
		}
		if changes = deviceChanges(current, &device); len(changes) == 0 {
			return nil
		}
		device.UpdatedBy = actor.UserIDPtr()
		device.UpdatedAt = s.now().UTC()
		if err := s.devices.Update(ctx, tx, &device); err != nil {
			return repoError(err, "device", "update device")
		}
		if device.Status != current.Status {
			status := device.Status
			if err := s.devices.ApplyState(ctx, tx, device.ID, repository.DeviceStateChange{
				Status:    &status,
				UpdatedBy: device.UpdatedBy,
				At:        device.UpdatedAt,
			}); err != nil {
				return repoError(err, "device", "update device status")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return &device, nil
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionUpdate,
		ModelName:  "Device",
		ObjectID:   device.DeviceID,
		ObjectRepr: deviceRepr(&device),
		Changes:    changes.fields(),
	})
	s.afterChange(ctx, device.ID)
	return &device, nil
}

// patchDevice applies the request onto the locked copy of the device.
func (s *DeviceService) patchDevice(ctx context.Context, exec sqlx.ExtContext, perms *models.EffectivePermissions, device *models.Device, req dto.UpdateDeviceRequest) error {
	if req.AssetTag != nil {
		device.AssetTag = strings.TrimSpace(*req.AssetTag)
	}
	if req.SerialNumber != nil {
		device.SerialNumber = strings.TrimSpace(*req.SerialNumber)
	}
	if req.MACAddress != nil {
		device.MACAddress = normalizeMAC(req.MACAddress)
	}
	if req.IPAddress != nil {
		device.IPAddress = trimPtr(req.IPAddress)
	}
	if req.DeviceTypeID != nil && strings.TrimSpace(*req.DeviceTypeID) != device.DeviceTypeID {
		deviceType, err := s.catalog.FindType(ctx, strings.TrimSpace(*req.DeviceTypeID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Field("device_type_id", "does not exist")
			}
			return repoError(err, "device type", "load device type")
		}
		device.DeviceTypeID = deviceType.ID
	}
	if req.DeviceName != nil {
		device.DeviceName = strings.TrimSpace(*req.DeviceName)
	}
	if req.Brand != nil {
		device.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Model != nil {
		device.Model = strings.TrimSpace(*req.Model)
	}
	if req.Condition != nil {
		if !req.Condition.Valid() {
			return appErrors.Field("condition", "unknown condition "+string(*req.Condition))
		}
		device.Condition = *req.Condition
	}
	if req.VendorID != nil {
		if err := s.checkVendor(ctx, req.VendorID); err != nil {
			return err
		}
		device.VendorID = trimPtr(req.VendorID)
	}
	if req.PurchasePrice != nil {
		if perms == nil || !perms.Has(models.PermViewFinancialData) {
			return appErrors.Clone(appErrors.ErrForbidden, "financial data is not editable by this account")
		}
		if req.PurchasePrice.IsNegative() {
			return appErrors.Field("purchase_price", "cannot be negative")
		}
		device.PurchasePrice = decimal.NewNullDecimal(*req.PurchasePrice)
	}
	if req.PurchaseOrderNumber != nil {
		device.PurchaseOrderNumber = strings.TrimSpace(*req.PurchaseOrderNumber)
	}
	if req.WarrantyType != nil {
		device.WarrantyType = strings.TrimSpace(*req.WarrantyType)
	}
	if req.Specifications != nil {
		device.Specifications = models.Specifications(req.Specifications)
	}
	if req.IsCritical != nil {
		device.IsCritical = *req.IsCritical
	}
	if req.CurrentLocationID != nil {
		locationID := trimPtr(req.CurrentLocationID)
		if err := s.checkLocation(ctx, perms, locationID); err != nil {
			return err
		}
		device.CurrentLocationID = locationID
	}
	if req.Notes != nil {
		device.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.NextMaintenanceDate != nil {
		next, err := parseDate("next_maintenance_date", req.NextMaintenanceDate)
		if err != nil {
			return err
		}
		device.NextMaintenanceDate = next
	}
	if err := mergeDeviceDates(device, req.PurchaseDate, req.WarrantyStartDate, req.WarrantyEndDate); err != nil {
		return err
	}
	if req.Status != nil && *req.Status != device.Status {
		if err := s.checkStatusChange(ctx, exec, device, *req.Status); err != nil {
			return err
		}
		device.Status = *req.Status
	}
	return nil
}

// checkStatusChange keeps device status consistent with the active assignment.
// RETIRED is only reachable through Retire.
func (s *DeviceService) checkStatusChange(ctx context.Context, exec sqlx.ExtContext, device *models.Device, next models.DeviceStatus) error {
	if !next.Valid() {
		return appErrors.Field("status", "unknown status "+string(next))
	}
	if next == models.DeviceRetired {
		return appErrors.Field("status", "use the retire action to retire a device")
	}
	active, err := s.assignments.ActiveForDevice(ctx, exec, device.ID)
	switch {
	case err == nil && active != nil:
		if !next.HoldsAssignment() {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("device %s has active assignment %s; return it before setting %s", device.DeviceID, active.AssignmentID, next))
		}
	case errors.Is(err, sql.ErrNoRows):
		if next == models.DeviceAssigned {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "ASSIGNED is set by creating an assignment")
		}
	default:
		return repoError(err, "assignment", "check active assignment")
	}
	return nil
}

// Retire ends a device's service life. Devices with an active assignment must be returned first.
func (s *DeviceService) Retire(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, ref, reason string) (*models.Device, error) {
	if _, err := s.Get(ctx, perms, ref); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var (
		device  *models.Device
		changes changeSet
	)
	err := inTx(ctx, s.assignments, func(tx *sqlx.Tx) error {
		var err error
		device, err = s.devices.FindByRef(ctx, tx, strings.TrimSpace(ref), true)
		if err != nil {
			return repoError(err, "device", "load device")
		}
		if device.Status == models.DeviceRetired {
			return nil
		}
		if device.Status == models.DeviceDisposed {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("device %s is disposed", device.DeviceID))
		}
		active, err := s.assignments.ActiveForDevice(ctx, tx, device.ID)
		if err == nil {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("device %s has active assignment %s; return it before retiring", device.DeviceID, active.AssignmentID))
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return repoError(err, "assignment", "check active assignment")
		}
		day := models.DateOnly(now)
		if err := s.devices.Retire(ctx, tx, device.ID, day, actor.UserIDPtr(), now); err != nil {
			return repoError(err, "device", "retire device")
		}
		changes = changeSet{}
		changes.add("status", string(device.Status), string(models.DeviceRetired))
		changes.add("retirement_date", nil, day)
		if reason = strings.TrimSpace(reason); reason != "" {
			changes.add("reason", nil, reason)
		}
		device.Status = models.DeviceRetired
		device.RetirementDate = &day
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changes == nil {
		return device, nil
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionRetire,
		ModelName:  "Device",
		ObjectID:   device.DeviceID,
		ObjectRepr: deviceRepr(device),
		Changes:    changes.fields(),
	})
	s.afterChange(ctx, device.ID)
	return device, nil
}

// BulkAction applies one action to many devices, reporting per-device outcomes.
func (s *DeviceService) BulkAction(ctx context.Context, actor models.Actor, perms *models.EffectivePermissions, req dto.BulkDeviceActionRequest) (*dto.BulkActionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Action == dto.BulkActionSetCondition && !req.Condition.Valid() {
		return nil, appErrors.Field("condition", "is required for set_condition")
	}
	result := &dto.BulkActionResult{Succeeded: []string{}, Failed: map[string]string{}}
	for _, ref := range dedupe(req.DeviceIDs) {
		if err := ctx.Err(); err != nil {
			result.Failed[ref] = "request cancelled"
			continue
		}
		var err error
		switch req.Action {
		case dto.BulkActionRetire:
			_, err = s.Retire(ctx, actor, perms, ref, "bulk retire")
		case dto.BulkActionSetCondition:
			condition := req.Condition
			_, err = s.Update(ctx, actor, perms, ref, dto.UpdateDeviceRequest{Condition: &condition})
		case dto.BulkActionGenerateQR:
			if _, err = s.Get(ctx, perms, ref); err == nil {
				_, err = s.qr.Generate(ctx, actor, ref)
			}
		}
		if err != nil {
			result.Failed[ref] = appErrors.FromError(err).Message
			continue
		}
		result.Succeeded = append(result.Succeeded, ref)
	}
	return result, nil
}

// History returns the assignment history of a device, newest first.
func (s *DeviceService) History(ctx context.Context, perms *models.EffectivePermissions, ref string) ([]models.AssignmentHistory, error) {
	detail, err := s.Get(ctx, perms, ref)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListByDevice(ctx, detail.ID, deviceHistoryLimit)
	if err != nil {
		return nil, repoError(err, "history", "load device history")
	}
	return entries, nil
}

func (s *DeviceService) afterChange(ctx context.Context, deviceID string) {
	s.cache.InvalidateStats(ctx)
	if s.qr == nil {
		return
	}
	if err := s.qr.RefreshPayload(ctx, deviceID); err != nil {
		s.logger.Warn("failed to refresh qr payload", zap.String("device_id", deviceID), zap.Error(err))
	}
}

func (s *DeviceService) checkVendor(ctx context.Context, vendorID *string) error {
	id := trimPtr(vendorID)
	if id == nil {
		return nil
	}
	vendor, err := s.vendors.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Field("vendor_id", "does not exist")
		}
		return repoError(err, "vendor", "load vendor")
	}
	if !vendor.IsActive {
		return appErrors.Field("vendor_id", "vendor is inactive")
	}
	return nil
}

func (s *DeviceService) checkLocation(ctx context.Context, perms *models.EffectivePermissions, locationID *string) error {
	if locationID == nil {
		return nil
	}
	path, err := s.org.LocationPath(ctx, *locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Field("current_location_id", "does not exist")
		}
		return repoError(err, "location", "load location")
	}
	if !perms.InScope(&path.DepartmentID) {
		return appErrors.Clone(appErrors.ErrForbidden, "location is outside your scope")
	}
	return nil
}

type deviceDates struct {
	purchase      *time.Time
	warrantyStart *time.Time
	warrantyEnd   *time.Time
}

func parseDeviceDates(purchase, warrantyStart, warrantyEnd *string) (*deviceDates, error) {
	out, err := parseDeviceDatesRaw(purchase, warrantyStart, warrantyEnd)
	if err != nil {
		return nil, err
	}
	if err := checkWarranty(out.purchase, out.warrantyStart, out.warrantyEnd); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeDeviceDates(device *models.Device, purchase, warrantyStart, warrantyEnd *string) error {
	parsed, err := parseDeviceDatesRaw(purchase, warrantyStart, warrantyEnd)
	if err != nil {
		return err
	}
	if purchase != nil {
		device.PurchaseDate = parsed.purchase
	}
	if warrantyStart != nil {
		device.WarrantyStartDate = parsed.warrantyStart
	}
	if warrantyEnd != nil {
		device.WarrantyEndDate = parsed.warrantyEnd
	}
	return checkWarranty(device.PurchaseDate, device.WarrantyStartDate, device.WarrantyEndDate)
}

func parseDeviceDatesRaw(purchase, warrantyStart, warrantyEnd *string) (*deviceDates, error) {
	var out deviceDates
	var err error
	if out.purchase, err = parseDate("purchase_date", purchase); err != nil {
		return nil, err
	}
	if out.warrantyStart, err = parseDate("warranty_start_date", warrantyStart); err != nil {
		return nil, err
	}
	if out.warrantyEnd, err = parseDate("warranty_end_date", warrantyEnd); err != nil {
		return nil, err
	}
	return &out, nil
}

// checkWarranty enforces warranty_start >= purchase_date and warranty_end > warranty_start.
func checkWarranty(purchase, start, end *time.Time) error {
	fields := map[string]string{}
	if purchase != nil && start != nil && start.Before(*purchase) {
		fields["warranty_start_date"] = "cannot be before purchase_date"
	}
	if start != nil && end != nil && !end.After(*start) {
		fields["warranty_end_date"] = "must be after warranty_start_date"
	}
	if len(fields) > 0 {
		return appErrors.Validation(fields)
	}
	return nil
}

func normalizeMAC(value *string) *string {
	mac := trimPtr(value)
	if mac == nil {
		return nil
	}
	normalized := strings.ToUpper(strings.ReplaceAll(*mac, "-", ":"))
	return &normalized
}

func deviceChanges(before, after *models.Device) changeSet {
	changes := changeSet{}
	changes.add("asset_tag", before.AssetTag, after.AssetTag)
	changes.add("serial_number", before.SerialNumber, after.SerialNumber)
	changes.add("mac_address", before.MACAddress, after.MACAddress)
	changes.add("ip_address", before.IPAddress, after.IPAddress)
	changes.add("device_type_id", before.DeviceTypeID, after.DeviceTypeID)
	changes.add("device_name", before.DeviceName, after.DeviceName)
	changes.add("brand", before.Brand, after.Brand)
	changes.add("model", before.Model, after.Model)
	changes.add("status", string(before.Status), string(after.Status))
	changes.add("condition", string(before.Condition), string(after.Condition))
	changes.add("vendor_id", before.VendorID, after.VendorID)
	changes.add("purchase_date", before.PurchaseDate, after.PurchaseDate)
	changes.add("purchase_price", priceString(before.PurchasePrice), priceString(after.PurchasePrice))
	changes.add("purchase_order_number", before.PurchaseOrderNumber, after.PurchaseOrderNumber)
	changes.add("warranty_start_date", before.WarrantyStartDate, after.WarrantyStartDate)
	changes.add("warranty_end_date", before.WarrantyEndDate, after.WarrantyEndDate)
	changes.add("warranty_type", before.WarrantyType, after.WarrantyType)
	changes.add("specifications", map[string]string(before.Specifications), map[string]string(after.Specifications))
	changes.add("is_critical", before.IsCritical, after.IsCritical)
	changes.add("current_location_id", before.CurrentLocationID, after.CurrentLocationID)
	changes.add("next_maintenance_date", before.NextMaintenanceDate, after.NextMaintenanceDate)
	changes.add("notes", before.Notes, after.Notes)
	return changes
}

func priceString(price decimal.NullDecimal) interface{} {
	if !price.Valid {
		return nil
	}
	return price.Decimal.StringFixed(2)
}

func deviceRepr(device *models.Device) string {
	return device.DeviceID + " " + device.DeviceName
}
