package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
)

type vendorRepository interface {
	List(ctx context.Context, activeOnly bool, search string) ([]models.Vendor, error)
	FindByID(ctx context.Context, id string) (*models.Vendor, error)
	Create(ctx context.Context, vendor *models.Vendor) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}

// VendorService manages suppliers and service providers.
type VendorService struct {
	repo      vendorRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVendorService constructs the vendor service.
func NewVendorService(repo vendorRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *VendorService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorService{repo: repo, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// List returns vendors ordered by name.
func (s *VendorService) List(ctx context.Context, activeOnly bool, search string) ([]models.Vendor, error) {
	vendors, err := s.repo.List(ctx, activeOnly, strings.TrimSpace(search))
	if err != nil {
		return nil, repoError(err, "vendor", "list vendors")
	}
	return vendors, nil
}

// Get returns a vendor by id.
func (s *VendorService) Get(ctx context.Context, id string) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "vendor", "load vendor")
	}
	return vendor, nil
}

// Create registers a vendor.
func (s *VendorService) Create(ctx context.Context, actor models.Actor, req dto.CreateVendorRequest) (*models.Vendor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	vendorType := req.VendorType
	if vendorType == "" {
		vendorType = "SUPPLIER"
	}
	now := s.now().UTC()
	vendor := &models.Vendor{
		ID:            uuid.NewString(),
		VendorCode:    strings.ToUpper(strings.TrimSpace(req.VendorCode)),
		Name:          strings.TrimSpace(req.Name),
		VendorType:    vendorType,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, repoError(err, "vendor", "create vendor")
	}
	changes := changeSet{}
	changes.add("vendor_code", nil, vendor.VendorCode)
	changes.add("name", nil, vendor.Name)
	changes.add("vendor_type", nil, vendor.VendorType)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  "Vendor",
		ObjectID:   vendor.ID,
		ObjectRepr: vendor.VendorCode + " " + vendor.Name,
		Changes:    changes.fields(),
	})
	return vendor, nil
}

// SetActive toggles whether a vendor can be picked for new devices and maintenance.
func (s *VendorService) SetActive(ctx context.Context, actor models.Actor, id string, active bool) (*models.Vendor, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if vendor.IsActive == active {
		return vendor, nil
	}
	now := s.now().UTC()
	if err := s.repo.SetActive(ctx, vendor.ID, active, now); err != nil {
		return nil, repoError(err, "vendor", "update vendor")
	}
	changes := changeSet{}
	changes.add("is_active", vendor.IsActive, active)
	vendor.IsActive = active
	vendor.UpdatedAt = now
	action := models.AuditActionUpdate
	if !active {
		action = models.AuditActionDeactivate
	}
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     action,
		ModelName:  "Vendor",
		ObjectID:   vendor.ID,
		ObjectRepr: vendor.VendorCode + " " + vendor.Name,
		Changes:    changes.fields(),
	})
	return vendor, nil
}
