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
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

// categoryPrefixes maps category codes onto the device id segment. OTHER has none.
var categoryPrefixes = map[string]string{
	"DATA_CENTER": "DC",
	"NETWORK":     "NET",
	"COMPUTING":   "IT",
	"DISPLAY":     "DSP",
	"PERIPHERAL":  "PER",
	"STORAGE":     "STO",
	"AUDIO_VIDEO": "AV",
	"MOBILE":      "MOB",
	"SECURITY":    "SEC",
}

// DeviceIDPrefix builds BPS[-CAT][-DEPT], the part of a device id before the year.
func DeviceIDPrefix(categoryCode, departmentCode string) string {
	parts := []string{"BPS"}
	if seg, ok := categoryPrefixes[strings.ToUpper(categoryCode)]; ok {
		parts = append(parts, seg)
	}
	if dept := strings.ToUpper(strings.TrimSpace(departmentCode)); dept != "" {
		parts = append(parts, dept)
	}
	return strings.Join(parts, "-")
}

type catalogRepository interface {
	ListCategories(ctx context.Context) ([]models.DeviceCategory, error)
	FindCategoryByCode(ctx context.Context, code string) (*models.DeviceCategory, error)
	CreateCategory(ctx context.Context, category *models.DeviceCategory) error
	ListSubcategories(ctx context.Context, categoryID string) ([]models.DeviceSubcategory, error)
	CreateSubcategory(ctx context.Context, sub *models.DeviceSubcategory) error
	ListTypes(ctx context.Context, subcategoryID string) ([]models.DeviceType, error)
	FindType(ctx context.Context, id string) (*models.DeviceType, error)
	CreateType(ctx context.Context, deviceType *models.DeviceType) error
}

// CatalogService manages the category > subcategory > type tree.
type CatalogService struct {
	repo      catalogRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo catalogRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// Categories lists every category.
func (s *CatalogService) Categories(ctx context.Context) ([]models.DeviceCategory, error) {
	out, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, repoError(err, "category", "list categories")
	}
	return out, nil
}

// Subcategories lists subcategories, optionally of one category.
func (s *CatalogService) Subcategories(ctx context.Context, categoryID string) ([]models.DeviceSubcategory, error) {
	out, err := s.repo.ListSubcategories(ctx, strings.TrimSpace(categoryID))
	if err != nil {
		return nil, repoError(err, "subcategory", "list subcategories")
	}
	return out, nil
}

// Types lists device types, optionally of one subcategory.
func (s *CatalogService) Types(ctx context.Context, subcategoryID string) ([]models.DeviceType, error) {
	out, err := s.repo.ListTypes(ctx, strings.TrimSpace(subcategoryID))
	if err != nil {
		return nil, repoError(err, "device type", "list device types")
	}
	return out, nil
}

// CreateCategory adds a category. Codes are restricted to the known category set.
func (s *CatalogService) CreateCategory(ctx context.Context, actor models.Actor, req dto.CreateCategoryRequest) (*models.DeviceCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !knownCategory(code) {
		return nil, appErrors.Field("code", "must be one of "+strings.Join(models.CategoryCodes, ", "))
	}
	category := &models.DeviceCategory{
		ID:          uuid.NewString(),
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, repoError(err, "category", "create category")
	}
	s.recordCreate(ctx, actor, "DeviceCategory", category.ID, category.Code+" "+category.Name)
	return category, nil
}

// CreateSubcategory adds a subcategory.
func (s *CatalogService) CreateSubcategory(ctx context.Context, actor models.Actor, req dto.CreateSubcategoryRequest) (*models.DeviceSubcategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	sub := &models.DeviceSubcategory{
		ID:         uuid.NewString(),
		CategoryID: strings.TrimSpace(req.CategoryID),
		Code:       strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:       strings.TrimSpace(req.Name),
		IsActive:   true,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateSubcategory(ctx, sub); err != nil {
		return nil, repoError(err, "subcategory", "create subcategory")
	}
	s.recordCreate(ctx, actor, "DeviceSubcategory", sub.ID, sub.Code+" "+sub.Name)
	return sub, nil
}

// CreateType adds a device type.
func (s *CatalogService) CreateType(ctx context.Context, actor models.Actor, req dto.CreateDeviceTypeRequest) (*models.DeviceType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	deviceType := &models.DeviceType{
		ID:            uuid.NewString(),
		SubcategoryID: strings.TrimSpace(req.SubcategoryID),
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		IsActive:      true,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.CreateType(ctx, deviceType); err != nil {
		return nil, repoError(err, "device type", "create device type")
	}
	s.recordCreate(ctx, actor, "DeviceType", deviceType.ID, deviceType.Name)
	return deviceType, nil
}

// Type returns a device type with its category code.
func (s *CatalogService) Type(ctx context.Context, id string) (*models.DeviceType, error) {
	deviceType, err := s.repo.FindType(ctx, id)
	if err != nil {
		return nil, repoError(err, "device type", "load device type")
	}
	return deviceType, nil
}

func (s *CatalogService) recordCreate(ctx context.Context, actor models.Actor, model, id, repr string) {
	changes := changeSet{}
	changes.add("name", nil, repr)
	s.audit.Record(ctx, actor, AuditEntry{
		Action:     models.AuditActionCreate,
		ModelName:  model,
		ObjectID:   id,
		ObjectRepr: repr,
		Changes:    changes.fields(),
	})
}

func knownCategory(code string) bool {
	for _, c := range models.CategoryCodes {
		if c == code {
			return true
		}
	}
	return false
}
