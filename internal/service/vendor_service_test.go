package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bps-secretariat/bps-inventory/internal/dto"
	"github.com/bps-secretariat/bps-inventory/internal/models"
	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

type mockVendorRepo struct {
	rows map[string]*models.Vendor
}

func (m *mockVendorRepo) List(ctx context.Context, activeOnly bool, search string) ([]models.Vendor, error) {
	out := make([]models.Vendor, 0, len(m.rows))
	for _, v := range m.rows {
		if !activeOnly || v.IsActive {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockVendorRepo) FindByID(ctx context.Context, id string) (*models.Vendor, error) {
	if v, ok := m.rows[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockVendorRepo) Create(ctx context.Context, vendor *models.Vendor) error {
	m.rows[vendor.ID] = vendor
	return nil
}

func (m *mockVendorRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	m.rows[id].IsActive = active
	return nil
}

type mockCatalogRepo struct {
	categories []models.DeviceCategory
	types      []models.DeviceType
}

func (m *mockCatalogRepo) ListCategories(ctx context.Context) ([]models.DeviceCategory, error) {
	return m.categories, nil
}

func (m *mockCatalogRepo) FindCategoryByCode(ctx context.Context, code string) (*models.DeviceCategory, error) {
	for _, c := range m.categories {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) CreateCategory(ctx context.Context, category *models.DeviceCategory) error {
	m.categories = append(m.categories, *category)
	return nil
}

func (m *mockCatalogRepo) ListSubcategories(ctx context.Context, categoryID string) ([]models.DeviceSubcategory, error) {
	return nil, nil
}

func (m *mockCatalogRepo) CreateSubcategory(ctx context.Context, sub *models.DeviceSubcategory) error {
	return nil
}

func (m *mockCatalogRepo) ListTypes(ctx context.Context, subcategoryID string) ([]models.DeviceType, error) {
	return m.types, nil
}

func (m *mockCatalogRepo) FindType(ctx context.Context, id string) (*models.DeviceType, error) {
	for _, t := range m.types {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) CreateType(ctx context.Context, deviceType *models.DeviceType) error {
	m.types = append(m.types, *deviceType)
	return nil
}

func TestVendorServiceLifecycle(t *testing.T) {
	repo := &mockVendorRepo{rows: map[string]*models.Vendor{}}
	audit := &mockAuditRepo{}
	svc := NewVendorService(repo, NewAuditService(audit, zap.NewNop()), nil, zap.NewNop())
	ctx := context.Background()

	vendor, err := svc.Create(ctx, adminActor, dto.CreateVendorRequest{VendorCode: " sk-01 ", Name: "PT Sinar Komputer", Email: "Sales@Sinar.co.id"})
	require.NoError(t, err)
	assert.Equal(t, "SK-01", vendor.VendorCode)
	assert.Equal(t, "SUPPLIER", vendor.VendorType)
	assert.Equal(t, "sales@sinar.co.id", vendor.Email)

	_, err = svc.SetActive(ctx, adminActor, vendor.ID, true)
	require.NoError(t, err)
	deactivated, err := svc.SetActive(ctx, adminActor, vendor.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, []string{models.AuditActionCreate, models.AuditActionDeactivate}, audit.actions())

	active, err := svc.List(ctx, true, "")
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Get(ctx, "vendor-x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)

	_, err = svc.Create(ctx, adminActor, dto.CreateVendorRequest{VendorCode: "X", Name: "Bad", VendorType: "BROKER"})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "vendor_type")
}

func TestCatalogServiceCreateCategory(t *testing.T) {
	repo := &mockCatalogRepo{}
	audit := &mockAuditRepo{}
	svc := NewCatalogService(repo, NewAuditService(audit, zap.NewNop()), nil, zap.NewNop())
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, adminActor, dto.CreateCategoryRequest{Code: "network", Name: "Network"})
	require.NoError(t, err)
	assert.Equal(t, "NETWORK", category.Code)
	assert.Equal(t, []string{models.AuditActionCreate}, audit.actions())

	_, err = svc.CreateCategory(ctx, adminActor, dto.CreateCategoryRequest{Code: "FURNITURE", Name: "Furniture"})
	require.Error(t, err)
	assert.Contains(t, err.(*appErrors.Error).Fields, "code")
	assert.Len(t, repo.categories, 1)

	deviceType, err := svc.CreateType(ctx, adminActor, dto.CreateDeviceTypeRequest{SubcategoryID: "sub-1", Name: " Switch "})
	require.NoError(t, err)
	found, err := svc.Type(ctx, deviceType.ID)
	require.NoError(t, err)
	assert.Equal(t, "Switch", found.Name)
}
