package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

// CatalogRepository persists the category, subcategory and type tiers.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories returns every category.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.DeviceCategory, error) {
	const query = `SELECT id, code, name, description, is_active, created_at FROM device_categories ORDER BY code`
	out := make([]models.DeviceCategory, 0)
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list device categories: %w", err)
	}
	return out, nil
}

// FindCategoryByCode returns a category by its code.
func (r *CatalogRepository) FindCategoryByCode(ctx context.Context, code string) (*models.DeviceCategory, error) {
	const query = `SELECT id, code, name, description, is_active, created_at FROM device_categories WHERE code = $1`
	var category models.DeviceCategory
	if err := r.db.GetContext(ctx, &category, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find device category: %w", err)
	}
	return &category, nil
}

// CreateCategory inserts a category.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.DeviceCategory) error {
	const query = `INSERT INTO device_categories (id, code, name, description, is_active, created_at) VALUES (:id, :code, :name, :description, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return translateUnique(err, "create device category")
	}
	return nil
}

// ListSubcategories returns subcategories, optionally under one category.
func (r *CatalogRepository) ListSubcategories(ctx context.Context, categoryID string) ([]models.DeviceSubcategory, error) {
	var where whereBuilder
	if categoryID != "" {
		where.add("category_id = ?", categoryID)
	}
	query := "SELECT id, category_id, code, name, is_active, created_at FROM device_subcategories" + where.clause() + " ORDER BY code"
	out := make([]models.DeviceSubcategory, 0)
	if err := r.db.SelectContext(ctx, &out, query, where.args...); err != nil {
		return nil, fmt.Errorf("list device subcategories: %w", err)
	}
	return out, nil
}

// CreateSubcategory inserts a subcategory.
func (r *CatalogRepository) CreateSubcategory(ctx context.Context, sub *models.DeviceSubcategory) error {
	const query = `INSERT INTO device_subcategories (id, category_id, code, name, is_active, created_at) VALUES (:id, :category_id, :code, :name, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return translateUnique(err, "create device subcategory")
	}
	return nil
}

const deviceTypeSelect = `SELECT t.id, t.subcategory_id, t.name, t.description, t.is_active, t.created_at, c.code AS category_code
FROM device_types t
JOIN device_subcategories s ON s.id = t.subcategory_id
JOIN device_categories c ON c.id = s.category_id`

// ListTypes returns device types, optionally under one subcategory.
func (r *CatalogRepository) ListTypes(ctx context.Context, subcategoryID string) ([]models.DeviceType, error) {
	var where whereBuilder
	if subcategoryID != "" {
		where.add("t.subcategory_id = ?", subcategoryID)
	}
	out := make([]models.DeviceType, 0)
	if err := r.db.SelectContext(ctx, &out, deviceTypeSelect+where.clause()+" ORDER BY t.name", where.args...); err != nil {
		return nil, fmt.Errorf("list device types: %w", err)
	}
	return out, nil
}

// FindType returns a device type with its category code.
func (r *CatalogRepository) FindType(ctx context.Context, id string) (*models.DeviceType, error) {
	var deviceType models.DeviceType
	if err := r.db.GetContext(ctx, &deviceType, deviceTypeSelect+" WHERE t.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find device type: %w", err)
	}
	return &deviceType, nil
}

// CreateType inserts a device type.
func (r *CatalogRepository) CreateType(ctx context.Context, deviceType *models.DeviceType) error {
	const query = `INSERT INTO device_types (id, subcategory_id, name, description, is_active, created_at) VALUES (:id, :subcategory_id, :name, :description, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deviceType); err != nil {
		return translateUnique(err, "create device type")
	}
	return nil
}
