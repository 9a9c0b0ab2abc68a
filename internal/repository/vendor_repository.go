package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

const vendorColumns = `id, vendor_code, name, vendor_type, contact_person, email, phone, address, is_active, created_at, updated_at`

// VendorRepository persists vendors.
type VendorRepository struct {
	db *sqlx.DB
}

// NewVendorRepository constructs the repository.
func NewVendorRepository(db *sqlx.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// List returns vendors ordered by name.
func (r *VendorRepository) List(ctx context.Context, activeOnly bool, search string) ([]models.Vendor, error) {
	var where whereBuilder
	if activeOnly {
		where.addRaw("is_active")
	}
	if search != "" {
		where.add("(LOWER(name) LIKE ? OR LOWER(vendor_code) LIKE ?)", likePattern(search))
	}
	vendors := make([]models.Vendor, 0)
	query := "SELECT " + vendorColumns + " FROM vendors" + where.clause() + " ORDER BY name ASC"
	if err := r.db.SelectContext(ctx, &vendors, query, where.args...); err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

// FindByID returns a vendor.
func (r *VendorRepository) FindByID(ctx context.Context, id string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.GetContext(ctx, &vendor, "SELECT "+vendorColumns+" FROM vendors WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find vendor: %w", err)
	}
	return &vendor, nil
}

// Create inserts a vendor.
func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	const query = `INSERT INTO vendors (id, vendor_code, name, vendor_type, contact_person, email, phone, address, is_active, created_at, updated_at)
VALUES (:id, :vendor_code, :name, :vendor_type, :contact_person, :email, :phone, :address, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vendor); err != nil {
		return translateUnique(err, "create vendor")
	}
	return nil
}

// SetActive toggles a vendor.
func (r *VendorRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE vendors SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at); err != nil {
		return fmt.Errorf("set vendor active: %w", err)
	}
	return nil
}
