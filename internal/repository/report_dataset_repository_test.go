package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bps-secretariat/bps-inventory/internal/models"
)

func TestInventoryDatasetAppliesLimitAndFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportDatasetRepository(db)

	cols := []string{"device_id", "asset_tag", "device_name", "category", "type", "brand", "model", "serial_number", "status", "condition",
		"purchase_date", "purchase_price", "vendor", "warranty_end_date", "current_location", "current_assignment", "created_at"}
	created := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.status = $1 AND (c.id = $2 OR c.code = $2) ORDER BY d.device_id LIMIT 3")).
		WithArgs("ASSIGNED", "COMPUTING").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("BPS-IT-2025-0001", "AT-1", "Laptop", "Computing", "Laptop", "Dell", "Latitude", "SN1",
			"ASSIGNED", "GOOD", created, "1250.50", "PT Vendor", nil, "HQ/A/F3/STATIS01/301/DESK-01", "ASN-20250301-0001 - Budi", created))

	rows, err := repo.Inventory(context.Background(), models.ReportScope{
		Filters: models.ReportFilters{Status: "ASSIGNED", CategoryID: "COMPUTING"},
		Limit:   3,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1250.5", rows[0].PurchasePrice.Decimal.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceDatasetRestrictedWithoutScopeMatchesNothing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportDatasetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE FALSE")).WillReturnRows(sqlmock.NewRows([]string{"device_id"}))

	rows, err := repo.Maintenance(context.Background(), models.ReportScope{Restricted: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
