package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/bps-secretariat/bps-inventory/pkg/config"
)

func TestDSNQuotesValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "bps", Password: `it's secret`, Name: "inventory"})
	assert.Equal(t, `host='db' port=5432 user='bps' password='it\'s secret' dbname='inventory' sslmode=disable application_name=bps-inventory`, dsn)

	dsn = DSN(config.DatabaseConfig{Host: "db", Port: 5432, SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert device: %w", &pq.Error{Code: "23505", Constraint: "devices_device_id_key"})
	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "devices_device_id_key", constraint)

	_, ok = UniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}
