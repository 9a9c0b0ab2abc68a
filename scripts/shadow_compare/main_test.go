package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodiesEqualIgnoresVolatileKeys(t *testing.T) {
	ignored := map[string]bool{"processing_time_ms": true}
	a := []byte(`{"data":{"total":3},"meta":{"processing_time_ms":12}}`)
	b := []byte(`{"data":{"total":3.0},"meta":{"processing_time_ms":48}}`)
	assert.True(t, bodiesEqual(a, b, ignored))
	assert.False(t, bodiesEqual(a, []byte(`{"data":{"total":4}}`), ignored))
	assert.False(t, bodiesEqual(a, []byte(`not json`), ignored))
}

func TestLoadTargetsRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets:\n  - method: POST\n    path: /inventory/devices\n"), 0o600))
	_, err := loadTargets(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("targets:\n  - path: /health\n    critical: true\n"), 0o600))
	file, err := loadTargets(path)
	require.NoError(t, err)
	assert.True(t, file.Targets[0].Critical)
}
