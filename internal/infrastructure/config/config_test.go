package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/portsim-go/internal/infrastructure/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 2, cfg.Port.Berths)
	assert.Equal(t, 90, cfg.Port.WarehouseCapacity)
	assert.Equal(t, 15, cfg.Port.InitialContainers)
	assert.Equal(t, 30*time.Second, cfg.Port.LockTimeout)
	assert.True(t, cfg.Port.EarlyReject)
	require.Len(t, cfg.Fleet.Ships, 3)
	assert.Equal(t, 30, cfg.Fleet.ContainerBase)
	assert.Equal(t, 5, cfg.Fleet.Visits)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.NoError(t, config.ValidateConfig(cfg))
}

func TestLoadConfig_FromFile(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
port:
  berths: 4
  warehouse_capacity: 200
  initial_containers: 0
  lock_timeout: 2s
  early_reject: false
fleet:
  visits: 0
  rate: 20
  ships:
    - name: Alpha
      capacity: 50
      containers: 10
logging:
  level: debug
  format: json
`)

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Port.Berths)
	assert.Equal(t, 200, cfg.Port.WarehouseCapacity)
	assert.Equal(t, 0, cfg.Port.InitialContainers)
	assert.Equal(t, 2*time.Second, cfg.Port.LockTimeout)
	assert.False(t, cfg.Port.EarlyReject)
	assert.Equal(t, 0, cfg.Fleet.Visits)
	assert.Equal(t, 20.0, cfg.Fleet.Rate)
	require.Len(t, cfg.Fleet.Ships, 1)
	assert.Equal(t, config.ShipConfig{Name: "Alpha", Capacity: 50, Containers: 10}, cfg.Fleet.Ships[0])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "port:\n  berths: 4\n")
	t.Setenv("PS_PORT_BERTHS", "6")
	t.Setenv("PS_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Port.Berths)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_DatabaseURL(t *testing.T) {
	path := writeConfig(t, "database:\n  type: postgres\n")
	t.Setenv("DATABASE_URL", "postgresql://portsim@localhost:5432/portsim")

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "postgresql://portsim@localhost:5432/portsim", cfg.Database.URL)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port overfilled", "port:\n  warehouse_capacity: 10\n  initial_containers: 11\n"},
		{"ship overfilled", "fleet:\n  ships:\n    - name: A\n      capacity: 5\n      containers: 6\n"},
		{"ship without name", "fleet:\n  ships:\n    - capacity: 5\n"},
		{"unknown database", "database:\n  type: mysql\n"},
		{"unknown log level", "logging:\n  level: verbose\n"},
		{"file output without path", "logging:\n  output: file\n"},
		{"negative rate", "fleet:\n  rate: -1\n"},
		{"duplicate ship names", "fleet:\n  ships:\n    - name: A\n      capacity: 5\n    - name: A\n      capacity: 5\n"},
		{"container base overlaps port ids", "port:\n  warehouse_capacity: 200\n  initial_containers: 40\nfleet:\n  container_base: 39\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ContainerBaseDefaultsAbovePortIDs(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
port:
  warehouse_capacity: 200
  initial_containers: 40
`)

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Fleet.ContainerBase)
}

func TestLoadConfig_ContainerBaseOverlapMessage(t *testing.T) {
	path := writeConfig(t, `
port:
  warehouse_capacity: 200
  initial_containers: 40
fleet:
  container_base: 10
`)

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ship ids from 10 overlap port ids below 40")
}

func TestLoadConfig_DuplicateShipNamesMessage(t *testing.T) {
	path := writeConfig(t, `
fleet:
  ships:
    - name: Alpha
      capacity: 10
    - name: Alpha
      capacity: 10
`)

	_, err := config.LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ship names must be unique")
}

func TestLoadConfig_ZeroCapacityPort(t *testing.T) {
	path := writeConfig(t, `
port:
  warehouse_capacity: 0
  initial_containers: 0
`)

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Port.WarehouseCapacity)
	assert.Equal(t, 0, cfg.Port.InitialContainers)
}

func TestLoadConfig_WarehouseCapacityDefault(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "port:\n  berths: 3\n"))

	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Port.WarehouseCapacity)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigOrDefault_FallsBack(t *testing.T) {
	cfg := config.LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, config.Default(), cfg)
}
