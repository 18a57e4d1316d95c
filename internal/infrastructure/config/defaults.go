package config

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Port defaults reproduce the reference two-berth port
	if cfg.Port.Berths == 0 {
		cfg.Port.Berths = 2
	}
	if cfg.Port.LockTimeout == 0 {
		cfg.Port.LockTimeout = 30 * time.Second
	}

	// Fleet defaults
	if len(cfg.Fleet.Ships) == 0 {
		cfg.Fleet.Ships = []ShipConfig{
			{Name: "Ship1", Capacity: 90, Containers: 15},
			{Name: "Ship2", Capacity: 90, Containers: 15},
			{Name: "Ship3", Capacity: 90, Containers: 15},
		}
	}
	// Ship ids start above every id the initial port load uses
	if cfg.Fleet.ContainerBase == 0 {
		cfg.Fleet.ContainerBase = max(defaultContainerBase, cfg.Port.InitialContainers)
	}
	if cfg.Fleet.TransfersPerVisit == 0 {
		cfg.Fleet.TransfersPerVisit = 3
	}
	if cfg.Fleet.MaxUnits == 0 {
		cfg.Fleet.MaxUnits = 10
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "portsim.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "portsim"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "portsim"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Daemon defaults
	if cfg.Daemon.HealthAddress == "" {
		cfg.Daemon.HealthAddress = "localhost:50061"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/portsim.pid"
	}
	if cfg.Daemon.RunInterval == 0 {
		cfg.Daemon.RunInterval = 5 * time.Second
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}
}

// Defaults for keys whose zero value is meaningful, so SetDefaults cannot
// tell "unset" from "set to zero".
const (
	defaultWarehouseCapacity = 90
	defaultEarlyReject       = true
	defaultInitialContainers = 15
	defaultVisits            = 5
)

const defaultContainerBase = 30

// registerKeys makes every key known to viper so PS_* environment variables
// are picked up even when no config file mentions them.
func registerKeys(v *viper.Viper) {
	v.SetDefault("port.warehouse_capacity", defaultWarehouseCapacity)
	v.SetDefault("port.early_reject", defaultEarlyReject)
	v.SetDefault("port.initial_containers", defaultInitialContainers)
	v.SetDefault("fleet.visits", defaultVisits)

	for _, key := range []string{
		"port.berths", "port.warehouse_capacity", "port.initial_containers", "port.lock_timeout",
		"fleet.container_base", "fleet.visits", "fleet.transfers_per_visit", "fleet.max_units", "fleet.rate", "fleet.seed",
		"database.enabled", "database.type", "database.url", "database.host", "database.port",
		"database.user", "database.password", "database.name", "database.sslmode", "database.path",
		"logging.level", "logging.format", "logging.output", "logging.file_path",
		"metrics.enabled", "metrics.port", "metrics.host", "metrics.path",
		"daemon.health_address", "daemon.pid_file", "daemon.run_interval", "daemon.shutdown_timeout",
	} {
		_ = v.BindEnv(key)
	}
}
