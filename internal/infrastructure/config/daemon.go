package config

import "time"

// DaemonConfig holds configuration of the long-running serve mode
type DaemonConfig struct {
	// gRPC health server address (host:port)
	HealthAddress string `mapstructure:"health_address" yaml:"health_address" validate:"required"`

	// PID file location
	PIDFile string `mapstructure:"pid_file" yaml:"pid_file"`

	// Pause between consecutive runs
	RunInterval time.Duration `mapstructure:"run_interval" yaml:"run_interval" validate:"min=0"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required"`
}
