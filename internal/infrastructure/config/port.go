package config

import "time"

// PortConfig describes the port: berths and warehouse
type PortConfig struct {
	// Number of berths ships can moor at
	Berths int `mapstructure:"berths" yaml:"berths" validate:"min=1"`

	// Port warehouse capacity in containers
	WarehouseCapacity int `mapstructure:"warehouse_capacity" yaml:"warehouse_capacity" validate:"min=0"`

	// Containers placed in the port warehouse before ships start
	InitialContainers int `mapstructure:"initial_containers" yaml:"initial_containers" validate:"min=0,ltefield=WarehouseCapacity"`

	// Upper bound on every warehouse lock wait
	LockTimeout time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout" validate:"min=0"`

	// Reject impossible port-side transfers before waiting for the ship lock
	EarlyReject bool `mapstructure:"early_reject" yaml:"early_reject"`
}
