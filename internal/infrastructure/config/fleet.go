package config

// FleetConfig describes the ships and what they do at the port
type FleetConfig struct {
	Ships []ShipConfig `mapstructure:"ships" yaml:"ships" validate:"min=1,unique_ship_names,dive"`

	// First container id handed to ship cargo; ids below belong to the port
	ContainerBase int `mapstructure:"container_base" yaml:"container_base" validate:"min=0"`

	// Visits per ship, 0 runs until stopped
	Visits int `mapstructure:"visits" yaml:"visits" validate:"min=0"`

	// Add/Get calls per visit
	TransfersPerVisit int `mapstructure:"transfers_per_visit" yaml:"transfers_per_visit" validate:"min=0"`

	// Upper bound of containers per transfer
	MaxUnits int `mapstructure:"max_units" yaml:"max_units" validate:"min=0"`

	// Transfers per second per ship, 0 is unpaced
	Rate float64 `mapstructure:"rate" yaml:"rate" validate:"min=0"`

	// Random seed, 0 picks one per run
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
}

// ShipConfig describes one ship
type ShipConfig struct {
	Name       string `mapstructure:"name" yaml:"name" validate:"required"`
	Capacity   int    `mapstructure:"capacity" yaml:"capacity" validate:"min=0"`
	Containers int    `mapstructure:"containers" yaml:"containers" validate:"min=0,ltefield=Capacity"`
}
