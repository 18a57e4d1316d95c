package simulation

import (
	"fmt"
	"time"

	"github.com/andrescamacho/portsim-go/internal/application/ship"
	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
)

// ShipSpec describes one ship of a scenario
type ShipSpec struct {
	Name       string
	Capacity   int
	Containers int // initial cargo
	Plan       ship.Plan
}

// Scenario describes a port and the fleet that visits it.
//
// Container ids are assigned consecutively: the port warehouse gets
// 0..PortContainers-1, and the ships share the range starting at
// ShipContainerBase in fleet order.
type Scenario struct {
	BerthCount        int
	WarehouseCapacity int
	PortContainers    int
	LockTimeout       time.Duration // 0 uses port.DefaultLockTimeout
	EarlyReject       bool
	ShipContainerBase int
	Ships             []ShipSpec
}

// DefaultScenario is the reference setup: two berths, a port warehouse of
// 90 holding 15 containers, and three ships of capacity 90 carrying 15
// containers each with ids from 30, 45 and 60.
func DefaultScenario() Scenario {
	plan := ship.Plan{Visits: 5, TransfersPerVisit: 3, MaxUnits: 10}
	return Scenario{
		BerthCount:        2,
		WarehouseCapacity: 90,
		PortContainers:    15,
		LockTimeout:       port.DefaultLockTimeout,
		EarlyReject:       true,
		ShipContainerBase: 30,
		Ships: []ShipSpec{
			{Name: "Ship1", Capacity: 90, Containers: 15, Plan: plan},
			{Name: "Ship2", Capacity: 90, Containers: 15, Plan: plan},
			{Name: "Ship3", Capacity: 90, Containers: 15, Plan: plan},
		},
	}
}

// TotalContainers is the number of containers the scenario creates
func (s Scenario) TotalContainers() int {
	total := s.PortContainers
	for _, spec := range s.Ships {
		total += spec.Containers
	}
	return total
}

// Validate checks sizes and id ranges before anything is built
func (s Scenario) Validate() error {
	if s.BerthCount <= 0 {
		return shared.NewValidationError("berthCount", "must be positive")
	}
	if s.WarehouseCapacity < 0 {
		return shared.NewValidationError("warehouseCapacity", "cannot be negative")
	}
	if s.PortContainers < 0 || s.PortContainers > s.WarehouseCapacity {
		return shared.NewValidationError("portContainers",
			fmt.Sprintf("must be between 0 and warehouse capacity %d", s.WarehouseCapacity))
	}
	if s.ShipContainerBase < s.PortContainers {
		return shared.NewValidationError("shipContainerBase",
			fmt.Sprintf("ship container ids from %d overlap port ids below %d", s.ShipContainerBase, s.PortContainers))
	}
	if len(s.Ships) == 0 {
		return shared.NewValidationError("ships", "at least one ship is required")
	}

	seen := make(map[string]bool, len(s.Ships))
	for _, spec := range s.Ships {
		if seen[spec.Name] {
			return shared.NewValidationError("ships", fmt.Sprintf("duplicate ship name %q", spec.Name))
		}
		seen[spec.Name] = true

		if spec.Containers < 0 || spec.Containers > spec.Capacity {
			return shared.NewValidationError("ships",
				fmt.Sprintf("ship %s: containers must be between 0 and capacity %d", spec.Name, spec.Capacity))
		}
	}
	return nil
}
