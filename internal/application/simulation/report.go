package simulation

import (
	"fmt"
	"time"

	"github.com/andrescamacho/portsim-go/internal/application/ship"
	"github.com/andrescamacho/portsim-go/internal/domain/run"
)

// ShipReport is the final state of one ship
type ShipReport struct {
	Name     string
	Capacity int
	Cargo    int
	Stats    ship.Stats
}

// Report summarises a finished run
type Report struct {
	RunID        string
	Status       run.Status
	StartedAt    time.Time
	Duration     time.Duration
	BerthCount   int
	PortCapacity int
	PortLevel    int
	TotalBefore  int
	TotalAfter   int
	Ships        []ShipReport
}

// Conserved reports whether every container created at setup still exists
func (r *Report) Conserved() bool {
	return r.TotalBefore == r.TotalAfter
}

// ConservationError indicates containers were created or lost during a run
type ConservationError struct {
	RunID  string
	Before int
	After  int
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("run %s lost conservation: %d containers before, %d after", e.RunID, e.Before, e.After)
}
