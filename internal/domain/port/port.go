package port

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
	"github.com/andrescamacho/portsim-go/pkg/pool"
)

// ShipID identifies a ship in the assignment registry
type ShipID string

// Port owns a fixed set of berths and the port warehouse they serve.
//
// Berth lifecycle: Free (in the pool) -> Reserved(ship) (in the registry) -> Free.
// A berth is always in exactly one of the two places, except for the instant
// between leaving the pool and being recorded, which only the acquiring ship
// can observe.
//
// Thread-Safety:
// AcquireBerth, ReleaseBerth and GetBerth may be called from any number of
// ship goroutines. SetContainersToWarehouse is setup-only.
type Port struct {
	berths      []*Berth
	pool        *pool.Pool[*Berth]
	warehouse   *warehouse.Warehouse
	assignments *Registry
	recorder    Recorder
	clock       shared.Clock
}

// NewPort creates a port with berthCount berths and an empty warehouse.
func NewPort(berthCount, warehouseCapacity int, opts ...Option) (*Port, error) {
	if berthCount <= 0 {
		return nil, shared.NewValidationError("berthCount", "must be positive")
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	portWarehouse, err := warehouse.New(warehouseCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create port warehouse: %w", err)
	}

	berths := make([]*Berth, berthCount)
	for i := range berths {
		berths[i] = newBerth(i, portWarehouse, cfg)
	}

	return &Port{
		berths:      berths,
		pool:        pool.New(berths...),
		warehouse:   portWarehouse,
		assignments: NewRegistry(),
		recorder:    cfg.recorder,
		clock:       cfg.clock,
	}, nil
}

// Warehouse returns the port warehouse
func (p *Port) Warehouse() *warehouse.Warehouse { return p.warehouse }

// BerthCount returns the total number of berths
func (p *Port) BerthCount() int { return len(p.berths) }

// FreeBerths returns the number of berths currently in the pool
func (p *Port) FreeBerths() int { return p.pool.Available() }

// SetContainersToWarehouse bulk-loads the port warehouse without locking.
// Only valid before ships start.
func (p *Port) SetContainersToWarehouse(containers []warehouse.Container) error {
	if len(containers) > p.warehouse.FreeSize() {
		return shared.NewValidationError("containers",
			fmt.Sprintf("%d containers exceed free space %d", len(containers), p.warehouse.FreeSize()))
	}
	p.warehouse.AddContainers(containers)
	return nil
}

// AcquireBerth blocks until a berth is free, then reserves it for the ship.
// It returns false if the wait was cancelled or the ship already holds a berth.
func (p *Port) AcquireBerth(ctx context.Context, id ShipID) bool {
	_, err := p.Moor(ctx, id)
	return err == nil
}

// Moor is AcquireBerth returning the reserved berth, or
// *MooringDeniedError / *ProtocolViolationError.
func (p *Port) Moor(ctx context.Context, id ShipID) (*Berth, error) {
	logger := shared.LoggerFromContext(ctx)
	start := p.clock.Now()

	if current, held := p.assignments.Get(id); held {
		return nil, p.rejectDoubleMooring(logger, id, current, 0)
	}

	berth, err := p.pool.Acquire(ctx)
	if err != nil {
		denied := &MooringDeniedError{ShipID: id, Err: err}
		p.recorder.RecordMooring(MooringEvent{ShipID: id, BerthID: -1, Wait: p.clock.Now().Sub(start), Err: denied})
		logger.Log(shared.LevelDebug, denied.Error(), map[string]interface{}{"ship": string(id)})
		return nil, denied
	}
	wait := p.clock.Now().Sub(start)

	if !p.assignments.PutIfAbsent(id, berth) {
		// Keep the pool whole; the berth was never recorded.
		_ = p.pool.Release(berth)
		current, _ := p.assignments.Get(id)
		return nil, p.rejectDoubleMooring(logger, id, current, wait)
	}

	p.recorder.RecordMooring(MooringEvent{ShipID: id, BerthID: berth.ID(), Wait: wait})
	logger.Log(shared.LevelDebug, fmt.Sprintf("ship %s moored at berth %d", id, berth.ID()), map[string]interface{}{
		"ship":     string(id),
		"berth_id": berth.ID(),
		"wait_ms":  wait.Milliseconds(),
	})
	return berth, nil
}

func (p *Port) rejectDoubleMooring(logger shared.Logger, id ShipID, current *Berth, wait time.Duration) error {
	violation := &ProtocolViolationError{
		ShipID:    id,
		Operation: "acquire a berth",
		Detail:    fmt.Sprintf("already moored at %v", current),
	}
	p.recorder.RecordMooring(MooringEvent{ShipID: id, BerthID: -1, Wait: wait, Err: violation})
	logger.Log(shared.LevelWarn, violation.Error(), map[string]interface{}{"ship": string(id)})
	return violation
}

// ReleaseBerth returns the ship's berth to the pool.
// It returns false if the ship holds no berth.
func (p *Port) ReleaseBerth(ctx context.Context, id ShipID) bool {
	return p.Unmoor(ctx, id) == nil
}

// Unmoor is ReleaseBerth returning *ProtocolViolationError when the ship
// holds no berth.
//
// The assignment is removed before the berth re-enters the pool, so a berth
// handed to a new ship is never still mapped to the old one.
func (p *Port) Unmoor(ctx context.Context, id ShipID) error {
	logger := shared.LoggerFromContext(ctx)

	berth, ok := p.assignments.Remove(id)
	if !ok {
		violation := &ProtocolViolationError{ShipID: id, Operation: "release a berth", Detail: "no berth reserved"}
		logger.Log(shared.LevelWarn, violation.Error(), map[string]interface{}{"ship": string(id)})
		return violation
	}
	logger.Log(shared.LevelDebug, fmt.Sprintf("ship %s removed assignment to berth %d", id, berth.ID()), nil)

	if err := p.pool.Release(berth); err != nil {
		// Only reachable if a berth was put back twice.
		return fmt.Errorf("failed to return berth %d to pool: %w", berth.ID(), err)
	}

	p.recorder.RecordRelease(ReleaseEvent{ShipID: id, BerthID: berth.ID()})
	logger.Log(shared.LevelDebug, fmt.Sprintf("ship %s released berth %d", id, berth.ID()), map[string]interface{}{
		"ship":     string(id),
		"berth_id": berth.ID(),
	})
	return nil
}

// GetBerth returns the berth reserved by the ship, or *ProtocolViolationError
// if the ship never acquired one.
func (p *Port) GetBerth(id ShipID) (*Berth, error) {
	berth, ok := p.assignments.Get(id)
	if !ok {
		return nil, &ProtocolViolationError{ShipID: id, Operation: "use a berth", Detail: "berth used without reservation"}
	}
	return berth, nil
}

// MooredShips returns ship -> berth id for every current reservation
func (p *Port) MooredShips() map[ShipID]int {
	snapshot := p.assignments.Snapshot()
	out := make(map[ShipID]int, len(snapshot))
	for id, berth := range snapshot {
		out[id] = berth.ID()
	}
	return out
}

// BerthIDs returns the ids of all berths in ascending order
func (p *Port) BerthIDs() []int {
	ids := make([]int, len(p.berths))
	for i, b := range p.berths {
		ids[i] = b.ID()
	}
	return ids
}
