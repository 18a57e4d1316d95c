package ship

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
)

// Plan describes what a ship does while it runs
type Plan struct {
	Visits            int     // 0 means visit until the context is cancelled
	TransfersPerVisit int     // Add/Get calls per visit
	MaxUnits          int     // upper bound (inclusive) of containers per transfer
	Rate              float64 // transfers per second, 0 means unpaced
	Seed              uint64  // 0 picks a random seed
}

// Validate checks the plan before a ship is built
func (p Plan) Validate() error {
	switch {
	case p.Visits < 0:
		return shared.NewValidationError("visits", "cannot be negative")
	case p.TransfersPerVisit < 0:
		return shared.NewValidationError("transfersPerVisit", "cannot be negative")
	case p.MaxUnits < 0:
		return shared.NewValidationError("maxUnits", "cannot be negative")
	case p.Rate < 0:
		return shared.NewValidationError("rate", "cannot be negative")
	}
	return nil
}

const cargoReadTimeout = time.Second

// Stats counts what a ship achieved during Run
type Stats struct {
	Visits    int
	Unloaded  int // containers moved ship -> port
	Loaded    int // containers moved port -> ship
	Refused   int
	Abandoned int
}

// Ship is a concurrent actor that repeatedly moors at the port, moves
// containers through its berth and leaves.
type Ship struct {
	name      port.ShipID
	port      *port.Port
	warehouse *warehouse.Warehouse
	plan      Plan
	limiter   *rate.Limiter
	rng       *rand.Rand
}

// Option configures a Ship
type Option func(*Ship)

// WithLimiter shares a pacing limiter between ships instead of the per-ship
// limiter derived from Plan.Rate
func WithLimiter(limiter *rate.Limiter) Option {
	return func(s *Ship) {
		if limiter != nil {
			s.limiter = limiter
		}
	}
}

// NewShip creates a ship with an empty warehouse of the given capacity
func NewShip(name string, p *port.Port, capacity int, plan Plan, opts ...Option) (*Ship, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "cannot be empty")
	}
	if p == nil {
		return nil, shared.NewValidationError("port", "cannot be nil")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	w, err := warehouse.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse for ship %s: %w", name, err)
	}

	limit := rate.Inf
	if plan.Rate > 0 {
		limit = rate.Limit(plan.Rate)
	}

	s := &Ship{
		name:      port.ShipID(name),
		port:      p,
		warehouse: w,
		plan:      plan,
		limiter:   rate.NewLimiter(limit, 1),
		rng:       rand.New(rand.NewPCG(seedFor(plan.Seed), nameHash(name))),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func seedFor(seed uint64) uint64 {
	if seed == 0 {
		return rand.Uint64()
	}
	return seed
}

func nameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

func (s *Ship) Name() string                    { return string(s.name) }
func (s *Ship) ID() port.ShipID                 { return s.name }
func (s *Ship) Warehouse() *warehouse.Warehouse { return s.warehouse }
func (s *Ship) Plan() Plan                      { return s.plan }

// Cargo reads the number of containers aboard under the warehouse lock.
// The read survives cancellation of ctx but gives up after cargoReadTimeout.
func (s *Ship) Cargo(ctx context.Context) (int, error) {
	snap, err := s.warehouse.Snapshot(context.WithoutCancel(ctx), cargoReadTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to read cargo of ship %s: %w", s.name, err)
	}
	return snap.RealSize, nil
}

// SetContainersToWarehouse loads the initial cargo. Only valid before Run.
func (s *Ship) SetContainersToWarehouse(containers []warehouse.Container) error {
	if len(containers) > s.warehouse.FreeSize() {
		return shared.NewValidationError("containers",
			fmt.Sprintf("%d containers exceed free space %d of ship %s", len(containers), s.warehouse.FreeSize(), s.name))
	}
	s.warehouse.AddContainers(containers)
	return nil
}

// Run visits the port until the plan is complete or ctx is cancelled.
//
// Cancellation ends the run cleanly with a nil error; the berth held at that
// moment is always released. Errors are returned only for misuse of the port
// protocol or invalid transfers.
func (s *Ship) Run(ctx context.Context) (Stats, error) {
	logger := shared.LoggerFromContext(ctx)
	var stats Stats

	for s.plan.Visits == 0 || stats.Visits < s.plan.Visits {
		if ctx.Err() != nil {
			break
		}

		if !s.port.AcquireBerth(ctx, s.name) {
			if ctx.Err() != nil {
				break
			}
			return stats, &port.ProtocolViolationError{ShipID: s.name, Operation: "acquire a berth", Detail: "already moored"}
		}

		stopped, err := s.visit(ctx, &stats)

		// Release must happen even after cancellation.
		if !s.port.ReleaseBerth(context.WithoutCancel(ctx), s.name) {
			return stats, &port.ProtocolViolationError{ShipID: s.name, Operation: "release a berth", Detail: "no berth reserved"}
		}
		if err != nil {
			return stats, err
		}
		if stopped {
			break
		}
		stats.Visits++

		metadata := map[string]interface{}{
			"ship":      string(s.name),
			"visit":     stats.Visits,
			"unloaded":  stats.Unloaded,
			"loaded":    stats.Loaded,
			"refused":   stats.Refused,
			"abandoned": stats.Abandoned,
		}
		if cargo, err := s.Cargo(ctx); err == nil {
			metadata["cargo"] = cargo
		}
		logger.Log(shared.LevelInfo, fmt.Sprintf("ship %s completed visit %d", s.name, stats.Visits), metadata)
	}

	return stats, nil
}

// visit performs the transfers of one mooring. It reports stopped when the
// run must end early because ctx can no longer be honoured.
func (s *Ship) visit(ctx context.Context, stats *Stats) (stopped bool, err error) {
	berth, err := s.port.GetBerth(s.name)
	if err != nil {
		return false, err
	}

	for i := 0; i < s.plan.TransfersPerVisit; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			// Cancelled, or the next slot falls after the deadline.
			return true, nil
		}

		n := s.rng.IntN(s.plan.MaxUnits + 1)
		unload := s.rng.IntN(2) == 0

		if unload {
			err = berth.Unload(ctx, s.warehouse, n)
		} else {
			err = berth.Load(ctx, s.warehouse, n)
		}

		switch port.Outcome(err) {
		case port.OutcomeSuccess:
			if unload {
				stats.Unloaded += n
			} else {
				stats.Loaded += n
			}
		case port.OutcomeCapacityExceeded, port.OutcomeInsufficientStock:
			stats.Refused++
		case port.OutcomeLockTimeout:
			stats.Abandoned++
		case port.OutcomeCancelled:
			stats.Abandoned++
			return true, nil
		default:
			return false, fmt.Errorf("ship %s transfer through %v failed: %w", s.name, berth, err)
		}
	}
	return false, nil
}
