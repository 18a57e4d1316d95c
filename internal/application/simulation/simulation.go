package simulation

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/portsim-go/internal/application/ship"
	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/run"
	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
	"github.com/andrescamacho/portsim-go/pkg/utils"
)

type options struct {
	runID    string
	recorder port.Recorder
	clock    shared.Clock
	runs     run.Repository
	limiter  *rate.Limiter
	onPort   func(*port.Port)
}

// Option configures a simulation run
type Option func(*options)

// WithRunID fixes the run id instead of generating one
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithRecorder installs a port event recorder, e.g. a metrics collector
func WithRecorder(r port.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithClock injects the clock used for run timing and berth waits
func WithClock(c shared.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRunRepository journals the run start and finish
func WithRunRepository(repo run.Repository) Option {
	return func(o *options) { o.runs = repo }
}

// WithFleetLimiter paces all ships through one shared limiter
func WithFleetLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithPortObserver hands the freshly built port to fn before any ship
// starts, e.g. to sample berth occupancy from outside the run
func WithPortObserver(fn func(*port.Port)) Option {
	return func(o *options) { o.onPort = fn }
}

// Run builds the port and fleet described by the scenario and runs every
// ship concurrently until their plans complete or ctx is cancelled.
//
// A cancelled run still returns its report with status CANCELLED. A run that
// breaks container conservation returns its report together with a
// *ConservationError.
func Run(ctx context.Context, scenario Scenario, opts ...Option) (*Report, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	cfg := &options{clock: shared.NewRealClock()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.runID == "" {
		cfg.runID = utils.GenerateRunID("run")
	}

	logger := shared.LoggerFromContext(ctx)

	p, fleet, err := build(scenario, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.onPort != nil {
		cfg.onPort(p)
	}

	startedAt := cfg.clock.Now()
	if cfg.runs != nil {
		record := &run.Run{
			ID:                cfg.runID,
			StartedAt:         startedAt,
			Status:            run.StatusRunning,
			BerthCount:        scenario.BerthCount,
			WarehouseCapacity: scenario.WarehouseCapacity,
			ShipCount:         len(fleet),
			TotalContainers:   scenario.TotalContainers(),
			PortLevel:         -1,
		}
		if err := cfg.runs.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to journal run %s: %w", cfg.runID, err)
		}
	}

	logger.Log(shared.LevelInfo, fmt.Sprintf("run %s started", cfg.runID), map[string]interface{}{
		"run_id":             cfg.runID,
		"berths":             scenario.BerthCount,
		"warehouse_capacity": scenario.WarehouseCapacity,
		"ships":              len(fleet),
		"containers":         scenario.TotalContainers(),
	})

	stats := make([]ship.Stats, len(fleet))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range fleet {
		g.Go(func() error {
			st, err := s.Run(gctx)
			stats[i] = st
			if err != nil {
				return fmt.Errorf("ship %s: %w", s.Name(), err)
			}
			return nil
		})
	}
	runErr := g.Wait()

	// Every ship has returned, so the warehouses are no longer shared.
	report := &Report{
		RunID:        cfg.runID,
		StartedAt:    startedAt,
		Duration:     cfg.clock.Now().Sub(startedAt),
		BerthCount:   p.BerthCount(),
		PortCapacity: p.Warehouse().Capacity(),
		PortLevel:    p.Warehouse().RealSize(),
		TotalBefore:  scenario.TotalContainers(),
	}
	report.TotalAfter = report.PortLevel
	for i, s := range fleet {
		cargo := s.Warehouse().RealSize()
		report.TotalAfter += cargo
		report.Ships = append(report.Ships, ShipReport{
			Name:     s.Name(),
			Capacity: s.Warehouse().Capacity(),
			Cargo:    cargo,
			Stats:    stats[i],
		})
	}

	switch {
	case runErr != nil:
		report.Status = run.StatusFailed
	case !report.Conserved():
		report.Status = run.StatusFailed
		runErr = &ConservationError{RunID: cfg.runID, Before: report.TotalBefore, After: report.TotalAfter}
	case ctx.Err() != nil:
		report.Status = run.StatusCancelled
	default:
		report.Status = run.StatusCompleted
	}

	level := shared.LevelInfo
	if runErr != nil {
		level = shared.LevelError
	}
	logger.Log(level, fmt.Sprintf("run %s finished: %s", cfg.runID, report.Status), map[string]interface{}{
		"run_id":      cfg.runID,
		"status":      string(report.Status),
		"port_level":  report.PortLevel,
		"total":       report.TotalAfter,
		"duration_ms": report.Duration.Milliseconds(),
	})

	if cfg.runs != nil {
		summary := run.Summary{Status: report.Status, FinishedAt: cfg.clock.Now(), PortLevel: report.PortLevel}
		// The run context may already be cancelled; the journal still needs the outcome.
		if err := cfg.runs.Finish(context.WithoutCancel(ctx), cfg.runID, summary); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to journal run %s result: %w", cfg.runID, err))
		}
	}

	return report, runErr
}

// build creates the port and the fleet with their initial cargo
func build(scenario Scenario, cfg *options) (*port.Port, []*ship.Ship, error) {
	portOpts := []port.Option{
		port.WithEarlyReject(scenario.EarlyReject),
		port.WithClock(cfg.clock),
	}
	if scenario.LockTimeout > 0 {
		portOpts = append(portOpts, port.WithLockTimeout(scenario.LockTimeout))
	}
	if cfg.recorder != nil {
		portOpts = append(portOpts, port.WithRecorder(cfg.recorder))
	}

	p, err := port.NewPort(scenario.BerthCount, scenario.WarehouseCapacity, portOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create port: %w", err)
	}
	if err := p.SetContainersToWarehouse(warehouse.NewContainers(0, scenario.PortContainers)); err != nil {
		return nil, nil, fmt.Errorf("failed to load port warehouse: %w", err)
	}

	var shipOpts []ship.Option
	if cfg.limiter != nil {
		shipOpts = append(shipOpts, ship.WithLimiter(cfg.limiter))
	}

	fleet := make([]*ship.Ship, 0, len(scenario.Ships))
	nextID := scenario.ShipContainerBase
	for _, spec := range scenario.Ships {
		s, err := ship.NewShip(spec.Name, p, spec.Capacity, spec.Plan, shipOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create ship %s: %w", spec.Name, err)
		}
		if err := s.SetContainersToWarehouse(warehouse.NewContainers(nextID, spec.Containers)); err != nil {
			return nil, nil, fmt.Errorf("failed to load ship %s: %w", spec.Name, err)
		}
		nextID += spec.Containers
		fleet = append(fleet, s)
	}
	return p, fleet, nil
}
