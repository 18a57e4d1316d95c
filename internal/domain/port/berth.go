package port

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
)

// Direction of a container transfer through a berth
type Direction string

const (
	// DirectionUnload moves containers from the ship into the port warehouse
	DirectionUnload Direction = "UNLOAD"

	// DirectionLoad moves containers from the port warehouse onto the ship
	DirectionLoad Direction = "LOAD"
)

// DefaultLockTimeout bounds every warehouse lock wait
const DefaultLockTimeout = 30 * time.Second

// Berth moves containers between the port warehouse and a ship's warehouse.
// It holds no containers and no state beyond its identity and settings.
//
// Lock ordering:
// Every transfer, in either direction, locks the port warehouse first and the
// ship warehouse second, and releases them in reverse order. No two transfers
// ever wait for the two locks in opposite order, so ships cannot deadlock
// each other.
//
// Guards:
// The port-side guard checks the port warehouse (free space on unload, stock
// on load). The ship-side guard checks the ship warehouse (stock on unload,
// free space on load). With early reject enabled the port-side guard runs
// before the ship lock is requested; otherwise it runs with both locks held.
// Both guards always run.
type Berth struct {
	id            int
	portWarehouse *warehouse.Warehouse
	lockTimeout   time.Duration
	earlyReject   bool
	recorder      Recorder
}

func newBerth(id int, portWarehouse *warehouse.Warehouse, cfg *options) *Berth {
	return &Berth{
		id:            id,
		portWarehouse: portWarehouse,
		lockTimeout:   cfg.lockTimeout,
		earlyReject:   cfg.earlyReject,
		recorder:      cfg.recorder,
	}
}

func (b *Berth) ID() int                    { return b.id }
func (b *Berth) LockTimeout() time.Duration { return b.lockTimeout }
func (b *Berth) EarlyReject() bool          { return b.earlyReject }

// Add unloads n containers from the ship's warehouse into the port warehouse.
// It reports whether the containers were moved.
func (b *Berth) Add(ctx context.Context, shipWarehouse *warehouse.Warehouse, n int) bool {
	return b.Unload(ctx, shipWarehouse, n) == nil
}

// Get loads n containers from the port warehouse onto the ship.
// It reports whether the containers were moved.
func (b *Berth) Get(ctx context.Context, shipWarehouse *warehouse.Warehouse, n int) bool {
	return b.Load(ctx, shipWarehouse, n) == nil
}

// Unload is Add returning the reason for a failure:
// *TransferRefusedError, *TransferAbandonedError or *shared.ValidationError.
func (b *Berth) Unload(ctx context.Context, shipWarehouse *warehouse.Warehouse, n int) error {
	return b.transfer(ctx, DirectionUnload, shipWarehouse, n)
}

// Load is Get returning the reason for a failure.
func (b *Berth) Load(ctx context.Context, shipWarehouse *warehouse.Warehouse, n int) error {
	return b.transfer(ctx, DirectionLoad, shipWarehouse, n)
}

func (b *Berth) transfer(ctx context.Context, dir Direction, shipWarehouse *warehouse.Warehouse, n int) error {
	portLevel := -1
	err := b.doTransfer(ctx, dir, shipWarehouse, n, &portLevel)

	b.recorder.RecordTransfer(TransferEvent{
		BerthID:   b.id,
		Direction: dir,
		Units:     n,
		PortLevel: portLevel,
		Err:       err,
	})

	logger := shared.LoggerFromContext(ctx)
	if err != nil {
		logger.Log(shared.LevelDebug, err.Error(), map[string]interface{}{
			"berth_id":  b.id,
			"direction": string(dir),
			"units":     n,
			"outcome":   Outcome(err),
		})
	} else {
		logger.Log(shared.LevelDebug, fmt.Sprintf("berth %d %s %d containers", b.id, dir, n), map[string]interface{}{
			"berth_id":   b.id,
			"direction":  string(dir),
			"units":      n,
			"port_level": portLevel,
		})
	}
	return err
}

func (b *Berth) doTransfer(
	ctx context.Context,
	dir Direction,
	shipWarehouse *warehouse.Warehouse,
	n int,
	portLevel *int,
) error {
	if n < 0 {
		return shared.NewValidationError("units", "cannot be negative")
	}
	if shipWarehouse == nil {
		return shared.NewValidationError("shipWarehouse", "cannot be nil")
	}
	if shipWarehouse == b.portWarehouse {
		return shared.NewValidationError("shipWarehouse", "cannot be the port warehouse")
	}

	portLock := b.portWarehouse.Lock()
	if err := portLock.TryLock(ctx, b.lockTimeout); err != nil {
		return &TransferAbandonedError{BerthID: b.id, Direction: dir, Side: SidePort, Err: err}
	}
	defer func() {
		*portLevel = b.portWarehouse.RealSize()
		portLock.Unlock()
	}()

	if b.earlyReject {
		if err := b.checkPortSide(dir, n, StageOuter); err != nil {
			return err
		}
	}

	shipLock := shipWarehouse.Lock()
	if err := shipLock.TryLock(ctx, b.lockTimeout); err != nil {
		return &TransferAbandonedError{BerthID: b.id, Direction: dir, Side: SideShip, Err: err}
	}
	defer shipLock.Unlock()

	if !b.earlyReject {
		if err := b.checkPortSide(dir, n, StageInner); err != nil {
			return err
		}
	}
	if err := b.checkShipSide(dir, shipWarehouse, n); err != nil {
		return err
	}

	if dir == DirectionUnload {
		b.portWarehouse.AddContainers(shipWarehouse.GetContainers(n))
	} else {
		shipWarehouse.AddContainers(b.portWarehouse.GetContainers(n))
	}
	return nil
}

// checkPortSide must run with the port lock held
func (b *Berth) checkPortSide(dir Direction, n int, stage Stage) error {
	available, reason := b.portWarehouse.FreeSize(), ReasonCapacityExceeded
	if dir == DirectionLoad {
		available, reason = b.portWarehouse.RealSize(), ReasonInsufficientStock
	}
	if n <= available {
		return nil
	}
	return &TransferRefusedError{
		BerthID:   b.id,
		Direction: dir,
		Guard:     SidePort,
		Stage:     stage,
		Reason:    reason,
		Requested: n,
		Available: available,
	}
}

// checkShipSide must run with both locks held
func (b *Berth) checkShipSide(dir Direction, shipWarehouse *warehouse.Warehouse, n int) error {
	available, reason := shipWarehouse.RealSize(), ReasonInsufficientStock
	if dir == DirectionLoad {
		available, reason = shipWarehouse.FreeSize(), ReasonCapacityExceeded
	}
	if n <= available {
		return nil
	}
	return &TransferRefusedError{
		BerthID:   b.id,
		Direction: dir,
		Guard:     SideShip,
		Stage:     StageInner,
		Reason:    reason,
		Requested: n,
		Available: available,
	}
}

func (b *Berth) String() string {
	return fmt.Sprintf("Berth[%d]", b.id)
}
