package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/portsim-go/internal/domain/port"
	"github.com/andrescamacho/portsim-go/internal/domain/warehouse"
)

// mooringResult is what a background AcquireBerth call reports
type mooringResult struct {
	berth *port.Berth
	err   error
}

// portContext holds state for port, berth and transfer scenarios
type portContext struct {
	port     *port.Port
	ships    map[string]*warehouse.Warehouse
	berths   map[string]*port.Berth
	released map[string]int
	waiting  map[string]chan mooringResult

	transferErr     error
	transferElapsed time.Duration
	err             error
	heldLocks       []*time.Timer
}

func (pc *portContext) reset() {
	pc.port = nil
	pc.ships = make(map[string]*warehouse.Warehouse)
	pc.berths = make(map[string]*port.Berth)
	pc.released = make(map[string]int)
	pc.waiting = make(map[string]chan mooringResult)
	pc.transferErr = nil
	pc.transferElapsed = 0
	pc.err = nil
	pc.heldLocks = nil
}

// ============================================================================
// Setup Steps
// ============================================================================

func (pc *portContext) aPortWithBerths(berths, capacity, stock int) error {
	return pc.buildPort(berths, capacity, stock)
}

func (pc *portContext) aPortWithBerthsAndLockTimeout(berths, capacity, stock, timeoutMs int) error {
	return pc.buildPort(berths, capacity, stock, port.WithLockTimeout(time.Duration(timeoutMs)*time.Millisecond))
}

func (pc *portContext) buildPort(berths, capacity, stock int, opts ...port.Option) error {
	p, err := port.NewPort(berths, capacity, opts...)
	if err != nil {
		return fmt.Errorf("failed to create port: %w", err)
	}
	if err := p.SetContainersToWarehouse(warehouse.NewContainers(0, stock)); err != nil {
		return fmt.Errorf("failed to load port warehouse: %w", err)
	}
	pc.port = p
	return nil
}

func (pc *portContext) shipWithCapacityCarrying(name string, capacity, stock, firstID int) error {
	w, err := warehouse.New(capacity)
	if err != nil {
		return err
	}
	if stock > capacity {
		return fmt.Errorf("ship %s cannot carry %d containers with capacity %d", name, stock, capacity)
	}
	w.AddContainers(warehouse.NewContainers(firstID, stock))
	pc.ships[name] = w
	return nil
}

func (pc *portContext) anotherOperationHoldsThePortWarehouseLock(ms int) error {
	return pc.holdLock(pc.port.Warehouse().Lock(), ms)
}

func (pc *portContext) anotherOperationHoldsTheShipWarehouseLock(name string, ms int) error {
	w, ok := pc.ships[name]
	if !ok {
		return fmt.Errorf("unknown ship %s", name)
	}
	return pc.holdLock(w.Lock(), ms)
}

func (pc *portContext) holdLock(lock *warehouse.Lock, ms int) error {
	if err := lock.TryLock(context.Background(), time.Second); err != nil {
		return fmt.Errorf("failed to take lock: %w", err)
	}
	pc.heldLocks = append(pc.heldLocks, time.AfterFunc(time.Duration(ms)*time.Millisecond, lock.Unlock))
	return nil
}

// ============================================================================
// Berth Steps
// ============================================================================

func (pc *portContext) shipAcquiresABerth(name string) error {
	berth, err := pc.port.Moor(context.Background(), port.ShipID(name))
	if err != nil {
		return fmt.Errorf("ship %s could not moor: %w", name, err)
	}
	pc.berths[name] = berth
	return nil
}

func (pc *portContext) shipStartsWaitingForABerth(name string) error {
	result := make(chan mooringResult, 1)
	pc.waiting[name] = result
	go func() {
		berth, err := pc.port.Moor(context.Background(), port.ShipID(name))
		result <- mooringResult{berth: berth, err: err}
	}()
	return nil
}

func (pc *portContext) shipIsStillWaitingAfter(name string, ms int) error {
	select {
	case r := <-pc.waiting[name]:
		return fmt.Errorf("ship %s stopped waiting: berth=%v err=%v", name, r.berth, r.err)
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	}
}

func (pc *portContext) shipObtainsABerthWithin(name string, ms int) error {
	select {
	case r := <-pc.waiting[name]:
		if r.err != nil {
			return fmt.Errorf("ship %s failed to moor: %w", name, r.err)
		}
		pc.berths[name] = r.berth
		return nil
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return fmt.Errorf("ship %s still waiting after %dms", name, ms)
	}
}

func (pc *portContext) shipReleasesItsBerth(name string) error {
	berth, ok := pc.berths[name]
	if !ok {
		return fmt.Errorf("ship %s holds no berth in this scenario", name)
	}
	if !pc.port.ReleaseBerth(context.Background(), port.ShipID(name)) {
		return fmt.Errorf("ship %s could not release its berth", name)
	}
	pc.released[name] = berth.ID()
	delete(pc.berths, name)
	return nil
}

func (pc *portContext) shipIsMooredAtTheBerthReleasedBy(name, other string) error {
	want, ok := pc.released[other]
	if !ok {
		return fmt.Errorf("ship %s released no berth", other)
	}
	got, ok := pc.port.MooredShips()[port.ShipID(name)]
	if !ok {
		return fmt.Errorf("ship %s is not moored", name)
	}
	if got != want {
		return fmt.Errorf("ship %s is at berth %d, expected berth %d", name, got, want)
	}
	return nil
}

func (pc *portContext) shipAsksForItsBerth(name string) error {
	_, pc.err = pc.port.GetBerth(port.ShipID(name))
	return nil
}

func (pc *portContext) shipTriesToMoorAgain(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, pc.err = pc.port.Moor(ctx, port.ShipID(name))
	return nil
}

func (pc *portContext) shipTriesToReleaseABerth(name string) error {
	pc.err = pc.port.Unmoor(context.Background(), port.ShipID(name))
	return nil
}

func (pc *portContext) shipWaitsForABerthForAtMost(name string, ms int) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(ms)*time.Millisecond)
	defer cancel()
	_, pc.err = pc.port.Moor(ctx, port.ShipID(name))
	return nil
}

func (pc *portContext) aProtocolViolationIsRaised() error {
	var violation *port.ProtocolViolationError
	if !errors.As(pc.err, &violation) {
		return fmt.Errorf("expected protocol violation, got %v", pc.err)
	}
	return nil
}

func (pc *portContext) theMooringIsDenied() error {
	var denied *port.MooringDeniedError
	if !errors.As(pc.err, &denied) {
		return fmt.Errorf("expected mooring denied, got %v", pc.err)
	}
	return nil
}

func (pc *portContext) berthsAreFree(n int) error {
	if free := pc.port.FreeBerths(); free != n {
		return fmt.Errorf("expected %d free berths, got %d", n, free)
	}
	return nil
}

func (pc *portContext) shipsAreMoored(n int) error {
	if moored := len(pc.port.MooredShips()); moored != n {
		return fmt.Errorf("expected %d moored ships, got %d", n, moored)
	}
	return nil
}

func (pc *portContext) everyBerthWaitsAtMost(seconds int) error {
	ctx := context.Background()
	want := time.Duration(seconds) * time.Second

	for i := 0; i < pc.port.BerthCount(); i++ {
		id := port.ShipID(fmt.Sprintf("probe-%d", i))
		berth, err := pc.port.Moor(ctx, id)
		if err != nil {
			return err
		}
		if berth.LockTimeout() != want {
			return fmt.Errorf("berth %d waits %s, expected %s", berth.ID(), berth.LockTimeout(), want)
		}
	}
	for i := 0; i < pc.port.BerthCount(); i++ {
		if err := pc.port.Unmoor(ctx, port.ShipID(fmt.Sprintf("probe-%d", i))); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Transfer Steps
// ============================================================================

func (pc *portContext) shipTransfers(name, operation string, n int) error {
	berth, ok := pc.berths[name]
	if !ok {
		return fmt.Errorf("ship %s holds no berth in this scenario", name)
	}
	w := pc.ships[name]

	start := time.Now()
	switch operation {
	case "adds":
		pc.transferErr = berth.Unload(context.Background(), w, n)
	case "gets":
		pc.transferErr = berth.Load(context.Background(), w, n)
	default:
		return fmt.Errorf("unknown operation %q", operation)
	}
	pc.transferElapsed = time.Since(start)
	return nil
}

func (pc *portContext) theTransferSucceeds() error {
	if pc.transferErr != nil {
		return fmt.Errorf("expected success, got %v", pc.transferErr)
	}
	return nil
}

func (pc *portContext) theTransferIsRefusedWith(outcome string) error {
	var refused *port.TransferRefusedError
	if !errors.As(pc.transferErr, &refused) {
		return fmt.Errorf("expected refused transfer, got %v", pc.transferErr)
	}
	if got := port.Outcome(pc.transferErr); got != outcome {
		return fmt.Errorf("expected outcome %s, got %s (%v)", outcome, got, pc.transferErr)
	}
	return nil
}

func (pc *portContext) theTransferIsAbandonedWithALockTimeout() error {
	var abandoned *port.TransferAbandonedError
	if !errors.As(pc.transferErr, &abandoned) {
		return fmt.Errorf("expected abandoned transfer, got %v", pc.transferErr)
	}
	if got := port.Outcome(pc.transferErr); got != port.OutcomeLockTimeout {
		return fmt.Errorf("expected outcome %s, got %s", port.OutcomeLockTimeout, got)
	}
	return nil
}

func (pc *portContext) theTransferReturnedWithin(ms int) error {
	if limit := time.Duration(ms) * time.Millisecond; pc.transferElapsed > limit {
		return fmt.Errorf("transfer took %s, expected at most %s", pc.transferElapsed, limit)
	}
	return nil
}

// ============================================================================
// Warehouse Assertions
// ============================================================================

func (pc *portContext) thePortWarehouseHolds(n, capacity int) error {
	w := pc.port.Warehouse()
	if w.RealSize() != n || w.Capacity() != capacity {
		return fmt.Errorf("expected port warehouse %d/%d, got %d/%d", n, capacity, w.RealSize(), w.Capacity())
	}
	if w.FreeSize() != capacity-n {
		return fmt.Errorf("expected %d free slots, got %d", capacity-n, w.FreeSize())
	}
	return nil
}

func (pc *portContext) shipHolds(name string, n int) error {
	w, ok := pc.ships[name]
	if !ok {
		return fmt.Errorf("unknown ship %s", name)
	}
	if w.RealSize() != n {
		return fmt.Errorf("expected ship %s to hold %d containers, got %d", name, n, w.RealSize())
	}
	return nil
}

func (pc *portContext) thePortWarehouseContainerIDsRun(from1, to1, from2, to2 int) error {
	var want []int
	for id := from1; id <= to1; id++ {
		want = append(want, id)
	}
	for id := from2; id <= to2; id++ {
		want = append(want, id)
	}
	return expectIDs("port warehouse", pc.port.Warehouse().Contents(), want)
}

func (pc *portContext) shipLastReceivedContainerIDs(name string, from, to int) error {
	contents := pc.ships[name].Contents()
	n := to - from + 1
	if len(contents) < n {
		return fmt.Errorf("ship %s holds only %d containers", name, len(contents))
	}
	var want []int
	for id := from; id <= to; id++ {
		want = append(want, id)
	}
	return expectIDs("ship "+name, contents[len(contents)-n:], want)
}

func expectIDs(owner string, got []warehouse.Container, want []int) error {
	if len(got) != len(want) {
		return fmt.Errorf("%s holds %d containers, expected %d", owner, len(got), len(want))
	}
	for i, c := range got {
		if c.ID() != want[i] {
			return fmt.Errorf("%s position %d holds container %d, expected %d", owner, i, c.ID(), want[i])
		}
	}
	return nil
}

// InitializePortScenario registers port, berth and transfer steps
func InitializePortScenario(sc *godog.ScenarioContext) {
	pc := &portContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		pc.reset()
		return ctx, nil
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		for _, t := range pc.heldLocks {
			t.Stop()
		}
		return ctx, nil
	})

	// Setup steps
	sc.Step(`^a port with (\d+) berths? and a warehouse of capacity (\d+) holding (\d+) containers$`, pc.aPortWithBerths)
	sc.Step(`^a port with (\d+) berths? and a warehouse of capacity (\d+) holding (\d+) containers and a lock timeout of (\d+) milliseconds$`, pc.aPortWithBerthsAndLockTimeout)
	sc.Step(`^ship "([^"]*)" with capacity (\d+) carrying (\d+) containers from id (\d+)$`, pc.shipWithCapacityCarrying)
	sc.Step(`^another operation holds the port warehouse lock for (\d+) milliseconds$`, pc.anotherOperationHoldsThePortWarehouseLock)
	sc.Step(`^another operation holds the warehouse of ship "([^"]*)" for (\d+) milliseconds$`, pc.anotherOperationHoldsTheShipWarehouseLock)

	// Berth steps
	sc.Step(`^ship "([^"]*)" acquires a berth$`, pc.shipAcquiresABerth)
	sc.Step(`^ship "([^"]*)" starts waiting for a berth$`, pc.shipStartsWaitingForABerth)
	sc.Step(`^ship "([^"]*)" is still waiting after (\d+) milliseconds$`, pc.shipIsStillWaitingAfter)
	sc.Step(`^ship "([^"]*)" obtains a berth within (\d+) milliseconds$`, pc.shipObtainsABerthWithin)
	sc.Step(`^ship "([^"]*)" releases its berth$`, pc.shipReleasesItsBerth)
	sc.Step(`^ship "([^"]*)" is moored at the berth released by ship "([^"]*)"$`, pc.shipIsMooredAtTheBerthReleasedBy)
	sc.Step(`^ship "([^"]*)" asks for its berth$`, pc.shipAsksForItsBerth)
	sc.Step(`^ship "([^"]*)" tries to moor again$`, pc.shipTriesToMoorAgain)
	sc.Step(`^ship "([^"]*)" tries to release a berth$`, pc.shipTriesToReleaseABerth)
	sc.Step(`^ship "([^"]*)" waits for a berth for at most (\d+) milliseconds$`, pc.shipWaitsForABerthForAtMost)
	sc.Step(`^a protocol violation is raised$`, pc.aProtocolViolationIsRaised)
	sc.Step(`^the mooring is denied$`, pc.theMooringIsDenied)
	sc.Step(`^(\d+) berths? (?:is|are) free$`, pc.berthsAreFree)
	sc.Step(`^(\d+) ships? (?:is|are) moored$`, pc.shipsAreMoored)
	sc.Step(`^every berth waits at most (\d+) seconds for a warehouse lock$`, pc.everyBerthWaitsAtMost)

	// Transfer steps
	sc.Step(`^ship "([^"]*)" (adds|gets) (\d+) containers$`, pc.shipTransfers)
	sc.Step(`^the transfer succeeds$`, pc.theTransferSucceeds)
	sc.Step(`^the transfer is refused with "([^"]*)"$`, pc.theTransferIsRefusedWith)
	sc.Step(`^the transfer is abandoned with a lock timeout$`, pc.theTransferIsAbandonedWithALockTimeout)
	sc.Step(`^the transfer returned within (\d+) milliseconds$`, pc.theTransferReturnedWithin)

	// Warehouse assertions
	sc.Step(`^the port warehouse holds (\d+) of (\d+) containers$`, pc.thePortWarehouseHolds)
	sc.Step(`^ship "([^"]*)" holds (\d+) containers$`, pc.shipHolds)
	sc.Step(`^the port warehouse container ids run from (\d+) to (\d+) then (\d+) to (\d+)$`, pc.thePortWarehouseContainerIDsRun)
	sc.Step(`^ship "([^"]*)" last received container ids (\d+) to (\d+)$`, pc.shipLastReceivedContainerIDs)
}
