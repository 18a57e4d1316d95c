package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
)

// Warehouse is a bounded store of containers guarded by its own Lock.
//
// Thread-Safety:
// Warehouse does not lock internally. AddContainers, GetContainers, FreeSize,
// RealSize and Contents must be called while the caller holds Lock(); the
// only exception is single-threaded setup before the warehouse is shared.
// Snapshot takes the lock itself.
//
// Invariants (whenever the lock is not held):
// - 0 <= RealSize() <= Capacity()
// - RealSize() + FreeSize() == Capacity()
//
// AddContainers does not enforce the capacity. Callers check FreeSize first.
type Warehouse struct {
	capacity int
	contents []Container
	lock     *Lock
}

// Snapshot is a consistent view of a warehouse's occupancy.
type Snapshot struct {
	Capacity int
	RealSize int
	FreeSize int
}

// New creates an empty warehouse with a fixed capacity.
func New(capacity int) (*Warehouse, error) {
	if capacity < 0 {
		return nil, shared.NewValidationError("capacity", "cannot be negative")
	}
	return &Warehouse{
		capacity: capacity,
		contents: make([]Container, 0, capacity),
		lock:     NewLock(),
	}, nil
}

// Capacity returns the fixed capacity.
func (w *Warehouse) Capacity() int { return w.capacity }

// Lock exposes the warehouse's lock for external two-phase coordination.
func (w *Warehouse) Lock() *Lock { return w.lock }

// AddContainers appends containers in order.
func (w *Warehouse) AddContainers(containers []Container) {
	w.contents = append(w.contents, containers...)
}

// GetContainers removes and returns the n oldest containers (FIFO).
// The caller must have checked n <= RealSize().
func (w *Warehouse) GetContainers(n int) []Container {
	removed := make([]Container, n)
	copy(removed, w.contents[:n])
	w.contents = append(w.contents[:0], w.contents[n:]...)
	return removed
}

// FreeSize returns Capacity() - RealSize().
func (w *Warehouse) FreeSize() int {
	return w.capacity - len(w.contents)
}

// RealSize returns the number of containers held.
func (w *Warehouse) RealSize() int {
	return len(w.contents)
}

// Contents returns a copy of the held containers, oldest first.
func (w *Warehouse) Contents() []Container {
	out := make([]Container, len(w.contents))
	copy(out, w.contents)
	return out
}

// Snapshot reads the occupancy under the warehouse lock.
func (w *Warehouse) Snapshot(ctx context.Context, timeout time.Duration) (Snapshot, error) {
	if err := w.lock.TryLock(ctx, timeout); err != nil {
		return Snapshot{}, err
	}
	defer w.lock.Unlock()

	return Snapshot{
		Capacity: w.capacity,
		RealSize: len(w.contents),
		FreeSize: w.capacity - len(w.contents),
	}, nil
}

// String provides human-readable representation.
// Not locked; use it for setup and after-run output only.
func (w *Warehouse) String() string {
	return fmt.Sprintf("Warehouse[%d/%d]", len(w.contents), w.capacity)
}
