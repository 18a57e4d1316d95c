package port

import "sync"

// Registry maps each moored ship to the berth it holds.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[ShipID]*Berth
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ShipID]*Berth)}
}

// Get returns the berth held by a ship
func (r *Registry) Get(id ShipID) (*Berth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	berth, ok := r.entries[id]
	return berth, ok
}

// PutIfAbsent records the assignment unless the ship already holds a berth.
// Returns false, leaving the registry unchanged, if it does.
func (r *Registry) PutIfAbsent(id ShipID, berth *Berth) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = berth
	return true
}

// Remove deletes and returns the ship's assignment
func (r *Registry) Remove(id ShipID) (*Berth, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	berth, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return berth, ok
}

// Len returns the number of moored ships
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Snapshot returns a copy of the assignments
func (r *Registry) Snapshot() map[ShipID]*Berth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[ShipID]*Berth, len(r.entries))
	for id, berth := range r.entries {
		out[id] = berth
	}
	return out
}
