// Package pool provides a fixed-size pool of interchangeable resources.
//
// A Pool is created full. Acquire takes one resource out, blocking until one
// is available or the context is done; Release puts it back and never blocks.
// Goroutines blocked in Acquire are woken in the order the Go runtime queued
// them on the underlying channel, which in practice is arrival order. Callers
// must not rely on it for correctness.
package pool

import (
	"context"
	"errors"
)

// ErrPoolOverflow is returned by Release when the pool is already full,
// meaning the released item was never taken from it.
var ErrPoolOverflow = errors.New("pool: release into a full pool")

// Pool hands out resources of type T one at a time.
type Pool[T any] struct {
	items chan T
}

// New creates a pool holding exactly the given items.
func New[T any](items ...T) *Pool[T] {
	p := &Pool[T]{items: make(chan T, len(items))}
	for _, item := range items {
		p.items <- item
	}
	return p
}

// Acquire removes one item from the pool, waiting as long as necessary.
// If ctx is done first, no item is taken and ctx.Err() is returned.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	select {
	case item := <-p.items:
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryAcquire removes one item if one is immediately available.
func (p *Pool[T]) TryAcquire() (T, bool) {
	select {
	case item := <-p.items:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Release returns an item to the pool.
func (p *Pool[T]) Release(item T) error {
	select {
	case p.items <- item:
		return nil
	default:
		return ErrPoolOverflow
	}
}

// Available returns the number of items currently in the pool.
func (p *Pool[T]) Available() int {
	return len(p.items)
}

// Capacity returns the number of items the pool was created with.
func (p *Pool[T]) Capacity() int {
	return cap(p.items)
}
