package warehouse

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Lock is a single-holder lock whose acquisition is bounded by a timeout
// and can be aborted through a context. It is not reentrant.
type Lock struct {
	sem *semaphore.Weighted
}

// NewLock creates an unlocked Lock.
func NewLock() *Lock {
	return &Lock{sem: semaphore.NewWeighted(1)}
}

// TryLock waits at most timeout for the lock.
//
// It returns nil once the lock is held, *LockTimeoutError when the timeout
// expires first, or ctx.Err() when ctx is done first. A timeout <= 0 makes a
// single non-blocking attempt.
func (l *Lock) TryLock(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		if l.sem.TryAcquire(1) {
			return nil
		}
		return &LockTimeoutError{Timeout: timeout}
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &LockTimeoutError{Timeout: timeout}
	}
	return nil
}

// Unlock releases the lock. Unlocking a Lock that is not held panics.
func (l *Lock) Unlock() {
	l.sem.Release(1)
}
