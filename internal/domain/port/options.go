package port

import (
	"time"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
)

type options struct {
	lockTimeout time.Duration
	earlyReject bool
	recorder    Recorder
	clock       shared.Clock
}

func defaultOptions() *options {
	return &options{
		lockTimeout: DefaultLockTimeout,
		earlyReject: true,
		recorder:    noOpRecorder{},
		clock:       shared.NewRealClock(),
	}
}

// Option customizes a Port and the berths it creates
type Option func(*options)

// WithLockTimeout bounds every warehouse lock wait (default 30s)
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// WithEarlyReject toggles whether the port-side guard runs before the ship
// lock is requested (default true)
func WithEarlyReject(enabled bool) Option {
	return func(o *options) { o.earlyReject = enabled }
}

// WithRecorder installs a Recorder; nil keeps the no-op recorder
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock sets the clock used to time berth waits
func WithClock(c shared.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}
