package worker

import (
	"time"

	"github.com/okian/hirepulse/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp job transitions.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithRetention sets how long finished jobs stay in the registry.
func WithRetention(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.retention = d
		}
	}
}

// WithMaintenanceInterval sets how often the pool prunes the registry.
func WithMaintenanceInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPoolClock sets the time source shared by the pool and its workers.
func WithPoolClock(now func() time.Time) PoolOption {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}
