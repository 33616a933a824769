package worker

import (
	"github.com/okian/dyscreen/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the name attached to the worker's log lines.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the worker logger. Pools pass the owning service's
// logger so submission failures are attributed to it.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l.Named("worker")
		}
	}
}
