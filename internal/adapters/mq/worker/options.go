package worker

import (
	"github.com/okian/coffeerun/pkg/logger"
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

// WithPublisher receives the view produced by every processed frame.
func WithPublisher(p Publisher) Option {
	return func(w *InMemoryWorker) {
		if p != nil {
			w.publisher = p
		}
	}
}

// WithReleaser frees the pending-frame claim once a frame is handled.
func WithReleaser(r Releaser) Option {
	return func(w *InMemoryWorker) {
		if r != nil {
			w.releaser = r
		}
	}
}

func withProcessedHook(fn func()) Option {
	return func(w *InMemoryWorker) {
		w.processed = fn
	}
}
