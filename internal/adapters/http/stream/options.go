package stream

import (
	"time"

	"github.com/okian/coffeerun/pkg/logger"
)

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBuffer sets how many snapshots may queue per client before new ones
// are dropped.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithPingPeriod sets the keepalive ping period. The read deadline is
// derived from it.
func WithPingPeriod(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingPeriod = d
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
