package dedupe

// Option applies a configuration option to the in-memory coalescer.
type Option func(*inMemoryCoalescer)

// WithMaxPending bounds how many sessions may hold a pending frame.
// If maxPending > 0 the oldest claim is evicted once the bound is hit.
// If maxPending <= 0 the coalescer is unbounded.
func WithMaxPending(maxPending int) Option {
	return func(c *inMemoryCoalescer) {
		c.maxPending = maxPending
	}
}
