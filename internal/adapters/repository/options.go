package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithCapacity caps the number of sessions. Zero or less means unbounded.
func WithCapacity(n int) Option {
	return func(s *MemStore) {
		s.capacity = n
	}
}

// WithIdleTTL evicts sessions untouched for longer than ttl. Zero disables
// eviction.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *MemStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often idle sessions are swept.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock sets the clock used for idle checks.
func WithClock(clock func() time.Time) Option {
	return func(s *MemStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithEvictHook registers fn to run after a session is removed for any reason.
func WithEvictHook(fn func(id string)) Option {
	return func(s *MemStore) {
		if fn != nil {
			s.onEvict = append(s.onEvict, fn)
		}
	}
}
