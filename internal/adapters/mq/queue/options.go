package queue

import "time"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of pending frames.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithClock sets the clock used to measure how long frames wait.
func WithClock(clock func() time.Time) Option {
	return func(q *InMemoryQueue) {
		if clock != nil {
			q.now = clock
		}
	}
}
