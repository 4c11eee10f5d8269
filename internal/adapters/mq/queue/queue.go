// Package queue carries frame jobs from the frame clock to the worker pool.
//
// The queue is a bounded buffered channel. Enqueue never blocks: a full
// queue rejects the frame and the session simply catches up on its next
// frame, since the engine derives dt from the previous frame.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/coffeerun/internal/domain/model"
	"github.com/okian/coffeerun/pkg/metrics"
)

const defaultQueueCapacity = 4096

// Frame is the payload type flowing through the queue.
type Frame = model.Frame

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a frame. It returns ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, f Frame) error

	// Dequeue returns a channel that receives frames as they become available.
	// The channel is closed when the queue is closed or ctx ends.
	Dequeue(ctx context.Context) <-chan Frame

	// Len returns the current number of queued frames.
	Len(ctx context.Context) int

	// Close stops accepting frames and closes dequeue channels once drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	frames   chan Frame
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.frames = make(chan Frame, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a frame to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f Frame) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.frames <- f:
		metrics.RecordQueueEnqueue()
		q.observeSize()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive frames as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for {
			select {
			case f, ok := <-q.frames:
				if !ok {
					return
				}
				metrics.RecordQueueDequeue()
				metrics.RecordQueueProcessingLatency(float64(q.now().Sub(f.At).Microseconds()) / 1000)
				q.observeSize()
				select {
				case out <- f:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued frames.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observeSize()
}

func (q *InMemoryQueue) observeSize() int {
	size := len(q.frames)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.frames)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
