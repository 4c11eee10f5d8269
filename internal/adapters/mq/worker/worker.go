// Package worker runs the frame workers that tick race sessions.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/coffeerun/internal/domain/model"
	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/logger"
	"github.com/okian/coffeerun/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Frame is what workers read off the queue.
type Frame = model.Frame

// Queue defines how workers receive frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// Sessions resolves the session a frame belongs to.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Publisher fans a fresh view out to whoever watches the session.
type Publisher interface {
	Publish(ctx context.Context, v session.View)
}

// Releaser clears the pending marker of a session so the frame clock can
// schedule it again.
type Releaser interface {
	Release(ctx context.Context, id string)
}

// Worker processes frames.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, session.View) {}

type nopReleaser struct{}

func (nopReleaser) Release(context.Context, string) {}

// InMemoryWorker advances one session per dequeued frame.
type InMemoryWorker struct {
	queue     Queue
	sessions  Sessions
	publisher Publisher
	releaser  Releaser
	processed func()
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sessions Sessions, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		sessions:  sessions,
		publisher: nopPublisher{},
		releaser:  nopReleaser{},
		processed: func() {},
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	frames := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := w.processFrame(ctx, f); err != nil {
				w.logger.Debug(ctx, "frame dropped", logger.String("session", f.SessionID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// processFrame ticks the frame's session and publishes the result. The
// pending claim is released whatever happens so the session is never stuck.
func (w *InMemoryWorker) processFrame(ctx context.Context, f Frame) error {
	start := time.Now()
	defer func() {
		w.releaser.Release(ctx, f.SessionID)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sess, err := w.sessions.Get(ctx, f.SessionID)
	if err != nil {
		// Sessions deleted between scheduling and processing land here.
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "session_lookup")
		return fmt.Errorf("frame for session %s: %w", f.SessionID, err)
	}

	tickStart := time.Now()
	view, ticked := sess.Advance(f.At)
	if !ticked {
		return nil
	}
	metrics.RecordTickLatency(float64(time.Since(tickStart).Microseconds()) / 1000)

	w.publisher.Publish(ctx, view)
	w.processed()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown     chan struct{}
	shutdownOnce sync.Once

	processedCount    atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers sharing queue. A count below
// one means one worker per CPU. opts are applied to every worker.
func NewPool(workerCount int, queue Queue, sessions Sessions, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{
			WithName("worker-" + strconv.Itoa(i)),
			withProcessedHook(pool.RecordProcessedFrame),
		}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, sessions, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerFramesPerSecond(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))

	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerFramesPerSecond(float64(p.processedCount.Swap(0)) / elapsed)
	}
	p.lastProcessedTime = now
}

// RecordProcessedFrame counts one ticked frame.
func (p *Pool) RecordProcessedFrame() {
	p.processedCount.Add(1)
}

// Shutdown closes the queue, then stops every worker.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.signal()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}

func (p *Pool) signal() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
		for _, w := range p.workers {
			w.stop()
		}
	})
}
