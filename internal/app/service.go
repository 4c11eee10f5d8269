// Package service hosts race sessions: it wires the session store, the frame
// coalescer, the frame queue and the worker pool, runs the frame clock, and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/coffeerun/internal/adapters/mq/queue"
	"github.com/okian/coffeerun/internal/adapters/mq/worker"
	"github.com/okian/coffeerun/internal/adapters/repository"
	"github.com/okian/coffeerun/internal/domain/dedupe"
	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/logger"
	"github.com/okian/coffeerun/pkg/metrics"
)

const (
	defaultFrameInterval = 16 * time.Millisecond
	defaultQueueSize     = 4096
	defaultMaxSessions   = 1024
	defaultSessionTTL    = 15 * time.Minute
	stopTimeout          = 10 * time.Second
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, session.View) {}

// Service implements the API dependencies for hosted races.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions  *repository.MemStore
	coalescer dedupe.Coalescer
	frames    *queue.InMemoryQueue
	pool      *worker.Pool
	publisher worker.Publisher

	// Configuration
	workerCount   int
	queueSize     int
	maxSessions   int
	sessionTTL    time.Duration
	frameInterval time.Duration
	seed          int64
	engineOpts    []race.Option
	clock         func() time.Time
	newID         func() string

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		publisher:     nopPublisher{},
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		maxSessions:   defaultMaxSessions,
		sessionTTL:    defaultSessionTTL,
		frameInterval: defaultFrameInterval,
		clock:         time.Now,
		newID:         uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components and starts the workers and the frame clock.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	storeOpts := []repository.Option{
		repository.WithCapacity(s.maxSessions),
		repository.WithIdleTTL(s.sessionTTL),
		repository.WithClock(s.clock),
	}
	if closer, ok := s.publisher.(interface{ CloseSession(id string) }); ok {
		storeOpts = append(storeOpts, repository.WithEvictHook(closer.CloseSession))
	}
	s.sessions = repository.NewMemStore(ctx, storeOpts...)
	s.coalescer = dedupe.NewInMemoryCoalescer(dedupe.WithMaxPending(s.maxSessions))
	s.frames = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize), queue.WithClock(s.clock))

	s.pool = worker.NewPool(s.workerCount, s.frames, s.sessions,
		worker.WithPublisher(s.publisher),
		worker.WithReleaser(s.coalescer),
	)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.runFrameClock(ctx)

	s.started = true
	s.logger.Info(ctx, "race service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("frameInterval", s.frameInterval),
	)
	return nil
}

// Stop halts the frame clock, drains the workers and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping race service...")

	close(s.stopCh)
	s.wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	_ = s.sessions.Close()

	s.started = false
	s.logger.Info(ctx, "race service stopped")
}

func (s *Service) store() (*repository.MemStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotRunning
	}
	return s.sessions, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*session.Session, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Touch(s.clock())
	return sess, nil
}

func (s *Service) newEngine(id string) *race.Engine {
	opts := make([]race.Option, 0, len(s.engineOpts)+3)
	if s.seed != 0 {
		opts = append(opts, race.WithSeed(s.seed))
	}
	opts = append(opts, race.WithClock(s.clock))
	opts = append(opts, s.engineOpts...)
	opts = append(opts, race.WithObserver(raceObserver{sessionID: id, logger: s.logger}))
	return race.New(opts...)
}

// CreateRace hosts a new session and starts its first race with names.
func (s *Service) CreateRace(ctx context.Context, names []string) (session.View, error) {
	store, err := s.store()
	if err != nil {
		return session.View{}, err
	}

	id := s.newID()
	now := s.clock()
	sess := session.New(id, s.newEngine(id), now)
	view, err := sess.Start(names, now)
	if err != nil {
		return session.View{}, err
	}
	if err := store.Put(ctx, sess); err != nil {
		s.logger.Warn(ctx, "race rejected", logger.String("session", id), logger.Error(err))
		return session.View{}, err
	}
	s.publisher.Publish(ctx, view)
	return view, nil
}

// GetRace returns the current view of a session.
func (s *Service) GetRace(ctx context.Context, id string) (session.View, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return session.View{}, err
	}
	return sess.View(), nil
}

// Rerun starts a fresh race in the session with the same participants.
func (s *Service) Rerun(ctx context.Context, id string) (session.View, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return session.View{}, err
	}
	view, err := sess.Rerun(s.clock())
	if err != nil {
		return view, err
	}
	s.publisher.Publish(ctx, view)
	return view, nil
}

// Reset discards the session's current race.
func (s *Service) Reset(ctx context.Context, id string) (session.View, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return session.View{}, err
	}
	view := sess.Reset(s.clock())
	s.publisher.Publish(ctx, view)
	return view, nil
}

// Results returns the compiled ranking of the session's last race.
func (s *Service) Results(ctx context.Context, id string) (race.Result, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return race.Result{}, err
	}
	return sess.Results()
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"maxSessions":   s.maxSessions,
		"frameInterval": s.frameInterval.String(),
	}

	if s.started {
		sessions := s.sessions.Count(ctx)
		racing := 0
		s.sessions.Range(ctx, func(sess *session.Session) bool {
			if sess.NeedsFrames() {
				racing++
			}
			return true
		})

		stats["queueLength"] = s.frames.Len(ctx)
		stats["sessions"] = sessions
		stats["racing"] = racing
		stats["pendingFrames"] = s.coalescer.Size()

		metrics.UpdateActiveSessions(sessions)
	}

	return stats
}
