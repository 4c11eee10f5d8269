package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/metrics"
)

const defaultSweepInterval = 30 * time.Second

// MemStore is a map-backed Store with a capacity bound and an idle sweeper.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	capacity      int
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	onEvict       []func(id string)

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemStore constructs a store and starts its sweeper, which stops when
// ctx ends or Close is called.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		sessions:      make(map[string]*session.Session),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateActiveSessions(0)
	if s.ttl > 0 {
		s.startSweeper(ctx)
	}
	return s
}

func (s *MemStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Close stops the sweeper.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.
func (s *MemStore) Put(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID()]; ok {
		return ErrExists
	}
	if s.capacity > 0 && len(s.sessions) >= s.capacity {
		metrics.RecordErrorByComponent("repository", "capacity")
		return ErrCapacity
	}
	s.sessions[sess.ID()] = sess
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete implements Store.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateActiveSessions(len(s.sessions))
	s.mu.Unlock()

	_ = metrics.RecordSessionEvicted("deleted")
	s.evicted(id)
	return nil
}

// Range implements Store. It iterates over a copy so fn may be slow.
func (s *MemStore) Range(_ context.Context, fn func(sess *session.Session) bool) {
	s.mu.RLock()
	all := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	for _, sess := range all {
		if !fn(sess) {
			return
		}
	}
}

// Count implements Store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL that are not mid-race,
// returning how many were removed.
func (s *MemStore) Sweep(_ context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var gone []string
	for id, sess := range s.sessions {
		if sess.Info().TouchedAt.Before(cutoff) && !sess.NeedsFrames() {
			delete(s.sessions, id)
			gone = append(gone, id)
		}
	}
	metrics.UpdateActiveSessions(len(s.sessions))
	s.mu.Unlock()

	for _, id := range gone {
		_ = metrics.RecordSessionEvicted("idle")
		s.evicted(id)
	}
	return len(gone)
}

func (s *MemStore) evicted(id string) {
	for _, fn := range s.onEvict {
		fn(id)
	}
}
