package service

import (
	"time"

	"github.com/okian/coffeerun/internal/adapters/mq/worker"
	"github.com/okian/coffeerun/internal/config"
	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of frame workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the frame queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxSessions caps how many sessions are hosted at once.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL evicts sessions idle for longer than ttl. Zero disables it.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithFrameInterval sets the frame clock period.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.frameInterval = d
		}
	}
}

// WithSeed makes every new session draw from a fixed seed. Zero keeps
// clock-based seeding.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithEngineOptions appends engine options applied to every new session.
func WithEngineOptions(opts ...race.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithPublisher receives every view the service produces. A publisher that
// also has CloseSession(id string) is told when sessions go away.
func WithPublisher(p worker.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock sets the clock used for frames and session bookkeeping.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FromConfig translates process configuration into service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithMaxSessions(cfg.MaxSessions),
		WithSessionTTL(cfg.SessionTTL()),
		WithFrameInterval(cfg.FrameInterval()),
		WithSeed(cfg.Seed),
		WithEngineOptions(EngineOptions(cfg)...),
	}
}

// EngineOptions maps the engine tuning keys of cfg to race options.
func EngineOptions(cfg *config.Config) []race.Option {
	return []race.Option{
		race.WithDirector(cfg.DirectorEnabled),
		race.WithEvents(cfg.EventsEnabled),
		race.WithSlowMotion(cfg.SlowMotionEnabled),
		race.WithMaxTickDelta(cfg.MaxTick()),
		race.WithBaseSpeedRange(cfg.BaseSpeedMin, cfg.BaseSpeedMax),
	}
}
