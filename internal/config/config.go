// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// maxTickLimitMS keeps a single engine step well under the distance that
// would skip the shoelace trigger or a checkpoint.
const maxTickLimitMS = 100

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// FrameIntervalMS is the frame clock period in milliseconds.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// WorkerCount sets the number of frame workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory frame queue.
	QueueSize int `koanf:"queue_size"`

	// MaxSessions caps the number of race sessions held in memory.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLSeconds evicts sessions untouched for this long.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// Seed fixes the random source of every new session. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// DirectorEnabled turns the scripted director on.
	DirectorEnabled bool `koanf:"director_enabled"`

	// EventsEnabled turns checkpoint events on.
	EventsEnabled bool `koanf:"events_enabled"`

	// SlowMotionEnabled turns the finish-line slow motion on.
	SlowMotionEnabled bool `koanf:"slow_motion_enabled"`

	// MaxTickMS bounds the per-frame delta in milliseconds.
	MaxTickMS int `koanf:"max_tick_ms"`

	// BaseSpeedMin and BaseSpeedMax bound sampled base speeds in units per second.
	BaseSpeedMin float64 `koanf:"base_speed_min"`
	BaseSpeedMax float64 `koanf:"base_speed_max"`
}

// New creates a Config populated with defaults. Context is accepted first to
// follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		FrameIntervalMS:   16,
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         4096,
		MaxSessions:       1024,
		SessionTTLSeconds: 900,
		DirectorEnabled:   true,
		EventsEnabled:     true,
		SlowMotionEnabled: true,
		MaxTickMS:         50,
		BaseSpeedMin:      8.6,
		BaseSpeedMax:      10.0,
	}
}

// Validate rejects inconsistent values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FrameIntervalMS <= 0:
		return fmt.Errorf("%w: frame_interval_ms must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.SessionTTLSeconds < 0:
		return fmt.Errorf("%w: session_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.MaxTickMS <= 0 || c.MaxTickMS > maxTickLimitMS:
		return fmt.Errorf("%w: max_tick_ms must be in (0, %d]", ErrInvalidConfig, maxTickLimitMS)
	case c.BaseSpeedMin <= 0 || c.BaseSpeedMax < c.BaseSpeedMin:
		return fmt.Errorf("%w: base speed range [%g, %g]", ErrInvalidConfig, c.BaseSpeedMin, c.BaseSpeedMax)
	}
	return nil
}

// FrameInterval is the frame clock period.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// SessionTTL is the idle eviction age. Zero disables eviction.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// MaxTick bounds the per-frame delta handed to engines.
func (c *Config) MaxTick() time.Duration {
	return time.Duration(c.MaxTickMS) * time.Millisecond
}
