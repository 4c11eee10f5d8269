package race

import (
	"math/rand"
	"time"
)

// Rand is the random source the engine draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRand sets the random source for speeds, events, the designated pick
// and director jitter.
func WithRand(rng Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed seeds a deterministic random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation randomness, not security
	}
}

// WithClock sets the clock used to stamp race starts.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithPolicy replaces the scripted director. WithDirector(false) overrides it
// regardless of order.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithDirector toggles the director. Disabled, the engine runs Unscripted
// whatever policy was supplied; the last WithDirector call wins.
func WithDirector(enabled bool) Option {
	return func(e *Engine) {
		e.noDirector = !enabled
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithDesignatedLane fixes the designated-last lane instead of drawing it.
// Lanes outside the roster fall back to a random pick.
func WithDesignatedLane(lane int) Option {
	return func(e *Engine) {
		e.designated = lane
	}
}

// WithEvents toggles checkpoint events. Disabled events stay disabled even
// when checkpoints are set; the last WithEvents call wins.
func WithEvents(enabled bool) Option {
	return func(e *Engine) {
		e.noEvents = !enabled
	}
}

// WithCheckpoints sets the ascending progress fractions that fire events.
func WithCheckpoints(cps []float64) Option {
	return func(e *Engine) {
		e.tuning.Checkpoints = append([]float64(nil), cps...)
	}
}

// WithCatalog replaces the event catalog.
func WithCatalog(events []Event) Option {
	return func(e *Engine) {
		if len(events) > 0 {
			e.tuning.Catalog = append([]Event(nil), events...)
		}
	}
}

// WithBaseSpeedRange sets the range base speeds are sampled from.
func WithBaseSpeedRange(minSpeed, maxSpeed float64) Option {
	return func(e *Engine) {
		if minSpeed > 0 && maxSpeed >= minSpeed {
			e.tuning.BaseSpeedMin = minSpeed
			e.tuning.BaseSpeedMax = maxSpeed
		}
	}
}

// WithSpeedBand sets the clamp applied to every effective speed.
func WithSpeedBand(minSpeed, maxSpeed float64) Option {
	return func(e *Engine) {
		if minSpeed > 0 && maxSpeed >= minSpeed {
			e.tuning.MinSpeed = minSpeed
			e.tuning.MaxSpeed = maxSpeed
		}
	}
}

// WithMaxTickDelta bounds dt to absorb scheduler pauses.
func WithMaxTickDelta(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tuning.MaxTickDelta = d
		}
	}
}

// WithSlowMotion toggles the slow-down near the finish line.
func WithSlowMotion(enabled bool) Option {
	return func(e *Engine) {
		e.tuning.SlowMotion = enabled
	}
}

// WithStartAnimation sets the entry animation length.
func WithStartAnimation(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.tuning.StartAnimation = d
		}
	}
}

// WithViewportWidth sets the camera viewport width in course units.
func WithViewportWidth(w float64) Option {
	return func(e *Engine) {
		if w > 0 {
			e.tuning.ViewportWidth = w
		}
	}
}
