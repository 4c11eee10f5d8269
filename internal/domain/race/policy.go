package race

import "time"

// Director phase boundaries over leader progress.
const (
	rallyStart  = 0.35
	fadeStart   = 0.70
	climaxStart = 0.90
	nearFinish  = 0.97
	jitterWidth = 0.9
)

// Lace stall defaults.
const (
	LaceTrigger  = 0.97
	LaceDuration = 1500 * time.Millisecond
	LaceText     = "Ah! My shoelace!"
)

// Policy scripts the designated runner's arc. It is consulted every tick and
// never mutates race state itself.
type Policy interface {
	// Bias returns the additive speed adjustment for r at leader progress p.
	Bias(r Runner, designated bool, progress float64) float64

	// Stall decides whether the designated runner must stop now. It is only
	// consulted while no stall has fired yet in the race.
	Stall(r Runner, othersRacing bool) (StallPlan, bool)
}

// StallPlan describes a forced halt.
type StallPlan struct {
	Duration time.Duration
	Message  string
}

// Scripted is the default director: rally, fade, collapse, and a single
// lace stall just short of the line.
type Scripted struct {
	rng Rand
}

// NewScripted builds the default director drawing jitter from rng.
func NewScripted(rng Rand) *Scripted {
	return &Scripted{rng: rng}
}

// Bias implements Policy.
func (s *Scripted) Bias(_ Runner, designated bool, p float64) float64 {
	switch {
	case p >= rallyStart && p < fadeStart:
		t := smoothstep((p - rallyStart) / (fadeStart - rallyStart))
		if designated {
			return 0.8 + 1.0*t
		}
		return 0.15 + 0.25*t

	case p >= fadeStart && p < climaxStart:
		t := smoothstep((p - fadeStart) / (climaxStart - fadeStart))
		if designated {
			return 0.2 - 1.4*t
		}
		return 0.1 - 0.2*t

	case p >= climaxStart:
		t := smoothstep((p - climaxStart) / (1 - climaxStart))
		jitter := (s.rng.Float64() - 0.5) * jitterWidth
		pull := 0.1
		if designated {
			pull = -0.6
		}
		if p >= nearFinish {
			pull = 0.4
			if designated {
				pull = -2.2
			}
		}
		return jitter + pull*t
	}
	return 0
}

// Stall implements Policy. It fires only while somebody else is still
// running; when everyone else is already home the designated runner is left
// to finish on its own.
func (s *Scripted) Stall(r Runner, othersRacing bool) (StallPlan, bool) {
	if !othersRacing || r.Progress() < LaceTrigger {
		return StallPlan{}, false
	}
	return StallPlan{Duration: LaceDuration, Message: LaceText}, true
}

// Unscripted disables the director entirely.
type Unscripted struct{}

// Bias implements Policy.
func (Unscripted) Bias(Runner, bool, float64) float64 { return 0 }

// Stall implements Policy.
func (Unscripted) Stall(Runner, bool) (StallPlan, bool) { return StallPlan{}, false }
