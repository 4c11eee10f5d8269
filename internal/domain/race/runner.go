package race

import (
	"fmt"
	"time"
)

// Runner is one participant's record for the duration of a race.
type Runner struct {
	Name      string
	Lane      int
	Position  float64
	BaseSpeed float64

	Buff      float64
	BuffUntil time.Time

	Finished    bool
	FinishTime  time.Duration
	FinishOrder int

	LaceStopped bool
	LaceRelease time.Time

	spawn float64
}

// State reports the runner's one-way lifecycle state.
func (r *Runner) State() RunnerState {
	switch {
	case r.Finished:
		return Finished
	case r.Position > r.spawn:
		return Racing
	default:
		return Idle
	}
}

// Progress is the runner's own fraction of the course.
func (r *Runner) Progress() float64 {
	return progressOf(r.Position)
}

// RunnerState is the per-runner lifecycle.
type RunnerState int

const (
	Idle RunnerState = iota
	Racing
	Finished
)

func (s RunnerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Racing:
		return "racing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Phase is the race-level lifecycle.
type Phase int

const (
	NotStarted Phase = iota
	StartAnimation
	Running
	Completed
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case StartAnimation:
		return "start_animation"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText lets phases appear as strings in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for q := NotStarted; q <= Completed; q++ {
		if q.String() == string(b) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("race: unknown phase %q", b)
}
