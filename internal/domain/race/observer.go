package race

import "time"

// Observer receives race lifecycle notifications. Calls happen synchronously
// inside Start and Tick, on the caller's goroutine.
type Observer interface {
	RaceStarted(s Started)
	EventFired(e FiredEvent)
	LaceStalled(s Stalled)
	RunnerFinished(f Finish)
	RaceCompleted(r Result)
}

// Started describes a freshly started race.
type Started struct {
	Names      []string
	Designated int
	At         time.Time
}

// FiredEvent describes a checkpoint event assigned to a runner.
type FiredEvent struct {
	Checkpoint int
	Progress   float64
	Name       string
	Lane       int
	Event      Event
	At         time.Time
}

// Stalled describes a lace stall that just began.
type Stalled struct {
	Name     string
	Lane     int
	Position float64
	Release  time.Time
	Message  string
}

// Finish describes a single line crossing.
type Finish struct {
	Name        string
	Lane        int
	FinishTime  time.Duration
	FinishOrder int
	At          time.Time
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) RaceStarted(Started)   {}
func (NopObserver) EventFired(FiredEvent) {}
func (NopObserver) LaceStalled(Stalled)   {}
func (NopObserver) RunnerFinished(Finish) {}
func (NopObserver) RaceCompleted(Result)  {}
