package race

import (
	"fmt"
	"time"
)

// Event is a catalog entry: a transient speed delta and how long it lasts.
type Event struct {
	Label    string        `json:"label"`
	Delta    float64       `json:"delta"`
	Duration time.Duration `json:"duration"`
}

// DefaultCatalog returns the stock office-themed events.
func DefaultCatalog() []Event {
	return []Event{
		{Label: "Boss on the line", Delta: -1.8, Duration: 1200 * time.Millisecond},
		{Label: "Coffee gulp", Delta: +1.6, Duration: 1100 * time.Millisecond},
		{Label: "Stomach ache", Delta: -2.3, Duration: 800 * time.Millisecond},
		{Label: "Second wind", Delta: +2.4, Duration: 700 * time.Millisecond},
		{Label: "Extra meeting", Delta: -1.2, Duration: 900 * time.Millisecond},
	}
}

// DefaultCheckpoints returns the progress fractions at 20, 50 and 80 units.
func DefaultCheckpoints() []float64 {
	return []float64{0.20, 0.50, 0.80}
}

// injectEvent fires at most one pending checkpoint per tick. The checkpoint
// index advances even when no runner is left to receive the event.
func (e *Engine) injectEvent(now time.Time, progress float64) {
	st := e.st
	if st.nextCheckpoint >= len(st.checkpoints) || len(e.tuning.Catalog) == 0 {
		return
	}
	if progress < st.checkpoints[st.nextCheckpoint] {
		return
	}
	idx := st.nextCheckpoint
	st.nextCheckpoint++

	alive := st.unfinished()
	if len(alive) == 0 {
		return
	}
	r := alive[e.rng.Intn(len(alive))]
	ev := e.tuning.Catalog[e.rng.Intn(len(e.tuning.Catalog))]

	r.Buff = ev.Delta
	r.BuffUntil = now.Add(ev.Duration)

	e.setStatus(fmt.Sprintf(statusEventFmt, r.Name, ev.Label))
	e.observer.EventFired(FiredEvent{
		Checkpoint: idx,
		Progress:   progress,
		Name:       r.Name,
		Lane:       r.Lane,
		Event:      ev,
		At:         now,
	})
}
