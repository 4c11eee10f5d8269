// Package session wraps a race engine with the bookkeeping a hosted race
// needs: a stable participant list for reruns, one ksuid per started race,
// the frame timestamps that turn wall-clock frames into tick deltas, and a
// mutex so the frame workers and HTTP handlers can share it.
package session

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/okian/coffeerun/internal/domain/model"
	"github.com/okian/coffeerun/internal/domain/race"
)

// zoomSettled is the zoom below which a finished race needs no more frames.
const zoomSettled = 1.001

// Session is one hosted race.
type Session struct {
	mu sync.Mutex

	id        string
	raceID    ksuid.KSUID
	names     []string
	engine    *race.Engine
	lastFrame time.Time
	createdAt time.Time
	touchedAt time.Time
	races     int
}

// View is what callers see of a session: identity plus the engine snapshot.
type View struct {
	ID     string   `json:"id"`
	RaceID string   `json:"race_id,omitempty"`
	Names  []string `json:"names"`
	Races  int      `json:"races"`
	race.Snapshot
}

// New wraps engine as session id.
func New(id string, engine *race.Engine, now time.Time) *Session {
	return &Session{
		id:        id,
		engine:    engine,
		createdAt: now,
		touchedAt: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start begins a race with names and remembers them for Rerun.
func (s *Session) Start(names []string, now time.Time) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.engine.Start(names); err != nil {
		s.touchedAt = now
		return s.viewLocked(), err
	}
	s.names = roster(s.engine.Snapshot())
	s.begin(now)
	return s.viewLocked(), nil
}

// Rerun starts a fresh race with the participants of the last one.
func (s *Session) Rerun(now time.Time) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.names) == 0 {
		return s.viewLocked(), race.ErrNoRunners
	}
	if _, err := s.engine.Start(s.names); err != nil {
		return s.viewLocked(), err
	}
	s.begin(now)
	return s.viewLocked(), nil
}

// begin measures the first frame from the engine's own start stamp.
func (s *Session) begin(now time.Time) {
	s.raceID = ksuid.New()
	s.lastFrame = s.engine.StartedAt()
	s.touchedAt = now
	s.races++
}

// Reset discards the current race. The participant list is kept.
func (s *Session) Reset(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Reset()
	s.raceID = ksuid.Nil
	s.touchedAt = now
	return s.viewLocked()
}

// Advance ticks the engine with the time elapsed since the previous frame.
// Frames at or before the previous one are ignored. It reports whether the
// engine was ticked.
func (s *Session) Advance(now time.Time) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !now.After(s.lastFrame) {
		return s.viewLocked(), false
	}
	dt := now.Sub(s.lastFrame)
	s.lastFrame = now
	s.engine.Tick(dt, now)
	return s.viewLocked(), true
}

// NeedsFrames reports whether the frame clock should keep scheduling this
// session: while the race runs, and afterwards until the zoom settles.
func (s *Session) NeedsFrames() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Active() {
		return true
	}
	return !s.raceID.IsNil() && s.engine.Snapshot().Camera.Zoom > zoomSettled
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Results returns the compiled ranking of the last race.
func (s *Session) Results() (race.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Results()
}

// Touch marks the session as used.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.touchedAt = now
	s.mu.Unlock()
}

// Info summarises the session for the store.
func (s *Session) Info() model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := model.SessionInfo{
		ID:        s.id,
		Phase:     s.engine.Phase().String(),
		Runners:   len(s.names),
		CreatedAt: s.createdAt,
		TouchedAt: s.touchedAt,
	}
	if !s.raceID.IsNil() {
		info.RaceID = s.raceID.String()
	}
	return info
}

func (s *Session) viewLocked() View {
	v := View{
		ID:       s.id,
		Names:    append([]string(nil), s.names...),
		Races:    s.races,
		Snapshot: s.engine.Snapshot(),
	}
	if !s.raceID.IsNil() {
		v.RaceID = s.raceID.String()
	}
	return v
}

func roster(snap race.Snapshot) []string {
	names := make([]string, len(snap.Runners))
	for i, r := range snap.Runners {
		names[i] = r.Name
	}
	return names
}
