// Package race implements the coffee-run race engine: per-tick integration,
// checkpoint events, the scripted director, the lace stall, finish-line
// detection with sub-frame tie-breaking, the camera and the final ranking.
//
// An Engine is single-threaded. The host drives it by calling Tick once per
// frame and reads immutable Snapshot copies between ticks.
package race

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Engine owns one race at a time. Start replaces any previous race wholesale
// and Reset discards it.
type Engine struct {
	tuning     Tuning
	policy     Policy
	rng        Rand
	clock      func() time.Time
	observer   Observer
	designated int
	noDirector bool
	noEvents   bool

	st     *state
	camera Camera
	status string
}

// state is everything that belongs to a single run.
type state struct {
	phase          Phase
	runners        []*Runner
	checkpoints    []float64
	nextCheckpoint int
	designated     int
	finishSeq      int

	focusLane  int
	focusUntil time.Time

	startedAt      time.Time
	startAnimUntil time.Time
	lastTick       time.Time
	ticks          uint64

	laceFired bool
	laceText  string
	progress  float64
	result    *Result
}

// New creates an engine with the stock tuning and the scripted director.
func New(opts ...Option) *Engine {
	e := &Engine{
		tuning:     DefaultTuning(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation randomness, not security
		clock:      time.Now,
		observer:   NopObserver{},
		designated: -1,
		status:     statusIdle,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	switch {
	case e.noDirector:
		e.policy = Unscripted{}
	case e.policy == nil:
		e.policy = NewScripted(e.rng)
	}
	if e.noEvents {
		e.tuning.Checkpoints = nil
	}
	e.camera = newCamera(e.tuning.ViewportWidth)
	return e
}

// Start begins a new race with up to MaxRunners names. Blank names are
// ignored; with none left the engine keeps its current state and returns
// ErrNoRunners.
func (e *Engine) Start(names []string) (Snapshot, error) {
	roster := normalizeNames(names)
	if len(roster) == 0 {
		e.setStatus(statusNoNames)
		return e.Snapshot(), ErrNoRunners
	}

	now := e.clock()
	t := e.tuning
	runners := make([]*Runner, len(roster))
	for i, name := range roster {
		runners[i] = &Runner{
			Name:      name,
			Lane:      i,
			Position:  StartOffset,
			BaseSpeed: t.BaseSpeedMin + e.rng.Float64()*(t.BaseSpeedMax-t.BaseSpeedMin),
			spawn:     StartOffset,
		}
	}

	designated := e.designated
	if designated < 0 || designated >= len(runners) {
		designated = e.rng.Intn(len(runners))
	}

	e.st = &state{
		phase:          StartAnimation,
		runners:        runners,
		checkpoints:    append([]float64(nil), t.Checkpoints...),
		designated:     designated,
		focusLane:      -1,
		startedAt:      now,
		startAnimUntil: now.Add(t.StartAnimation),
		lastTick:       now,
	}
	e.camera.reset()
	e.setStatus(statusGo)

	e.observer.RaceStarted(Started{
		Names:      append([]string(nil), roster...),
		Designated: designated,
		At:         now,
	})
	return e.Snapshot(), nil
}

// Reset discards the current race and returns to NotStarted.
func (e *Engine) Reset() {
	e.st = nil
	e.camera.reset()
	e.setStatus(statusIdle)
}

// Phase reports the race-level lifecycle phase.
func (e *Engine) Phase() Phase {
	if e.st == nil {
		return NotStarted
	}
	return e.st.phase
}

// StartedAt is the clock reading the current race started at, or the zero
// time without a race.
func (e *Engine) StartedAt() time.Time {
	if e.st == nil {
		return time.Time{}
	}
	return e.st.startedAt
}

// Active reports whether ticks currently advance the race.
func (e *Engine) Active() bool {
	p := e.Phase()
	return p == StartAnimation || p == Running
}

// Tick advances the race by one frame. dt is the time since the previous
// frame and now is a monotonic timestamp. Outside an active race only the
// camera zoom relaxes.
func (e *Engine) Tick(dt time.Duration, now time.Time) {
	if !e.Active() {
		e.camera.relax()
		return
	}
	st := e.st
	st.ticks++
	st.lastTick = now

	dt = clampDuration(dt, 0, e.tuning.MaxTickDelta)
	p := st.advanceProgress()
	if e.tuning.SlowMotion {
		dt = scaleDuration(dt, slowMotionFactor(p))
	}
	e.camera.zoomFor(p)

	inStart := now.Before(st.startAnimUntil)
	if !inStart {
		st.phase = Running
		e.injectEvent(now, p)
		e.checkLaceStall(now)
	}

	step := dt.Seconds()
	for _, r := range st.runners {
		if r.Finished {
			continue
		}
		if now.After(r.BuffUntil) {
			r.Buff = 0
		}

		if inStart {
			r.Position = r.spawn + EntryDistance*smoothstep(e.entryFraction(now))
			continue
		}

		if r.LaceStopped {
			if now.Before(r.LaceRelease) {
				// Unfinished runners are always short of the line, so
				// holding in place keeps the stalled runner behind it.
				continue
			}
			r.LaceStopped = false
		}

		bias := e.policy.Bias(*r, r.Lane == st.designated, p)
		speed := clamp(r.BaseSpeed+r.Buff+bias, e.tuning.MinSpeed, e.tuning.MaxSpeed)
		prev := r.Position
		next := prev + speed*DistanceScale*step
		r.Position = next

		if next >= CourseLength {
			e.resolveCrossing(r, prev, next, dt, now)
		}
	}

	st.advanceProgress()
	if target := e.focusTarget(now); target != nil {
		e.camera.pursue(target.Lane, target.Position)
	}

	if st.allFinished() {
		e.complete()
	}
}

// entryFraction is how far through the entry animation now is.
func (e *Engine) entryFraction(now time.Time) float64 {
	d := e.tuning.StartAnimation
	if d <= 0 {
		return 1
	}
	return 1 - float64(e.st.startAnimUntil.Sub(now))/float64(d)
}

// checkLaceStall asks the policy once per tick whether the designated runner
// must stop. The stall fires at most once per race.
func (e *Engine) checkLaceStall(now time.Time) {
	st := e.st
	if st.laceFired {
		return
	}
	d := st.runners[st.designated]
	if d.Finished {
		return
	}
	othersRacing := false
	for _, r := range st.runners {
		if r.Lane != d.Lane && !r.Finished {
			othersRacing = true
			break
		}
	}
	plan, ok := e.policy.Stall(*d, othersRacing)
	if !ok {
		return
	}

	st.laceFired = true
	st.laceText = plan.Message
	d.LaceStopped = true
	d.LaceRelease = now.Add(plan.Duration)

	e.setStatus(fmt.Sprintf(statusEventFmt, d.Name, plan.Message))
	e.observer.LaceStalled(Stalled{
		Name:     d.Name,
		Lane:     d.Lane,
		Position: d.Position,
		Release:  d.LaceRelease,
		Message:  plan.Message,
	})
}

// resolveCrossing stamps a runner that reached the line during this tick.
func (e *Engine) resolveCrossing(r *Runner, prev, next float64, dt time.Duration, now time.Time) {
	st := e.st
	crossed := CrossingInstant(prev, next, dt, now)

	r.Position = CourseLength
	r.Finished = true
	r.FinishTime = crossed.Sub(st.startedAt)
	st.finishSeq++
	r.FinishOrder = st.finishSeq

	st.focusLane = r.Lane
	st.focusUntil = now.Add(e.tuning.FocusHold)

	e.observer.RunnerFinished(Finish{
		Name:        r.Name,
		Lane:        r.Lane,
		FinishTime:  r.FinishTime,
		FinishOrder: r.FinishOrder,
		At:          now,
	})
}

// CrossingInstant interpolates when, within a tick of length dt ending at
// now, a runner moving from prev to next passed the finish line. A tick with
// no positional delta counts as crossing at now.
func CrossingInstant(prev, next float64, dt time.Duration, now time.Time) time.Time {
	ratio := 1.0
	if d := next - prev; d > 0 {
		ratio = (CourseLength - prev) / d
	}
	ratio = clamp(ratio, 0, 1)
	return now.Add(-scaleDuration(dt, 1-ratio))
}

// focusTarget picks the runner the camera should frame.
func (e *Engine) focusTarget(now time.Time) *Runner {
	st := e.st
	if st.focusLane >= 0 && now.Before(st.focusUntil) {
		return st.runners[st.focusLane]
	}
	return st.leader()
}

func (e *Engine) complete() {
	st := e.st
	runners := make([]Runner, len(st.runners))
	for i, r := range st.runners {
		runners[i] = *r
	}
	res, err := Compile(runners, st.designated)
	if err != nil {
		return
	}
	st.phase = Completed
	st.result = &res
	e.setStatus(fmt.Sprintf(statusDoneFmt, res.Loser.Name))
	e.observer.RaceCompleted(res)
}

// Leader returns the current leader's name and the race progress.
func (e *Engine) Leader() (string, float64) {
	if e.st == nil {
		return "", 0
	}
	l := e.st.leader()
	if l == nil {
		return "", e.st.progress
	}
	return l.Name, e.st.progress
}

// Status returns the latest transient status message.
func (e *Engine) Status() string {
	return e.status
}

// Results returns the compiled ranking once the race completed.
func (e *Engine) Results() (Result, error) {
	if e.st == nil {
		return Result{}, ErrNotStarted
	}
	if e.st.result == nil {
		return Result{}, ErrNotCompleted
	}
	return *e.st.result, nil
}

func (e *Engine) setStatus(msg string) {
	e.status = msg
}

// leader is the unfinished runner furthest along, or the furthest overall
// once everybody finished. Ties go to the lower lane.
func (st *state) leader() *Runner {
	var best *Runner
	for _, r := range st.runners {
		if r.Finished {
			continue
		}
		if best == nil || r.Position > best.Position {
			best = r
		}
	}
	if best != nil {
		return best
	}
	for _, r := range st.runners {
		if best == nil || r.Position > best.Position {
			best = r
		}
	}
	return best
}

// advanceProgress recomputes leader progress from the furthest runner and
// never lets it move backwards.
func (st *state) advanceProgress() float64 {
	furthest := StartOffset
	for _, r := range st.runners {
		if r.Position > furthest {
			furthest = r.Position
		}
	}
	if p := progressOf(furthest); p > st.progress {
		st.progress = p
	}
	return st.progress
}

func (st *state) unfinished() []*Runner {
	out := make([]*Runner, 0, len(st.runners))
	for _, r := range st.runners {
		if !r.Finished {
			out = append(out, r)
		}
	}
	return out
}

func (st *state) allFinished() bool {
	for _, r := range st.runners {
		if !r.Finished {
			return false
		}
	}
	return true
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
		if len(out) == MaxRunners {
			break
		}
	}
	return out
}
