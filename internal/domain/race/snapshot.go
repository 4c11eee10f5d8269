package race

import "time"

// Snapshot is an immutable copy of the race taken between ticks.
type Snapshot struct {
	Phase      Phase         `json:"phase"`
	Status     string        `json:"status"`
	LeaderName string        `json:"leader"`
	LeaderLane int           `json:"leader_lane"`
	Progress   float64       `json:"progress"`
	Elapsed    time.Duration `json:"elapsed"`
	Tick       uint64        `json:"tick"`
	Camera     Camera        `json:"camera"`
	Runners    []RunnerView  `json:"runners"`
	Result     *Result       `json:"result,omitempty"`
}

// RunnerView is a read-only view of one runner.
type RunnerView struct {
	Name        string        `json:"name"`
	Lane        int           `json:"lane"`
	State       string        `json:"state"`
	Position    float64       `json:"position"`
	Progress    float64       `json:"progress"`
	BaseSpeed   float64       `json:"base_speed"`
	Buff        float64       `json:"buff"`
	Finished    bool          `json:"finished"`
	FinishTime  time.Duration `json:"finish_time"`
	FinishOrder int           `json:"finish_order"`
	Stalled     bool          `json:"stalled"`
	Bubble      string        `json:"bubble,omitempty"`
}

// Snapshot copies the current race state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:      e.Phase(),
		Status:     e.status,
		LeaderLane: -1,
		Camera:     e.camera,
	}
	st := e.st
	if st == nil {
		return snap
	}

	snap.Progress = st.progress
	snap.Elapsed = st.lastTick.Sub(st.startedAt)
	snap.Tick = st.ticks
	if l := st.leader(); l != nil {
		snap.LeaderName = l.Name
		snap.LeaderLane = l.Lane
	}
	snap.Runners = make([]RunnerView, len(st.runners))
	for i, r := range st.runners {
		v := RunnerView{
			Name:        r.Name,
			Lane:        r.Lane,
			State:       r.State().String(),
			Position:    r.Position,
			Progress:    r.Progress(),
			BaseSpeed:   r.BaseSpeed,
			Buff:        r.Buff,
			Finished:    r.Finished,
			FinishTime:  r.FinishTime,
			FinishOrder: r.FinishOrder,
			Stalled:     r.LaceStopped,
		}
		if r.LaceStopped {
			v.Bubble = st.laceText
		}
		snap.Runners[i] = v
	}
	if st.result != nil {
		res := *st.result
		res.Standings = append([]Standing(nil), st.result.Standings...)
		snap.Result = &res
	}
	return snap
}

// Designated exposes the scripted lane to tests and tooling inside the
// module. Not part of Snapshot.
func (e *Engine) Designated() int {
	if e.st == nil {
		return -1
	}
	return e.st.designated
}
