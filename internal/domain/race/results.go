package race

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Standing is one row of the final ranking.
type Standing struct {
	Rank        int           `json:"rank"`
	Name        string        `json:"name"`
	Lane        int           `json:"lane"`
	FinishTime  time.Duration `json:"finish_time"`
	FinishOrder int           `json:"finish_order"`
}

// Result is the compiled outcome of a completed race.
type Result struct {
	Standings  []Standing `json:"standings"`
	Loser      Standing   `json:"loser"`
	Designated int        `json:"designated_lane"`
	// ScriptHeld reports whether the designated runner actually came last.
	ScriptHeld bool `json:"script_held"`
}

// Compile ranks finished runners by finish time, breaking ties by finish
// order. It fails if any runner is still on the course.
func Compile(runners []Runner, designated int) (Result, error) {
	if len(runners) == 0 {
		return Result{}, ErrNoRunners
	}
	ranked := make([]Runner, len(runners))
	copy(ranked, runners)
	for i := range ranked {
		if !ranked[i].Finished {
			return Result{}, ErrNotCompleted
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinishTime != ranked[j].FinishTime {
			return ranked[i].FinishTime < ranked[j].FinishTime
		}
		return ranked[i].FinishOrder < ranked[j].FinishOrder
	})

	res := Result{
		Standings:  make([]Standing, len(ranked)),
		Designated: designated,
	}
	for i, r := range ranked {
		res.Standings[i] = Standing{
			Rank:        i + 1,
			Name:        r.Name,
			Lane:        r.Lane,
			FinishTime:  r.FinishTime,
			FinishOrder: r.FinishOrder,
		}
	}
	res.Loser = res.Standings[len(res.Standings)-1]
	res.ScriptHeld = res.Loser.Lane == designated
	return res, nil
}

// Text renders the result as the plain-text block shared after a race.
func (r Result) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coffee Run %.0fm results\n", CourseLength)
	fmt.Fprintf(&b, "Coffee: %s\n", r.Loser.Name)
	for _, s := range r.Standings {
		fmt.Fprintf(&b, "%d. %s (%.2fs)\n", s.Rank, s.Name, s.FinishTime.Seconds())
	}
	return strings.TrimRight(b.String(), "\n")
}
