package racecheck

import (
	"fmt"
	"sort"
)

// Verify checks a compiled result against the roster that raced. It returns
// one line per problem found; an empty slice means the race is consistent.
func Verify(roster []string, res Result) []string {
	var problems []string
	n := len(roster)

	if len(res.Standings) != n {
		problems = append(problems, fmt.Sprintf("%d standings for %d runners", len(res.Standings), n))
	}

	orders := make([]int, 0, len(res.Standings))
	names := make(map[string]int, n)
	for _, name := range roster {
		names[name]++
	}
	for i, s := range res.Standings {
		if s.Rank != i+1 {
			problems = append(problems, fmt.Sprintf("standing %d has rank %d", i+1, s.Rank))
		}
		if names[s.Name] == 0 {
			problems = append(problems, fmt.Sprintf("unknown runner %q", s.Name))
		} else {
			names[s.Name]--
		}
		orders = append(orders, s.FinishOrder)

		if i == 0 {
			continue
		}
		prev := res.Standings[i-1]
		switch {
		case s.FinishTime < prev.FinishTime:
			problems = append(problems, fmt.Sprintf("%s ranked after %s with a faster time", s.Name, prev.Name))
		case s.FinishTime == prev.FinishTime && s.FinishOrder < prev.FinishOrder:
			problems = append(problems, fmt.Sprintf("tie between %s and %s broken against finish order", prev.Name, s.Name))
		}
	}

	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			problems = append(problems, fmt.Sprintf("finish orders are not a permutation of 1..%d", len(orders)))
			break
		}
	}

	if len(res.Standings) > 0 {
		last := res.Standings[len(res.Standings)-1]
		if res.Loser != last {
			problems = append(problems, fmt.Sprintf("loser %q is not the last standing %q", res.Loser.Name, last.Name))
		}
		if held := res.Loser.Lane == res.Designated; held != res.ScriptHeld {
			problems = append(problems, fmt.Sprintf("script_held=%t but loser lane %d, designated %d",
				res.ScriptHeld, res.Loser.Lane, res.Designated))
		}
	}
	return problems
}
