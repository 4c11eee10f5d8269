package racecheck

import (
	"math/rand"

	"github.com/google/uuid"
)

// rosters builds n rosters of unique runner names with sizes drawn from
// [minRunners, maxRunners].
func rosters(rng *rand.Rand, n, minRunners, maxRunners int) [][]string {
	out := make([][]string, n)
	for i := range out {
		size := minRunners
		if maxRunners > minRunners {
			size += rng.Intn(maxRunners - minRunners + 1)
		}
		names := make([]string, size)
		for j := range names {
			names[j] = "runner-" + uuid.NewString()[:8]
		}
		out[i] = names
	}
	return out
}
