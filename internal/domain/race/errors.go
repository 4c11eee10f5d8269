package race

import "errors"

// Sentinel kinds for race errors.
var (
	ErrNoRunners    = errors.New("need at least one name")
	ErrNotStarted   = errors.New("race not started")
	ErrNotCompleted = errors.New("race not completed")
)
