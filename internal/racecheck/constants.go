package racecheck

import "time"

// Defaults used when Config leaves a field empty.
const (
	DefaultRaces        = 20
	DefaultMinRunners   = 2
	DefaultMaxRunners   = 10
	DefaultTimeout      = 10 * time.Second
	DefaultRaceTimeout  = time.Minute
	DefaultPollInterval = 100 * time.Millisecond
)

const phaseCompleted = "completed"

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

const percentageMultiplier = 100
