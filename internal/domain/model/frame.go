// Package model contains domain models passed between layers.
package model

import "time"

// Frame asks the worker pool to advance one race session to At.
type Frame struct {
	SessionID string    // session to advance
	At        time.Time // frame clock instant the frame was scheduled for
}

// SessionInfo is the store-level summary of a race session.
type SessionInfo struct {
	ID        string
	RaceID    string
	Phase     string
	Runners   int
	CreatedAt time.Time
	TouchedAt time.Time
}
