package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotRunning = errors.New("service not running")
)
