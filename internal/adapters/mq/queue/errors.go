package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("frame queue closed")
	ErrFull   = errors.New("frame queue full")
)
