package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCapacity        = errors.New("too many open sessions")
	ErrNotStarted      = errors.New("service not started")
)
