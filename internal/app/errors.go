package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrJobNotFound  = errors.New("job not found")
	ErrBackpressure = errors.New("generation queue full")
	ErrJobNotDone   = errors.New("job not finished")
	ErrInvalidInput = errors.New("invalid generation request")
)
