package repository

import "errors"

// Sentinel kinds for batch store errors.
var (
	ErrNotFound    = errors.New("batch not found")
	ErrInvalidName = errors.New("invalid batch name")
)
