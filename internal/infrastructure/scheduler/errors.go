package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrRefreshInProgress is returned when a manual run overlaps a running refresh
	ErrRefreshInProgress = errors.New("dataset refresh already in progress")
)
