package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job record is missing from the store
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal is returned when an operation is refused because the
	// job already reached a terminal status
	ErrJobTerminal = errors.New("job already in terminal status")

	// ErrNotInDeadLetter is returned when a requeue targets a job that is
	// not in the dead-letter sink
	ErrNotInDeadLetter = errors.New("job not in dead-letter sink")
)
