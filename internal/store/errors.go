package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrTaskNotFound is returned when the requested task does not exist
	// in the store.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAlreadyClaimed is returned when a worker loses the claim race:
	// the task is no longer pending because another worker owns it (or the
	// task reached a terminal state first). Losing workers must leave the
	// task untouched.
	ErrAlreadyClaimed = errors.New("task already claimed")

	// ErrNotClaimOwner is returned when a transition is attempted by a
	// worker that does not hold the claim on the task. This always signals
	// a concurrency defect and must never be swallowed.
	ErrNotClaimOwner = errors.New("caller does not own the task claim")

	// ErrAlreadyTerminal is returned when a write is attempted against a
	// task that has already completed or failed. Terminal records are
	// immutable.
	ErrAlreadyTerminal = errors.New("task is already in a terminal state")

	// ErrStoreClosed is returned when an operation is attempted after the
	// store has been drained and closed during shutdown.
	ErrStoreClosed = errors.New("store is closed")

	// ErrStoryNotFound is returned when the requested story does not exist
	// in the store.
	ErrStoryNotFound = errors.New("story not found")
)
