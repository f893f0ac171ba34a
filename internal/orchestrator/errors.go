package orchestrator

import "errors"

// Common errors returned by the scheduler and executor.
var (
	// ErrInvalidInput is returned when a submission is malformed (for
	// example, the topic lacks required fields). The request is rejected
	// synchronously and no task is created.
	ErrInvalidInput = errors.New("invalid submission input")

	// ErrQueueFull is the backpressure signal: the number of non-terminal
	// tasks has reached the configured bound. No task is created; callers
	// should retry later.
	ErrQueueFull = errors.New("pending task bound reached")

	// ErrQueueClosed is returned when submitting after shutdown began.
	ErrQueueClosed = errors.New("task queue is closed")
)
