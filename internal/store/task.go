package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/storyforge-api/internal/domain"
)

// TaskStore is the durable task-state map and the single source of truth for
// status queries. Tasks are created by the scheduler and transitioned by the
// executor; no other component writes task records.
//
// All mutating operations that take an owner enforce the claim: they fail with
// ErrNotClaimOwner when the caller does not hold the task, and with
// ErrAlreadyTerminal when the task has already completed or failed. Every
// successful mutation advances UpdatedAt strictly monotonically.
type TaskStore interface {
	// CreateTask persists a new task record. The task must be in the
	// pending state.
	CreateTask(ctx context.Context, task *domain.GenerationTask) error

	// GetTask returns a snapshot of the task, or ErrTaskNotFound.
	GetTask(ctx context.Context, taskID string) (*domain.GenerationTask, error)

	// CountActive returns the number of non-terminal tasks. The scheduler
	// uses it to enforce the pending-task bound.
	CountActive(ctx context.Context) (int, error)

	// ClaimTask atomically transitions a pending task to processing and
	// records the owner. Exactly one concurrent caller wins; losers get
	// ErrAlreadyClaimed and must not touch the task.
	ClaimTask(ctx context.Context, taskID, owner string) (*domain.GenerationTask, error)

	// UpdateStep records the current pipeline step and the attempt count
	// for that step on a processing task.
	UpdateStep(ctx context.Context, taskID, owner string, step domain.TaskStep, attempt int) error

	// CompleteTask transitions a processing task to completed and records
	// the persisted story reference. The record becomes immutable.
	CompleteTask(ctx context.Context, taskID, owner string, storyID uuid.UUID) error

	// FailTask transitions a task to failed with the normalized error
	// classification. The record becomes immutable. A pending task may be
	// failed without an owner (cancellation before claim) by passing the
	// empty string.
	FailTask(ctx context.Context, taskID, owner string, kind domain.ErrorKind, message string) error

	// RequestCancel sets the cooperative cancellation flag on a
	// non-terminal task. Returns ErrAlreadyTerminal for terminal tasks.
	RequestCancel(ctx context.Context, taskID string) error

	// Close drains the store and rejects further writes.
	Close() error
}
