// Package memstore provides in-memory store implementations backing the
// orchestrator. The task store is the injected replacement for what used to
// be a shared global status table: it is constructed when the orchestrator
// starts and drained/closed on shutdown.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// TaskStore is a mutex-guarded in-memory implementation of store.TaskStore.
//
// Every status transition happens under the store lock, which makes the
// claim compare-and-set atomic: a worker enters processing only by winning
// ClaimTask, and all later transitions verify the recorded owner. UpdatedAt
// is strictly increasing across transitions of a single task.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[string]*domain.GenerationTask
	closed bool
	logger *slog.Logger
}

// NewTaskStore creates an empty in-memory task store.
func NewTaskStore(logger *slog.Logger) *TaskStore {
	return &TaskStore{
		tasks:  make(map[string]*domain.GenerationTask),
		logger: logger.With("component", "task_store"),
	}
}

// CreateTask persists a new pending task record.
func (s *TaskStore) CreateTask(ctx context.Context, task *domain.GenerationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrStoreClosed
	}

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}

	s.tasks[task.ID] = task.Clone()
	return nil
}

// GetTask returns a snapshot of the task, or store.ErrTaskNotFound.
func (s *TaskStore) GetTask(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	return task.Clone(), nil
}

// CountActive returns the number of non-terminal tasks.
func (s *TaskStore) CountActive(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, task := range s.tasks {
		if !task.IsTerminal() {
			count++
		}
	}

	return count, nil
}

// ClaimTask atomically moves a pending task to processing on behalf of the
// given owner. Exactly one concurrent caller can win; everyone else receives
// store.ErrAlreadyClaimed and must leave the task alone.
func (s *TaskStore) ClaimTask(ctx context.Context, taskID, owner string) (*domain.GenerationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, store.ErrStoreClosed
	}

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	if task.Status != domain.TaskStatusPending || task.Owner != "" {
		return nil, store.ErrAlreadyClaimed
	}

	task.Status = domain.TaskStatusProcessing
	task.Owner = owner
	s.touch(task)

	return task.Clone(), nil
}

// UpdateStep records the current pipeline step and attempt count.
func (s *TaskStore) UpdateStep(ctx context.Context, taskID, owner string, step domain.TaskStep, attempt int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.ownedTask(taskID, owner)
	if err != nil {
		return err
	}

	task.CurrentStep = step
	if task.Attempts == nil {
		task.Attempts = make(map[domain.TaskStep]int)
	}
	task.Attempts[step] = attempt
	s.touch(task)

	return nil
}

// CompleteTask transitions a processing task to completed with its story ID.
func (s *TaskStore) CompleteTask(ctx context.Context, taskID, owner string, storyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.ownedTask(taskID, owner)
	if err != nil {
		return err
	}

	task.Status = domain.TaskStatusCompleted
	task.StoryID = storyID
	task.ErrorMessage = ""
	task.ErrorKind = domain.ErrorKindNone
	task.Owner = ""
	s.touch(task)

	return nil
}

// FailTask transitions a task to failed with its normalized classification.
// A pending, unclaimed task may be failed with an empty owner; this is the
// cancellation-before-claim path.
func (s *TaskStore) FailTask(ctx context.Context, taskID, owner string, kind domain.ErrorKind, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}

	if task.IsTerminal() {
		return store.ErrAlreadyTerminal
	}

	if owner == "" {
		if task.Status != domain.TaskStatusPending {
			return store.ErrNotClaimOwner
		}
	} else if task.Owner != owner {
		return store.ErrNotClaimOwner
	}

	if message == "" {
		message = "task failed"
	}

	task.Status = domain.TaskStatusFailed
	task.ErrorKind = kind
	task.ErrorMessage = message
	task.Owner = ""
	s.touch(task)

	return nil
}

// RequestCancel sets the cooperative cancellation flag.
func (s *TaskStore) RequestCancel(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}

	if task.IsTerminal() {
		return store.ErrAlreadyTerminal
	}

	task.CancelRequested = true
	s.touch(task)

	return nil
}

// Close rejects further writes. Reads keep working so late status queries
// still resolve during shutdown.
func (s *TaskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.logger.Info("task store closed", "task_count", len(s.tasks))
	}

	return nil
}

// ownedTask returns the live record after verifying the claim. Callers must
// hold the write lock.
func (s *TaskStore) ownedTask(taskID, owner string) (*domain.GenerationTask, error) {
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	if task.IsTerminal() {
		return nil, store.ErrAlreadyTerminal
	}

	if owner == "" || task.Owner != owner {
		return nil, store.ErrNotClaimOwner
	}

	return task, nil
}

// touch advances UpdatedAt, keeping it strictly increasing even when the
// wall clock does not move between transitions.
func (s *TaskStore) touch(task *domain.GenerationTask) {
	now := time.Now().UTC()
	if !now.After(task.UpdatedAt) {
		now = task.UpdatedAt.Add(time.Nanosecond)
	}
	task.UpdatedAt = now
}
