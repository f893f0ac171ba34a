package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// SchedulerConfig holds the scheduler's tuning values.
type SchedulerConfig struct {
	// MaxActiveTasks bounds the number of non-terminal tasks. Submissions
	// beyond the bound fail with ErrQueueFull.
	MaxActiveTasks int

	// IdempotencyWindow is how long a submission's idempotency key keeps
	// returning the original task ID instead of creating a duplicate.
	IdempotencyWindow time.Duration

	// DefaultPriority applies to submissions that do not specify one.
	DefaultPriority int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxActiveTasks:    100,
		IdempotencyWindow: 15 * time.Minute,
		DefaultPriority:   5,
	}
}

// idempotencyEntry remembers one keyed submission.
type idempotencyEntry struct {
	taskID   string
	storedAt time.Time
}

// Scheduler accepts generation requests: it validates the topic, enforces the
// pending-task bound, allocates the task ID, persists the initial record, and
// admits the task to the executor's queue. It is the only component that
// creates task records.
type Scheduler struct {
	store  store.TaskStore
	queue  *PriorityQueue
	ids    IDSource
	config SchedulerConfig
	logger *slog.Logger

	mu   sync.Mutex
	keys map[string]idempotencyEntry
}

// NewScheduler creates a Scheduler.
func NewScheduler(taskStore store.TaskStore, queue *PriorityQueue, ids IDSource, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.MaxActiveTasks <= 0 {
		config.MaxActiveTasks = DefaultSchedulerConfig().MaxActiveTasks
	}
	if config.IdempotencyWindow <= 0 {
		config.IdempotencyWindow = DefaultSchedulerConfig().IdempotencyWindow
	}
	if config.DefaultPriority <= 0 {
		config.DefaultPriority = DefaultSchedulerConfig().DefaultPriority
	}

	return &Scheduler{
		store:  taskStore,
		queue:  queue,
		ids:    ids,
		config: config,
		logger: logger.With("component", "scheduler"),
		keys:   make(map[string]idempotencyEntry),
	}
}

// Submit creates a tracked generation task for the topic and returns its ID.
//
// It fails with ErrInvalidInput when the topic is malformed and with
// ErrQueueFull when the active-task bound is reached; in both cases no task
// record is created. When idempotencyKey matches a still-live submission
// inside the configured window, the existing task ID is returned and no
// duplicate is created.
func (s *Scheduler) Submit(ctx context.Context, topic domain.Topic, priority int, opts domain.StoryOptions, idempotencyKey string) (string, error) {
	if err := topic.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if priority <= 0 {
		priority = s.config.DefaultPriority
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if taskID, ok := s.liveSubmission(ctx, idempotencyKey); ok {
			s.logger.DebugContext(ctx, "idempotent resubmission, returning existing task",
				"idempotency_key", idempotencyKey,
				"task_id", taskID)
			return taskID, nil
		}
	}

	active, err := s.store.CountActive(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count active tasks: %w", err)
	}
	if active >= s.config.MaxActiveTasks {
		return "", fmt.Errorf("%w: %d active tasks at bound %d",
			ErrQueueFull, active, s.config.MaxActiveTasks)
	}

	now := time.Now().UTC()
	task := &domain.GenerationTask{
		ID:        s.ids.NextTaskID(),
		Topic:     topic,
		Options:   opts,
		Status:    domain.TaskStatusPending,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return "", fmt.Errorf("failed to persist task: %w", err)
	}

	if err := s.queue.Push(task.ID, priority); err != nil {
		// The record exists but can never be claimed; fail it so the
		// caller sees a consistent terminal state.
		_ = s.store.FailTask(ctx, task.ID, "", domain.ErrorKindInternal, "task queue closed during submission")
		return "", err
	}

	if idempotencyKey != "" {
		s.keys[idempotencyKey] = idempotencyEntry{taskID: task.ID, storedAt: now}
	}
	s.pruneKeysLocked(now)

	s.logger.InfoContext(ctx, "task submitted",
		"task_id", task.ID,
		"keyword", topic.Keyword,
		"source", topic.Source,
		"priority", priority)

	return task.ID, nil
}

// GetTask returns a snapshot of the task, or store.ErrTaskNotFound.
func (s *Scheduler) GetTask(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	return s.store.GetTask(ctx, taskID)
}

// Cancel stops a task. A pending task fails immediately with the cancelled
// classification; a processing task gets the cooperative cancellation flag
// and fails at its next step boundary; a terminal task yields
// store.ErrAlreadyTerminal.
func (s *Scheduler) Cancel(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	if task.IsTerminal() {
		return store.ErrAlreadyTerminal
	}

	if task.Status == domain.TaskStatusPending {
		err := s.store.FailTask(ctx, taskID, "", domain.ErrorKindCancelled, "cancelled before processing")
		if err == nil {
			s.logger.InfoContext(ctx, "pending task cancelled", "task_id", taskID)
			return nil
		}
		// A worker may have claimed the task between the snapshot and
		// the write; fall through to the cooperative path.
	}

	if err := s.store.RequestCancel(ctx, taskID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "cancellation requested", "task_id", taskID)
	return nil
}

// liveSubmission resolves an idempotency key to its original task if the
// entry is inside the window and the task has not reached a terminal state.
// Callers must hold s.mu.
func (s *Scheduler) liveSubmission(ctx context.Context, key string) (string, bool) {
	entry, ok := s.keys[key]
	if !ok {
		return "", false
	}

	if time.Since(entry.storedAt) > s.config.IdempotencyWindow {
		delete(s.keys, key)
		return "", false
	}

	task, err := s.store.GetTask(ctx, entry.taskID)
	if err != nil || task.IsTerminal() {
		delete(s.keys, key)
		return "", false
	}

	return entry.taskID, true
}

// pruneKeysLocked drops idempotency entries older than the window so the map
// does not grow without bound. Callers must hold s.mu.
func (s *Scheduler) pruneKeysLocked(now time.Time) {
	for key, entry := range s.keys {
		if now.Sub(entry.storedAt) > s.config.IdempotencyWindow {
			delete(s.keys, key)
		}
	}
}
