package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/generation"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// NewsFetcher pulls fresh source material for a topic during the fetch step.
// It is optional: without one the pipeline runs on the topic's own metadata.
type NewsFetcher interface {
	// FetchNews returns article candidates matching the query.
	FetchNews(ctx context.Context, query string) ([]domain.NewsItem, error)
}

// ExecutorConfig holds configuration for the pipeline executor.
type ExecutorConfig struct {
	// WorkerCount is the fixed size of the worker pool bounding in-flight
	// tasks. If zero or negative, defaults to 3.
	WorkerCount int

	// Retry is the per-step retry policy.
	Retry RetryPolicy
}

// ExecutorStats is a snapshot of the executor's telemetry counters.
type ExecutorStats struct {
	TasksCompleted int64
	TasksFailed    int64
	StageAttempts  int64
}

// pipelineState carries the intermediate outputs between steps of one task.
// Completed step outputs are kept here so a retried step never regenerates
// work an earlier step already finished.
type pipelineState struct {
	material    []domain.NewsItem
	brief       generation.ContentBrief
	draft       *generation.StoryDraft
	imageRef    string
	imagePrompt string
	storyID     uuid.UUID
}

// Executor is the bounded worker pool driving claimed tasks through the
// ordered stage sequence. Workers claim pending tasks exclusively via the
// store's compare-and-set, record each step transition atomically, apply the
// retry policy to retryable failures, and move every claimed task to a
// terminal state. Each worker processes one task at a time.
type Executor struct {
	tasks   store.TaskStore
	stories store.StoryStore
	queue   *PriorityQueue
	news    NewsFetcher
	text    *generation.TextStage
	image   *generation.ImageStage
	config  ExecutorConfig
	logger  *slog.Logger

	wg sync.WaitGroup

	tasksCompleted atomic.Int64
	tasksFailed    atomic.Int64
	stageAttempts  atomic.Int64
}

// NewExecutor creates an Executor. The news fetcher may be nil.
func NewExecutor(
	tasks store.TaskStore,
	stories store.StoryStore,
	queue *PriorityQueue,
	news NewsFetcher,
	text *generation.TextStage,
	image *generation.ImageStage,
	config ExecutorConfig,
	logger *slog.Logger,
) *Executor {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 3
	}
	config.Retry = config.Retry.withDefaults()

	return &Executor{
		tasks:   tasks,
		stories: stories,
		queue:   queue,
		news:    news,
		text:    text,
		image:   image,
		config:  config,
		logger:  logger.With("component", "executor"),
	}
}

// Start launches the worker pool.
func (e *Executor) Start(ctx context.Context) {
	for i := 0; i < e.config.WorkerCount; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}

	e.logger.Info("executor started", "worker_count", e.config.WorkerCount)
}

// Stop closes the queue and waits for in-flight tasks to reach a terminal
// state.
func (e *Executor) Stop() {
	e.queue.Close()
	e.wg.Wait()
	e.logger.Info("executor stopped",
		"tasks_completed", e.tasksCompleted.Load(),
		"tasks_failed", e.tasksFailed.Load())
}

// Stats returns a snapshot of the telemetry counters.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		TasksCompleted: e.tasksCompleted.Load(),
		TasksFailed:    e.tasksFailed.Load(),
		StageAttempts:  e.stageAttempts.Load(),
	}
}

// worker claims and processes tasks until the queue closes.
func (e *Executor) worker(ctx context.Context, id int) {
	defer e.wg.Done()

	owner := fmt.Sprintf("worker-%d", id)
	e.logger.Debug("starting worker", "worker", owner)

	for {
		taskID, ok := e.queue.Pop()
		if !ok {
			e.logger.Debug("queue closed, stopping worker", "worker", owner)
			return
		}

		e.process(ctx, taskID, owner)
	}
}

// process drives one task from claim to terminal state.
func (e *Executor) process(ctx context.Context, taskID, owner string) {
	task, err := e.tasks.ClaimTask(ctx, taskID, owner)
	if err != nil {
		// Losing the claim race (or finding the task already cancelled)
		// is normal; the task belongs to whoever won.
		if errors.Is(err, store.ErrAlreadyClaimed) || errors.Is(err, store.ErrTaskNotFound) {
			e.logger.Debug("claim not won", "task_id", taskID, "worker", owner, "reason", err)
			return
		}
		e.logger.Error("failed to claim task", "task_id", taskID, "worker", owner, "error", err)
		return
	}

	logger := e.logger.With("task_id", taskID, "worker", owner, "keyword", task.Topic.Keyword)
	logger.Info("processing task")

	state := &pipelineState{}

	for _, step := range domain.PipelineSteps() {
		if e.cancelled(ctx, taskID) {
			e.fail(ctx, taskID, owner, domain.ErrorKindCancelled, "cancelled by caller", logger)
			return
		}

		stepErr, kind := e.runStepWithRetry(ctx, task, state, step, owner, logger)
		if stepErr != nil {
			if errors.Is(stepErr, store.ErrNotClaimOwner) {
				// Another writer touched a task we believed we owned.
				// This is a concurrency defect, never swallowed.
				logger.Error("task claim invariant violated, abandoning task",
					"step", step, "error", stepErr)
				return
			}
			e.fail(ctx, taskID, owner, kind, normalizedMessage(step, kind), logger)
			return
		}
	}

	if err := e.tasks.CompleteTask(ctx, taskID, owner, state.storyID); err != nil {
		if errors.Is(err, store.ErrNotClaimOwner) {
			logger.Error("task claim invariant violated at completion", "error", err)
			return
		}
		logger.Error("failed to record task completion", "error", err)
		return
	}

	e.tasksCompleted.Add(1)
	logger.Info("task completed", "story_id", state.storyID)
}

// runStepWithRetry runs one step, re-attempting retryable failures up to the
// retry budget with backoff. It returns the final error (nil on success) and
// its classification.
func (e *Executor) runStepWithRetry(
	ctx context.Context,
	task *domain.GenerationTask,
	state *pipelineState,
	step domain.TaskStep,
	owner string,
	logger *slog.Logger,
) (error, domain.ErrorKind) {
	policy := e.config.Retry

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := e.tasks.UpdateStep(ctx, task.ID, owner, step, attempt); err != nil {
			return err, domain.ErrorKindInternal
		}

		e.stageAttempts.Add(1)
		err := e.runStep(ctx, task, state, step)
		if err == nil {
			return nil, domain.ErrorKindNone
		}

		kind := generation.Classify(err)
		logger.Warn("step attempt failed",
			"step", step,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"kind", kind,
			"error", err)

		if kind != domain.ErrorKindTransient {
			return err, kind
		}

		if attempt == policy.MaxAttempts {
			return err, domain.ErrorKindTransient
		}

		if e.cancelled(ctx, task.ID) {
			return context.Canceled, domain.ErrorKindCancelled
		}

		if err := sleep(ctx, policy.Backoff(attempt)); err != nil {
			return err, domain.ErrorKindCancelled
		}
	}

	return fmt.Errorf("retry budget exhausted for step %s", step), domain.ErrorKindTransient
}

// runStep executes a single pipeline step against the shared state.
func (e *Executor) runStep(ctx context.Context, task *domain.GenerationTask, state *pipelineState, step domain.TaskStep) error {
	switch step {
	case domain.StepFetch:
		if e.news == nil || task.Topic.Source == domain.TopicSourceTrend {
			// Trend topics carry their own material; nothing to fetch.
			return nil
		}
		items, err := e.news.FetchNews(ctx, task.Topic.Keyword)
		if err != nil {
			return fmt.Errorf("fetch source material: %w", err)
		}
		state.material = items
		return nil

	case domain.StepAnalyze:
		state.brief = generation.AnalyzeContent(task.Topic, state.material, task.Options)
		return nil

	case domain.StepGenerateText:
		draft, err := e.text.Generate(ctx, state.brief)
		if err != nil {
			return err
		}
		state.draft = draft
		return nil

	case domain.StepGenerateImage:
		prompt, style := e.image.BuildPrompt(state.draft, task.Options.Style)
		ref, err := e.image.Generate(ctx, prompt, style, "")
		if err != nil {
			return err
		}
		state.imageRef = ref
		state.imagePrompt = prompt
		return nil

	case domain.StepPersist:
		artifact, err := domain.NewStoryArtifact(task.ID, state.draft.Title, state.draft.Body)
		if err != nil {
			return err
		}
		artifact.Summary = state.draft.Summary
		artifact.Category = state.draft.Category
		artifact.Tags = state.draft.Tags
		artifact.ImageRef = state.imageRef
		artifact.ImagePrompt = state.imagePrompt
		artifact.SourceURL = state.brief.SourceURL
		artifact.SourceType = task.Topic.Source

		storyID, err := e.stories.SaveStory(ctx, artifact)
		if err != nil {
			return fmt.Errorf("persist story: %w", err)
		}
		state.storyID = storyID
		return nil

	default:
		return fmt.Errorf("unknown pipeline step %q", step)
	}
}

// fail records the terminal failure with its normalized classification.
func (e *Executor) fail(ctx context.Context, taskID, owner string, kind domain.ErrorKind, message string, logger *slog.Logger) {
	if err := e.tasks.FailTask(ctx, taskID, owner, kind, message); err != nil {
		if errors.Is(err, store.ErrNotClaimOwner) {
			logger.Error("task claim invariant violated at failure", "error", err)
			return
		}
		logger.Error("failed to record task failure", "error", err)
		return
	}

	e.tasksFailed.Add(1)
	logger.Info("task failed", "kind", kind, "message", message)
}

// cancelled reads the cooperative cancellation flag. An in-flight provider
// call is allowed to finish; the next step is skipped once the flag is seen.
func (e *Executor) cancelled(ctx context.Context, taskID string) bool {
	task, err := e.tasks.GetTask(ctx, taskID)
	if err != nil {
		return false
	}
	return task.CancelRequested
}

// normalizedMessage is the only failure text that crosses into the status
// record; raw provider errors stay in the logs.
func normalizedMessage(step domain.TaskStep, kind domain.ErrorKind) string {
	switch kind {
	case domain.ErrorKindCancelled:
		return "cancelled by caller"
	case domain.ErrorKindPermanent:
		return fmt.Sprintf("step %s failed permanently", step)
	case domain.ErrorKindInternal:
		return fmt.Sprintf("internal error during step %s", step)
	default:
		return fmt.Sprintf("step %s failed after exhausting retries", step)
	}
}
