package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a generation task.
type TaskStatus string

// Possible task status values. The only legal transitions are
// Pending -> Processing -> Completed|Failed; Pending -> Failed is additionally
// allowed for cancellation before a worker ever claims the task.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskStep names one ordered stage of the generation pipeline. Steps are
// recorded on the task for observability and drive the progress percentage.
type TaskStep string

// Pipeline steps, in execution order.
const (
	StepFetch         TaskStep = "fetch"
	StepAnalyze       TaskStep = "analyze"
	StepGenerateText  TaskStep = "generate_text"
	StepGenerateImage TaskStep = "generate_image"
	StepPersist       TaskStep = "persist"
)

// PipelineSteps returns the ordered stage sequence.
func PipelineSteps() []TaskStep {
	return []TaskStep{StepFetch, StepAnalyze, StepGenerateText, StepGenerateImage, StepPersist}
}

// ErrorKind is the normalized failure classification recorded on a failed
// task. Raw provider errors never cross into the status record.
type ErrorKind string

// Possible error kind values
const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindPermanent ErrorKind = "permanent"
	ErrorKindCancelled ErrorKind = "cancelled"
	ErrorKindInternal  ErrorKind = "internal"
)

// GenerationTask is the tracked record for one end-to-end story generation
// request. It is created exclusively by the scheduler and mutated exclusively
// by the executor through the task store's atomic claim-and-transition
// operations. Once Status is terminal the record is immutable.
type GenerationTask struct {
	ID              string             `json:"id"`
	Topic           Topic              `json:"topic"`
	Options         StoryOptions       `json:"options,omitempty"`
	Status          TaskStatus         `json:"status"`
	Priority        int                `json:"priority"`
	CurrentStep     TaskStep           `json:"current_step,omitempty"`
	Attempts        map[TaskStep]int   `json:"attempts,omitempty"`
	ErrorMessage    string             `json:"error_message,omitempty"`
	ErrorKind       ErrorKind          `json:"error_kind,omitempty"`
	StoryID         uuid.UUID          `json:"story_id,omitempty"`
	Owner           string             `json:"-"`
	CancelRequested bool               `json:"-"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// IsTerminal reports whether the task has reached a final state.
func (t *GenerationTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// stepProgress maps each recorded step to the percentage shown to callers
// while the task is processing.
var stepProgress = map[TaskStep]int{
	StepFetch:         10,
	StepAnalyze:       25,
	StepGenerateText:  45,
	StepGenerateImage: 70,
	StepPersist:       90,
}

// Progress returns the task's completion percentage in [0, 100].
func (t *GenerationTask) Progress() int {
	switch t.Status {
	case TaskStatusCompleted:
		return 100
	case TaskStatusPending:
		return 0
	case TaskStatusFailed:
		if p, ok := stepProgress[t.CurrentStep]; ok {
			return p
		}
		return 0
	default:
		if p, ok := stepProgress[t.CurrentStep]; ok {
			return p
		}
		return 5
	}
}

// Clone returns a deep copy of the task so callers can hand out snapshots
// without exposing the store's live record.
func (t *GenerationTask) Clone() *GenerationTask {
	copied := *t
	if t.Attempts != nil {
		copied.Attempts = make(map[TaskStep]int, len(t.Attempts))
		for step, n := range t.Attempts {
			copied.Attempts[step] = n
		}
	}
	return &copied
}
