// Package api holds the HTTP handlers for the task orchestration surface.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/storyforge-api/internal/api/shared"
	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/orchestrator"
)

// TaskHandler serves the task submission, status, and cancellation endpoints.
type TaskHandler struct {
	scheduler *orchestrator.Scheduler
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(scheduler *orchestrator.Scheduler, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		scheduler: scheduler,
		validator: validator.New(),
		logger:    logger.With("component", "task_handler"),
	}
}

// SubmitTaskRequest is the POST /api/tasks request body.
type SubmitTaskRequest struct {
	Source   string `json:"source" validate:"required,oneof=news trend manual"`
	Keyword  string `json:"keyword" validate:"required,min=1,max=500"`
	Title    string `json:"title,omitempty" validate:"max=500"`
	Summary  string `json:"summary,omitempty"`
	URL      string `json:"url,omitempty" validate:"omitempty,url"`
	Category string `json:"category,omitempty" validate:"max=100"`
	Priority int    `json:"priority,omitempty" validate:"gte=0,lte=10"`

	CustomPrompt   string `json:"custom_prompt,omitempty"`
	Style          string `json:"style,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
	NarrativeAngle string `json:"narrative_angle,omitempty"`

	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// SubmitTaskResponse is the POST /api/tasks response body.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// TaskStatusResponse is the GET /api/tasks/{id} response body.
type TaskStatusResponse struct {
	TaskID       string    `json:"task_id"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	CurrentStep  string    `json:"current_step,omitempty"`
	Keyword      string    `json:"keyword"`
	Source       string    `json:"source"`
	Priority     int       `json:"priority"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StoryID      string    `json:"story_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubmitTask handles POST /api/tasks. Accepted submissions return 202 with
// the task ID; the story is generated asynchronously.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	topic := domain.Topic{
		Source:       domain.TopicSource(req.Source),
		Keyword:      req.Keyword,
		Title:        req.Title,
		Summary:      req.Summary,
		URL:          req.URL,
		Category:     req.Category,
		DiscoveredAt: time.Now().UTC(),
	}

	opts := domain.StoryOptions{
		CustomPrompt:   req.CustomPrompt,
		Style:          req.Style,
		TargetAudience: req.TargetAudience,
		NarrativeAngle: req.NarrativeAngle,
	}

	// The Idempotency-Key header wins over the body field.
	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		idempotencyKey = req.IdempotencyKey
	}

	taskID, err := h.scheduler.Submit(r.Context(), topic, req.Priority, opts, idempotencyKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{
		TaskID: taskID,
		Status: string(domain.TaskStatusPending),
	})
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return
	}

	task, err := h.scheduler.GetTask(r.Context(), taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toStatusResponse(task))
}

// CancelTask handles POST /api/tasks/{id}/cancel.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return
	}

	if err := h.scheduler.Cancel(r.Context(), taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  "cancellation_requested",
	})
}

// toStatusResponse projects a task snapshot into the public status shape.
func toStatusResponse(task *domain.GenerationTask) TaskStatusResponse {
	resp := TaskStatusResponse{
		TaskID:       task.ID,
		Status:       string(task.Status),
		Progress:     task.Progress(),
		CurrentStep:  string(task.CurrentStep),
		Keyword:      task.Topic.Keyword,
		Source:       string(task.Topic.Source),
		Priority:     task.Priority,
		ErrorKind:    string(task.ErrorKind),
		ErrorMessage: task.ErrorMessage,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	if task.Status == domain.TaskStatusCompleted {
		resp.StoryID = task.StoryID.String()
	}

	return resp
}
