package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for StoryArtifact
var (
	ErrEmptyStoryTitle = errors.New("story title cannot be empty")
	ErrEmptyStoryBody  = errors.New("story body cannot be empty")
)

// StoryArtifact is the assembled output of a completed generation task:
// the generated text, the reference to the generated image, and the metadata
// describing where the topic came from. The task owns the artifact only until
// it is handed to the story store; afterwards the task retains just the
// returned story ID.
type StoryArtifact struct {
	ID          uuid.UUID   `json:"id"`
	TaskID      string      `json:"task_id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Summary     string      `json:"summary"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags,omitempty"`
	ImageRef    string      `json:"image_ref"`
	ImagePrompt string      `json:"image_prompt"`
	SourceURL   string      `json:"source_url,omitempty"`
	SourceType  TopicSource `json:"source_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewStoryArtifact creates a StoryArtifact with a fresh ID and creation
// timestamp. Returns an error if validation fails.
func NewStoryArtifact(taskID, title, body string) (*StoryArtifact, error) {
	artifact := &StoryArtifact{
		ID:        uuid.New(),
		TaskID:    taskID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	return artifact, nil
}

// Validate checks if the StoryArtifact has valid data.
func (s *StoryArtifact) Validate() error {
	if s.Title == "" {
		return ErrEmptyStoryTitle
	}

	if s.Body == "" {
		return ErrEmptyStoryBody
	}

	return nil
}
