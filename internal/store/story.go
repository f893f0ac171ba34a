package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/storyforge-api/internal/domain"
)

// StoryStore persists assembled story artifacts. It is the persistence
// collaborator at the end of the pipeline: the executor hands over the
// artifact and keeps only the returned story ID on the task record.
type StoryStore interface {
	// SaveStory persists the artifact and returns its story ID.
	SaveStory(ctx context.Context, artifact *domain.StoryArtifact) (uuid.UUID, error)

	// GetStory retrieves a stored artifact by its story ID.
	// Returns ErrStoryNotFound if the story does not exist.
	GetStory(ctx context.Context, storyID uuid.UUID) (*domain.StoryArtifact, error)
}
