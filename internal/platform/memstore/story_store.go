package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// Ensure StoryStore implements store.StoryStore interface
var _ store.StoryStore = (*StoryStore)(nil)

// StoryStore is an in-memory store.StoryStore. It backs tests and
// database-less runs; production wiring uses the Postgres implementation.
type StoryStore struct {
	mu      sync.RWMutex
	stories map[uuid.UUID]*domain.StoryArtifact
}

// NewStoryStore creates an empty in-memory story store.
func NewStoryStore() *StoryStore {
	return &StoryStore{
		stories: make(map[uuid.UUID]*domain.StoryArtifact),
	}
}

// SaveStory persists the artifact and returns its story ID.
func (s *StoryStore) SaveStory(ctx context.Context, artifact *domain.StoryArtifact) (uuid.UUID, error) {
	if err := artifact.Validate(); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *artifact
	s.stories[artifact.ID] = &copied

	return artifact.ID, nil
}

// GetStory returns the stored artifact, or store.ErrStoryNotFound if unknown.
func (s *StoryStore) GetStory(ctx context.Context, storyID uuid.UUID) (*domain.StoryArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.stories[storyID]
	if !ok {
		return nil, store.ErrStoryNotFound
	}

	copied := *artifact
	return &copied, nil
}
