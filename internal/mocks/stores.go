package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// MockStoryStore implements store.StoryStore for testing
type MockStoryStore struct {
	// Custom behavior functions
	SaveStoryFn func(ctx context.Context, artifact *domain.StoryArtifact) (uuid.UUID, error)
	GetStoryFn  func(ctx context.Context, storyID uuid.UUID) (*domain.StoryArtifact, error)

	// Default error value; a nil error saves the artifact and returns its ID
	Err error

	// Call tracking for verification
	mu    sync.Mutex
	Count int
	Saved []*domain.StoryArtifact
}

// SaveStory implements the store.StoryStore interface
func (m *MockStoryStore) SaveStory(ctx context.Context, artifact *domain.StoryArtifact) (uuid.UUID, error) {
	m.mu.Lock()
	m.Count++
	m.Saved = append(m.Saved, artifact)
	m.mu.Unlock()

	if m.SaveStoryFn != nil {
		return m.SaveStoryFn(ctx, artifact)
	}

	if m.Err != nil {
		return uuid.Nil, m.Err
	}

	return artifact.ID, nil
}

// GetStory implements the store.StoryStore interface. Without a custom
// function it looks the story up among previously saved artifacts.
func (m *MockStoryStore) GetStory(ctx context.Context, storyID uuid.UUID) (*domain.StoryArtifact, error) {
	if m.GetStoryFn != nil {
		return m.GetStoryFn(ctx, storyID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, artifact := range m.Saved {
		if artifact.ID == storyID {
			return artifact, nil
		}
	}
	return nil, store.ErrStoryNotFound
}

// Calls returns how many times SaveStory has been invoked.
func (m *MockStoryStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Count
}

// LastSaved returns the most recently saved artifact, or nil.
func (m *MockStoryStore) LastSaved() *domain.StoryArtifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Saved) == 0 {
		return nil
	}
	return m.Saved[len(m.Saved)-1]
}

// MockNewsFetcher implements orchestrator.NewsFetcher for testing
type MockNewsFetcher struct {
	// Custom behavior function
	FetchNewsFn func(ctx context.Context, query string) ([]domain.NewsItem, error)

	// Default response values
	Items []domain.NewsItem
	Err   error

	// Call tracking for verification
	mu      sync.Mutex
	Count   int
	Queries []string
}

// FetchNews implements the orchestrator.NewsFetcher interface
func (m *MockNewsFetcher) FetchNews(ctx context.Context, query string) ([]domain.NewsItem, error) {
	m.mu.Lock()
	m.Count++
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.FetchNewsFn != nil {
		return m.FetchNewsFn(ctx, query)
	}

	return m.Items, m.Err
}
