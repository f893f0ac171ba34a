package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/platform/memstore"
)

func newStoryRouter(t *testing.T) (*chi.Mux, *memstore.StoryStore) {
	t.Helper()

	stories := memstore.NewStoryStore()
	handler := NewStoryHandler(stories, slog.Default())

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Get("/api/stories/{id}", handler.GetStory)

	return router, stories
}

func TestGetStory(t *testing.T) {
	router, stories := newStoryRouter(t)

	artifact, err := domain.NewStoryArtifact("tsk_1", "Vents of the Deep", "story body text")
	require.NoError(t, err)
	artifact.Summary = "strange life at hydrothermal vents"
	artifact.Category = "science"
	artifact.ImageRef = "artifacts/img_a.png"
	artifact.SourceType = domain.TopicSourceManual

	storyID, err := stories.SaveStory(context.Background(), artifact)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/"+storyID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.StoryArtifact
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, storyID, got.ID)
	assert.Equal(t, "Vents of the Deep", got.Title)
	assert.Equal(t, "story body text", got.Body)
	assert.Equal(t, "artifacts/img_a.png", got.ImageRef)
}

func TestGetStoryNotFound(t *testing.T) {
	router, _ := newStoryRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStoryInvalidID(t *testing.T) {
	router, _ := newStoryRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
