package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/storyforge-api/internal/api/shared"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// StoryHandler serves the story retrieval endpoint.
type StoryHandler struct {
	stories store.StoryStore
	logger  *slog.Logger
}

// NewStoryHandler creates a StoryHandler.
func NewStoryHandler(stories store.StoryStore, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{
		stories: stories,
		logger:  logger.With("component", "story_handler"),
	}
}

// GetStory handles GET /api/stories/{id}. The story ID comes from a completed
// task's status record.
func (h *StoryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid story ID format")
		return
	}

	artifact, err := h.stories.GetStory(r.Context(), storyID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, artifact)
}
