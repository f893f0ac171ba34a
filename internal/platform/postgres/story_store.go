// Package postgres provides PostgreSQL-backed store implementations using
// the database/sql interface over the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/platform/logger"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// PostgreSQL error codes
const pgUniqueViolationCode = "23505"

// PostgresStoryStore implements the store.StoryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStoryStore creates a new PostgreSQL implementation of the
// StoryStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresStoryStore(db store.DBTX, logger *slog.Logger) *PostgresStoryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "story_store")),
	}
}

// Ensure PostgresStoryStore implements store.StoryStore interface
var _ store.StoryStore = (*PostgresStoryStore)(nil)

// SaveStory implements store.StoryStore.SaveStory.
// It persists the assembled artifact and returns its story ID.
func (s *PostgresStoryStore) SaveStory(ctx context.Context, artifact *domain.StoryArtifact) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := artifact.Validate(); err != nil {
		log.Warn("story validation failed during save",
			slog.String("error", err.Error()),
			slog.String("task_id", artifact.TaskID))
		return uuid.Nil, err
	}

	query := `
		INSERT INTO stories (id, task_id, title, body, summary, category, tags,
			image_ref, image_prompt, source_url, source_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		artifact.ID,
		artifact.TaskID,
		artifact.Title,
		artifact.Body,
		artifact.Summary,
		artifact.Category,
		strings.Join(artifact.Tags, ","),
		artifact.ImageRef,
		artifact.ImagePrompt,
		artifact.SourceURL,
		string(artifact.SourceType),
		artifact.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Warn("duplicate story id during save",
				slog.String("story_id", artifact.ID.String()),
				slog.String("task_id", artifact.TaskID))
			return uuid.Nil, fmt.Errorf("story %s already exists", artifact.ID)
		}

		log.Error("failed to save story",
			slog.String("error", err.Error()),
			slog.String("story_id", artifact.ID.String()),
			slog.String("task_id", artifact.TaskID))
		return uuid.Nil, err
	}

	log.Info("story saved successfully",
		slog.String("story_id", artifact.ID.String()),
		slog.String("task_id", artifact.TaskID),
		slog.String("category", artifact.Category))
	return artifact.ID, nil
}

// GetStory retrieves a stored artifact by its story ID.
// Returns store.ErrStoryNotFound if the story does not exist.
func (s *PostgresStoryStore) GetStory(ctx context.Context, id uuid.UUID) (*domain.StoryArtifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, title, body, summary, category, tags,
			image_ref, image_prompt, source_url, source_type, created_at
		FROM stories
		WHERE id = $1
	`

	var artifact domain.StoryArtifact
	var tags string
	var sourceType string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&artifact.ID,
		&artifact.TaskID,
		&artifact.Title,
		&artifact.Body,
		&artifact.Summary,
		&artifact.Category,
		&tags,
		&artifact.ImageRef,
		&artifact.ImagePrompt,
		&artifact.SourceURL,
		&sourceType,
		&artifact.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("story not found", slog.String("story_id", id.String()))
			return nil, store.ErrStoryNotFound
		}
		log.Error("failed to get story by ID",
			slog.String("error", err.Error()),
			slog.String("story_id", id.String()))
		return nil, err
	}

	if tags != "" {
		artifact.Tags = strings.Split(tags, ",")
	}
	artifact.SourceType = domain.TopicSource(sourceType)

	return &artifact, nil
}
