package collector

import (
	"context"
	"errors"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

// Common collector errors.
var (
	// ErrNoContent indicates a source responded successfully but had
	// nothing usable.
	ErrNoContent = errors.New("source returned no usable content")

	// ErrSourceUnavailable indicates a source could not be reached or
	// returned a failure status.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// NewsSource fetches article candidates from an external news feed.
type NewsSource interface {
	// Name identifies the source in logs.
	Name() string

	// FetchNews returns article candidates matching the query. An empty
	// query asks for the source's general headline feed.
	FetchNews(ctx context.Context, query string) ([]domain.NewsItem, error)
}

// TrendSource scrapes trending-topic candidates from an external surface.
type TrendSource interface {
	// Name identifies the source in logs.
	Name() string

	// FetchTrends returns current trending candidates.
	FetchTrends(ctx context.Context) ([]domain.TrendItem, error)
}
