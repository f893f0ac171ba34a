package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

const (
	defaultGNewsBaseURL = "https://gnews.io/api/v4"
	defaultGNewsQuery   = "technology OR science OR world news"
	gnewsMaxArticles    = 10
)

// GNewsConfig holds the GNews client's settings.
type GNewsConfig struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
}

// GNewsClient is a NewsSource backed by the GNews search API.
type GNewsClient struct {
	config GNewsConfig
	client *http.Client
}

// NewGNewsClient creates a GNewsClient.
func NewGNewsClient(config GNewsConfig) (*GNewsClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gnews api key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultGNewsBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &GNewsClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Name identifies the source in logs.
func (c *GNewsClient) Name() string { return "gnews" }

// gnewsResponse mirrors the API's search response shape.
type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	URL         string      `json:"url"`
	PublishedAt time.Time   `json:"publishedAt"`
	Source      gnewsSource `json:"source"`
}

type gnewsSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FetchNews returns article candidates matching the query, newest first.
func (c *GNewsClient) FetchNews(ctx context.Context, query string) ([]domain.NewsItem, error) {
	if query == "" {
		query = defaultGNewsQuery
	}

	params := url.Values{}
	params.Set("apikey", c.config.APIKey)
	params.Set("q", query)
	params.Set("lang", "en")
	params.Set("max", fmt.Sprintf("%d", gnewsMaxArticles))
	params.Set("sortby", "publishedAt")

	endpoint := c.config.BaseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gnews returned %s", ErrSourceUnavailable, resp.Status)
	}

	var decoded gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Articles) == 0 {
		return nil, ErrNoContent
	}

	items := make([]domain.NewsItem, 0, len(decoded.Articles))
	for _, article := range decoded.Articles {
		if article.Title == "" || article.URL == "" {
			continue
		}

		summary := article.Description
		if summary == "" {
			summary = article.Content
		}

		items = append(items, domain.NewsItem{
			Title:       article.Title,
			Summary:     summary,
			URL:         article.URL,
			Source:      article.Source.Name,
			PublishedAt: article.PublishedAt,
		})
	}

	if len(items) == 0 {
		return nil, ErrNoContent
	}

	return items, nil
}
