package collector

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

const (
	defaultTrendsURL  = "https://trends.google.com/trends/trendingsearches/daily"
	maxTrendsPerFetch = 10
)

var volumeExpr = regexp.MustCompile(`\d+`)

// TrendPageConfig holds the trend scraper's settings.
type TrendPageConfig struct {
	// URL is the trending-searches page to scrape. Defaults to the Google
	// Trends daily feed.
	URL string

	// Region narrows the feed to a geographic region code.
	Region string

	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
}

// TrendPageScraper is a TrendSource that extracts trending keywords and their
// search volumes from a trending-searches HTML page.
type TrendPageScraper struct {
	config TrendPageConfig
	client *http.Client

	// now is a hook for tests; defaults to time.Now.
	now func() time.Time
}

// NewTrendPageScraper creates a TrendPageScraper.
func NewTrendPageScraper(config TrendPageConfig) *TrendPageScraper {
	if config.URL == "" {
		config.URL = defaultTrendsURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &TrendPageScraper{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		now:    time.Now,
	}
}

// Name identifies the source in logs.
func (s *TrendPageScraper) Name() string { return "trend_page" }

// FetchTrends scrapes the configured page and returns trending candidates.
func (s *TrendPageScraper) FetchTrends(ctx context.Context) ([]domain.TrendItem, error) {
	doc, err := s.fetchDocument(ctx, s.config.URL)
	if err != nil {
		return nil, err
	}

	seenAt := s.now().UTC()

	var items []domain.TrendItem
	doc.Find(".feed-item").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(items) >= maxTrendsPerFetch {
			return false
		}

		keyword := strings.TrimSpace(sel.Find(".title").First().Text())
		if keyword == "" {
			return true
		}

		items = append(items, domain.TrendItem{
			Keyword:  keyword,
			Volume:   parseVolume(sel.Find(".search-count").First().Text()),
			Category: strings.ToLower(strings.TrimSpace(sel.Find(".category").First().Text())),
			Region:   s.config.Region,
			SeenAt:   seenAt,
		})

		return true
	})

	if len(items) == 0 {
		return nil, ErrNoContent
	}

	return items, nil
}

func (s *TrendPageScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "storyforge/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: trend page returned %s", ErrSourceUnavailable, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// parseVolume extracts the leading number from a search-count label like
// "200K+ searches". Suffix multipliers K and M are applied.
func parseVolume(text string) int {
	match := volumeExpr.FindString(text)
	if match == "" {
		return 0
	}

	volume, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}

	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "M"):
		volume *= 1_000_000
	case strings.Contains(upper, "K"):
		volume *= 1_000
	}

	return volume
}
