package collector

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

// preferredCategories get a scoring boost when ranking trends.
var preferredCategories = map[string]bool{
	"technology": true,
	"science":    true,
	"business":   true,
}

const preferredCategoryMultiplier = 1.5

// NormalizerConfig holds the normalizer's tuning values.
type NormalizerConfig struct {
	// MinVolume drops trend candidates below this search volume. Defaults
	// to 1000.
	MinVolume int

	// DedupWindow is the timeframe bucket inside which repeated sightings
	// of a keyword collapse to one topic. Defaults to 1 hour.
	DedupWindow time.Duration
}

// seenKey identifies one keyword inside one timeframe bucket.
type seenKey struct {
	keyword string
	bucket  int64
}

// Normalizer converts raw source items into canonical topics: it filters out
// low-signal candidates, collapses repeated sightings of the same keyword
// within the dedup window, and ranks trends so the strongest candidates come
// first. A fresher sighting of a keyword in a later window produces a new
// Topic; the earlier one is never mutated.
type Normalizer struct {
	config NormalizerConfig

	mu   sync.Mutex
	seen map[seenKey]struct{}

	// now is a hook for tests; defaults to time.Now.
	now func() time.Time
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(config NormalizerConfig) *Normalizer {
	if config.MinVolume <= 0 {
		config.MinVolume = 1000
	}
	if config.DedupWindow <= 0 {
		config.DedupWindow = time.Hour
	}

	return &Normalizer{
		config: config,
		seen:   make(map[seenKey]struct{}),
		now:    time.Now,
	}
}

// NormalizeTrends filters, deduplicates, and ranks trend candidates, returning
// topics strongest first.
func (n *Normalizer) NormalizeTrends(items []domain.TrendItem) []domain.Topic {
	type scored struct {
		topic domain.Topic
		score float64
	}

	var candidates []scored
	for _, item := range items {
		keyword := strings.TrimSpace(item.Keyword)
		if keyword == "" || item.Volume < n.config.MinVolume {
			continue
		}

		if !n.admit(keyword) {
			continue
		}

		score := float64(item.Volume)
		if preferredCategories[item.Category] {
			score *= preferredCategoryMultiplier
		}

		candidates = append(candidates, scored{
			topic: domain.Topic{
				Source:       domain.TopicSourceTrend,
				Keyword:      keyword,
				Category:     item.Category,
				Volume:       item.Volume,
				Growth:       item.Growth,
				Region:       item.Region,
				DiscoveredAt: n.now().UTC(),
			},
			score: score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	topics := make([]domain.Topic, len(candidates))
	for i, c := range candidates {
		topics[i] = c.topic
	}

	return topics
}

// NormalizeNews converts article candidates into topics, deduplicating on the
// article title within the window.
func (n *Normalizer) NormalizeNews(items []domain.NewsItem) []domain.Topic {
	var topics []domain.Topic
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.URL == "" {
			continue
		}

		if !n.admit(title) {
			continue
		}

		topics = append(topics, domain.Topic{
			Source:       domain.TopicSourceNews,
			Keyword:      title,
			Title:        title,
			Summary:      item.Summary,
			URL:          item.URL,
			DiscoveredAt: n.now().UTC(),
		})
	}

	return topics
}

// admit records a keyword sighting and reports whether it is the first one in
// the current timeframe bucket.
func (n *Normalizer) admit(keyword string) bool {
	key := seenKey{
		keyword: strings.ToLower(keyword),
		bucket:  n.now().UnixNano() / int64(n.config.DedupWindow),
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.seen[key]; ok {
		return false
	}

	n.seen[key] = struct{}{}
	n.pruneLocked(key.bucket)
	return true
}

// pruneLocked drops sightings from earlier buckets. Callers must hold n.mu.
func (n *Normalizer) pruneLocked(currentBucket int64) {
	for key := range n.seen {
		if key.bucket < currentBucket {
			delete(n.seen, key)
		}
	}
}
