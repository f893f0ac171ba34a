package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

func TestNormalizerVolumeFloor(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{MinVolume: 1000})

	topics := n.NormalizeTrends([]domain.TrendItem{
		{Keyword: "quiet topic", Volume: 500},
		{Keyword: "loud topic", Volume: 5000},
	})

	require.Len(t, topics, 1)
	assert.Equal(t, "loud topic", topics[0].Keyword)
	assert.Equal(t, domain.TopicSourceTrend, topics[0].Source)
}

func TestNormalizerDropsBlankKeywords(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})

	topics := n.NormalizeTrends([]domain.TrendItem{
		{Keyword: "   ", Volume: 5000},
		{Keyword: "", Volume: 5000},
	})

	assert.Empty(t, topics)
}

func TestNormalizerDedupWithinWindow(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{DedupWindow: time.Hour})
	fixed := time.Now()
	n.now = func() time.Time { return fixed }

	first := n.NormalizeTrends([]domain.TrendItem{{Keyword: "solar storm", Volume: 5000}})
	require.Len(t, first, 1)

	// Same keyword inside the window collapses, case-insensitively.
	second := n.NormalizeTrends([]domain.TrendItem{{Keyword: "Solar Storm", Volume: 8000}})
	assert.Empty(t, second)
}

func TestNormalizerDedupWindowAdvances(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{DedupWindow: time.Hour})

	current := time.Now()
	n.now = func() time.Time { return current }

	first := n.NormalizeTrends([]domain.TrendItem{{Keyword: "solar storm", Volume: 5000}})
	require.Len(t, first, 1)

	// A later timeframe bucket admits the keyword again as a fresh topic.
	current = current.Add(2 * time.Hour)
	second := n.NormalizeTrends([]domain.TrendItem{{Keyword: "solar storm", Volume: 6000}})
	require.Len(t, second, 1)
	assert.Equal(t, 6000, second[0].Volume)
}

func TestNormalizerRanksPreferredCategoriesFirst(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})

	// 4000 * 1.5 = 6000 outranks a plain 5000.
	topics := n.NormalizeTrends([]domain.TrendItem{
		{Keyword: "celebrity feud", Volume: 5000, Category: "entertainment"},
		{Keyword: "battery breakthrough", Volume: 4000, Category: "technology"},
	})

	require.Len(t, topics, 2)
	assert.Equal(t, "battery breakthrough", topics[0].Keyword)
	assert.Equal(t, "celebrity feud", topics[1].Keyword)
}

func TestNormalizerNews(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})

	topics := n.NormalizeNews([]domain.NewsItem{
		{Title: "Reef recovery surprises scientists", Summary: "coral regrowth", URL: "https://example.com/reef"},
		{Title: "", URL: "https://example.com/blank"},
		{Title: "No link article"},
	})

	require.Len(t, topics, 1)
	assert.Equal(t, domain.TopicSourceNews, topics[0].Source)
	assert.Equal(t, "Reef recovery surprises scientists", topics[0].Keyword)
	assert.Equal(t, "coral regrowth", topics[0].Summary)
	assert.Equal(t, "https://example.com/reef", topics[0].URL)
}

func TestNormalizerNewsDedupOnTitle(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{DedupWindow: time.Hour})

	first := n.NormalizeNews([]domain.NewsItem{
		{Title: "Reef recovery surprises scientists", URL: "https://example.com/a"},
	})
	require.Len(t, first, 1)

	second := n.NormalizeNews([]domain.NewsItem{
		{Title: "Reef recovery surprises scientists", URL: "https://example.com/b"},
	})
	assert.Empty(t, second)
}
