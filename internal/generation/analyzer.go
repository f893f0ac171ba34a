package generation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

// ContentBrief is the analyze step's output: the distilled source material
// and framing that the text and image stages build their prompts from.
type ContentBrief struct {
	Topic          domain.Topic
	Category       string
	Angle          string
	TargetAudience string
	CustomPrompt   string
	Style          string
	KeyPoints      []string
	SourceMaterial string
	SourceURL      string
}

// categoryKeywords drives the lightweight category inference used when the
// topic arrives without one.
var categoryKeywords = map[string][]string{
	"technology":    {"technology", "tech", "ai", "artificial intelligence", "software", "robot", "chip", "startup"},
	"science":       {"science", "research", "discovery", "space", "climate", "physics", "biology", "health"},
	"business":      {"business", "market", "economy", "stock", "company", "trade", "finance"},
	"entertainment": {"entertainment", "film", "movie", "music", "game", "celebrity"},
	"sports":        {"sport", "match", "league", "tournament", "championship"},
}

// AnalyzeContent condenses the topic and any fetched source material into a
// ContentBrief. It scores articles for relevance, keeps the strongest ones as
// key points, and infers a category when the topic has none.
func AnalyzeContent(topic domain.Topic, items []domain.NewsItem, opts domain.StoryOptions) ContentBrief {
	brief := ContentBrief{
		Topic:          topic,
		Category:       topic.Category,
		Angle:          opts.NarrativeAngle,
		TargetAudience: opts.TargetAudience,
		CustomPrompt:   opts.CustomPrompt,
		Style:          opts.Style,
		SourceURL:      topic.URL,
	}

	if brief.Angle == "" {
		brief.Angle = "human_impact"
	}
	if brief.TargetAudience == "" {
		brief.TargetAudience = "general"
	}

	ranked := rankBySourceRelevance(topic.Keyword, items)
	for i, item := range ranked {
		if i >= 3 {
			break
		}
		point := item.Title
		if item.Summary != "" {
			point = fmt.Sprintf("%s — %s", item.Title, item.Summary)
		}
		brief.KeyPoints = append(brief.KeyPoints, point)
		if brief.SourceURL == "" {
			brief.SourceURL = item.URL
		}
	}

	if topic.Summary != "" {
		brief.SourceMaterial = topic.Summary
	} else if len(ranked) > 0 {
		brief.SourceMaterial = ranked[0].Summary
	}

	if brief.Category == "" {
		brief.Category = inferCategory(topic.Keyword + " " + brief.SourceMaterial)
	}

	return brief
}

// rankBySourceRelevance orders articles by how strongly they match the topic
// keyword, preferring substantial titles over headline stubs.
func rankBySourceRelevance(keyword string, items []domain.NewsItem) []domain.NewsItem {
	type scored struct {
		item  domain.NewsItem
		score int
	}

	keyword = strings.ToLower(keyword)
	terms := strings.Fields(keyword)

	candidates := make([]scored, 0, len(items))
	for _, item := range items {
		if len(item.Title) < 20 {
			continue
		}

		haystack := strings.ToLower(item.Title + " " + item.Summary)
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if item.Summary != "" {
			score++
		}

		candidates = append(candidates, scored{item: item, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	ranked := make([]domain.NewsItem, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.item
	}
	return ranked
}

// inferCategory picks the category whose keyword list matches the text best,
// defaulting to "general".
func inferCategory(text string) string {
	text = strings.ToLower(text)

	best := "general"
	bestScore := 0
	names := make([]string, 0, len(categoryKeywords))
	for name := range categoryKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0
		for _, kw := range categoryKeywords[name] {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best = name
			bestScore = score
		}
	}

	return best
}
