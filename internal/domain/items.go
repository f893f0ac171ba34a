package domain

import "time"

// NewsItem is a raw article candidate pulled from a reactive news source.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// TrendItem is a raw trending-topic candidate pulled from a proactive trend
// source.
type TrendItem struct {
	Keyword  string    `json:"keyword"`
	Volume   int       `json:"volume"`
	Growth   float64   `json:"growth,omitempty"`
	Region   string    `json:"region,omitempty"`
	Category string    `json:"category,omitempty"`
	SeenAt   time.Time `json:"seen_at"`
}
