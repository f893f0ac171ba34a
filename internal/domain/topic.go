package domain

import (
	"errors"
	"strings"
	"time"
)

// TopicSource identifies where a candidate topic was discovered.
type TopicSource string

// Possible topic source values
const (
	TopicSourceNews   TopicSource = "news"
	TopicSourceTrend  TopicSource = "trend"
	TopicSourceManual TopicSource = "manual"
)

// Common validation errors for Topic
var (
	ErrEmptyTopicKeyword  = errors.New("topic keyword cannot be empty")
	ErrInvalidTopicSource = errors.New("invalid topic source")
)

// Topic is a canonical candidate subject for story generation. It is produced
// by the collector normalizer (or built directly from a manual submission) and
// is immutable once created; a fresher scrape of the same keyword supersedes
// the older Topic rather than mutating it.
type Topic struct {
	Source       TopicSource `json:"source"`
	Keyword      string      `json:"keyword"`
	Title        string      `json:"title,omitempty"`
	Summary      string      `json:"summary,omitempty"`
	URL          string      `json:"url,omitempty"`
	Category     string      `json:"category,omitempty"`
	Volume       int         `json:"volume,omitempty"`
	Growth       float64     `json:"growth,omitempty"`
	Region       string      `json:"region,omitempty"`
	DiscoveredAt time.Time   `json:"discovered_at"`
}

// NewTopic creates a Topic with the given source and keyword and stamps the
// discovery time. Returns an error if validation fails.
func NewTopic(source TopicSource, keyword string) (Topic, error) {
	t := Topic{
		Source:       source,
		Keyword:      strings.TrimSpace(keyword),
		DiscoveredAt: time.Now().UTC(),
	}

	if err := t.Validate(); err != nil {
		return Topic{}, err
	}

	return t, nil
}

// Validate checks that the Topic carries the fields every downstream stage
// depends on.
func (t Topic) Validate() error {
	if strings.TrimSpace(t.Keyword) == "" {
		return ErrEmptyTopicKeyword
	}

	if !isValidTopicSource(t.Source) {
		return ErrInvalidTopicSource
	}

	return nil
}

// isValidTopicSource checks if the given source is a valid TopicSource.
func isValidTopicSource(source TopicSource) bool {
	switch source {
	case TopicSourceNews, TopicSourceTrend, TopicSourceManual:
		return true
	default:
		return false
	}
}
