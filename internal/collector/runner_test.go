package collector

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/events"
)

type fakeTrendSource struct {
	items []domain.TrendItem
	err   error
}

func (f *fakeTrendSource) Name() string { return "fake_trends" }

func (f *fakeTrendSource) FetchTrends(ctx context.Context) ([]domain.TrendItem, error) {
	return f.items, f.err
}

type fakeNewsSource struct {
	items []domain.NewsItem
	err   error
}

func (f *fakeNewsSource) Name() string { return "fake_news" }

func (f *fakeNewsSource) FetchNews(ctx context.Context, query string) ([]domain.NewsItem, error) {
	return f.items, f.err
}

// recordingHandler captures every topic the runner emits.
type recordingHandler struct {
	mu     sync.Mutex
	topics []domain.Topic
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *events.TopicEvent) error {
	var topic domain.Topic
	if err := event.UnmarshalPayload(&topic); err != nil {
		return err
	}

	h.mu.Lock()
	h.topics = append(h.topics, topic)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) collected() []domain.Topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Topic(nil), h.topics...)
}

func newRunnerFixture(news []NewsSource, trends []TrendSource, config RunnerConfig) (*Runner, *recordingHandler) {
	logger := slog.Default()

	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(handler)

	normalizer := NewNormalizer(NormalizerConfig{MinVolume: 100})
	return NewRunner(news, trends, normalizer, emitter, config, logger), handler
}

func TestRunnerEmitsDiscoveredTopics(t *testing.T) {
	trends := &fakeTrendSource{items: []domain.TrendItem{
		{Keyword: "battery breakthrough", Volume: 5000, Category: "technology"},
	}}
	news := &fakeNewsSource{items: []domain.NewsItem{
		{Title: "Reef recovery surprises scientists", URL: "https://example.com/reef"},
	}}

	runner, handler := newRunnerFixture([]NewsSource{news}, []TrendSource{trends}, RunnerConfig{})
	runner.RunCycle(context.Background())

	topics := handler.collected()
	require.Len(t, topics, 2)
	assert.Equal(t, domain.TopicSourceTrend, topics[0].Source)
	assert.Equal(t, "battery breakthrough", topics[0].Keyword)
	assert.Equal(t, domain.TopicSourceNews, topics[1].Source)
}

func TestRunnerIsolatesSourceFailures(t *testing.T) {
	broken := &fakeTrendSource{err: ErrSourceUnavailable}
	working := &fakeNewsSource{items: []domain.NewsItem{
		{Title: "Reef recovery surprises scientists", URL: "https://example.com/reef"},
	}}

	runner, handler := newRunnerFixture([]NewsSource{working}, []TrendSource{broken}, RunnerConfig{})
	runner.RunCycle(context.Background())

	topics := handler.collected()
	require.Len(t, topics, 1, "a failing source must not block the others")
	assert.Equal(t, "Reef recovery surprises scientists", topics[0].Keyword)
}

func TestRunnerCapsTopicsPerCycle(t *testing.T) {
	trends := &fakeTrendSource{items: []domain.TrendItem{
		{Keyword: "one", Volume: 9000},
		{Keyword: "two", Volume: 8000},
		{Keyword: "three", Volume: 7000},
		{Keyword: "four", Volume: 6000},
	}}

	runner, handler := newRunnerFixture(nil, []TrendSource{trends}, RunnerConfig{MaxTopicsPerCycle: 2})
	runner.RunCycle(context.Background())

	topics := handler.collected()
	require.Len(t, topics, 2)
	assert.Equal(t, "one", topics[0].Keyword)
	assert.Equal(t, "two", topics[1].Keyword)
}

func TestRunnerStartStop(t *testing.T) {
	trends := &fakeTrendSource{items: []domain.TrendItem{
		{Keyword: "battery breakthrough", Volume: 5000},
	}}

	runner, handler := newRunnerFixture(nil, []TrendSource{trends}, RunnerConfig{})

	runner.Start(context.Background())
	runner.Stop()

	// The first cycle runs immediately on Start.
	assert.NotEmpty(t, handler.collected())
}
