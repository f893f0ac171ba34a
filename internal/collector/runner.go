package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/events"
)

// RunnerConfig holds the collection loop's settings.
type RunnerConfig struct {
	// Interval is the pause between collection cycles. Defaults to 30
	// minutes.
	Interval time.Duration

	// MaxTopicsPerCycle bounds how many topics one cycle emits. Defaults
	// to 5.
	MaxTopicsPerCycle int
}

// Runner periodically polls the configured sources, normalizes what they
// return, and emits a topic-discovered event per surviving candidate. One
// failing source never stops the others; its error is logged and the cycle
// continues.
type Runner struct {
	news       []NewsSource
	trends     []TrendSource
	normalizer *Normalizer
	emitter    events.EventEmitter
	config     RunnerConfig
	logger     *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRunner creates a Runner over the given sources.
func NewRunner(
	news []NewsSource,
	trends []TrendSource,
	normalizer *Normalizer,
	emitter events.EventEmitter,
	config RunnerConfig,
	logger *slog.Logger,
) *Runner {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Minute
	}
	if config.MaxTopicsPerCycle <= 0 {
		config.MaxTopicsPerCycle = 5
	}

	return &Runner{
		news:       news,
		trends:     trends,
		normalizer: normalizer,
		emitter:    emitter,
		config:     config,
		logger:     logger.With("component", "collector_runner"),
	}
}

// Start launches the periodic collection loop. The first cycle runs
// immediately.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.config.Interval)
		defer ticker.Stop()

		r.RunCycle(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunCycle(ctx)
			}
		}
	}()

	r.logger.Info("collector started",
		"interval", r.config.Interval,
		"news_sources", len(r.news),
		"trend_sources", len(r.trends))
}

// Stop halts the loop and waits for an in-flight cycle to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("collector stopped")
}

// RunCycle performs one collection pass across all sources.
func (r *Runner) RunCycle(ctx context.Context) {
	topics := append(r.collectTrends(ctx), r.collectNews(ctx)...)

	if len(topics) > r.config.MaxTopicsPerCycle {
		topics = topics[:r.config.MaxTopicsPerCycle]
	}

	emitted := 0
	for _, topic := range topics {
		if ctx.Err() != nil {
			return
		}

		event, err := events.NewTopicEvent(events.TypeTopicDiscovered, topic)
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to build topic event",
				"keyword", topic.Keyword, "error", err)
			continue
		}

		if err := r.emitter.EmitEvent(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "topic event not fully handled",
				"keyword", topic.Keyword, "error", err)
			continue
		}
		emitted++
	}

	r.logger.InfoContext(ctx, "collection cycle finished",
		"candidates", len(topics),
		"emitted", emitted)
}

// collectTrends polls every trend source, isolating failures.
func (r *Runner) collectTrends(ctx context.Context) []domain.Topic {
	var items []domain.TrendItem
	for _, source := range r.trends {
		fetched, err := source.FetchTrends(ctx)
		if err != nil {
			r.logger.WarnContext(ctx, "trend source failed",
				"source", source.Name(), "error", err)
			continue
		}
		items = append(items, fetched...)
	}

	return r.normalizer.NormalizeTrends(items)
}

// collectNews polls every news source for its headline feed, isolating
// failures.
func (r *Runner) collectNews(ctx context.Context) []domain.Topic {
	var items []domain.NewsItem
	for _, source := range r.news {
		fetched, err := source.FetchNews(ctx, "")
		if err != nil {
			r.logger.WarnContext(ctx, "news source failed",
				"source", source.Name(), "error", err)
			continue
		}
		items = append(items, fetched...)
	}

	return r.normalizer.NormalizeNews(items)
}
