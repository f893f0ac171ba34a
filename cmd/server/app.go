package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/storyforge-api/internal/collector"
	"github.com/phrazzld/storyforge-api/internal/config"
	"github.com/phrazzld/storyforge-api/internal/events"
	"github.com/phrazzld/storyforge-api/internal/generation"
	"github.com/phrazzld/storyforge-api/internal/orchestrator"
	"github.com/phrazzld/storyforge-api/internal/platform/gemini"
	"github.com/phrazzld/storyforge-api/internal/platform/memstore"
	"github.com/phrazzld/storyforge-api/internal/platform/postgres"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// application holds the assembled dependency graph.
type application struct {
	config *config.Config
	logger *slog.Logger

	db         *sql.DB
	taskStore  store.TaskStore
	storyStore store.StoryStore

	queue     *orchestrator.PriorityQueue
	scheduler *orchestrator.Scheduler
	executor  *orchestrator.Executor
	collector *collector.Runner
}

// newApplication wires every component from the loaded configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	// Task records live in memory; they are transient orchestration state.
	// Story artifacts go to Postgres when a database is configured.
	app.taskStore = memstore.NewTaskStore(logger)

	if cfg.Database.URL != "" {
		db, err := setupAppDatabase(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		app.db = db
		app.storyStore = postgres.NewPostgresStoryStore(db, logger)
	} else {
		logger.Warn("no database configured, stories are stored in memory")
		app.storyStore = memstore.NewStoryStore()
	}

	textProvider, err := gemini.NewTextProvider(ctx, gemini.TextProviderConfig{
		APIKey:    cfg.LLM.GeminiAPIKey,
		ModelName: cfg.LLM.ModelName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create text provider: %w", err)
	}

	imageProvider, err := gemini.NewImageProvider(ctx, gemini.ImageProviderConfig{
		APIKey:      cfg.LLM.GeminiAPIKey,
		ModelName:   cfg.Image.ModelName,
		ArtifactDir: cfg.Image.ArtifactDir,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image provider: %w", err)
	}

	textStage, err := generation.NewTextStage(textProvider, generation.TextConstraints{
		MinLength: cfg.LLM.MinTextLength,
		MaxLength: cfg.LLM.MaxTextLength,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create text stage: %w", err)
	}

	imageStage, err := generation.NewImageStage(imageProvider, generation.ImageStageConfig{
		DedupWindow:  cfg.Image.DedupWindow,
		DefaultStyle: cfg.Image.DefaultStyle,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image stage: %w", err)
	}

	app.queue = orchestrator.NewPriorityQueue()

	app.scheduler = orchestrator.NewScheduler(
		app.taskStore,
		app.queue,
		orchestrator.NewClockIDSource(),
		orchestrator.SchedulerConfig{
			MaxActiveTasks:    cfg.Orchestrator.MaxActiveTasks,
			IdempotencyWindow: cfg.Orchestrator.IdempotencyWindow,
			DefaultPriority:   cfg.Orchestrator.DefaultPriority,
		},
		logger,
	)

	var newsFetcher orchestrator.NewsFetcher
	var newsSources []collector.NewsSource
	if cfg.Collector.GNewsAPIKey != "" {
		gnews, err := collector.NewGNewsClient(collector.GNewsConfig{
			APIKey: cfg.Collector.GNewsAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gnews client: %w", err)
		}
		newsFetcher = gnews
		newsSources = append(newsSources, gnews)
	}

	app.executor = orchestrator.NewExecutor(
		app.taskStore,
		app.storyStore,
		app.queue,
		newsFetcher,
		textStage,
		imageStage,
		orchestrator.ExecutorConfig{
			WorkerCount: cfg.Orchestrator.WorkerCount,
			Retry: orchestrator.RetryPolicy{
				MaxAttempts: cfg.Orchestrator.RetryMaxAttempts,
				BaseDelay:   cfg.Orchestrator.RetryBaseDelay,
				MaxDelay:    cfg.Orchestrator.RetryMaxDelay,
			},
		},
		logger,
	)

	if cfg.Collector.Enabled {
		emitter := events.NewInMemoryEventEmitter(logger)
		emitter.RegisterHandler(orchestrator.NewTopicEventHandler(app.scheduler, logger))

		trendSources := []collector.TrendSource{
			collector.NewTrendPageScraper(collector.TrendPageConfig{
				URL: cfg.Collector.TrendsURL,
			}),
		}

		app.collector = collector.NewRunner(
			newsSources,
			trendSources,
			collector.NewNormalizer(collector.NormalizerConfig{
				MinVolume: cfg.Collector.MinTrendVolume,
			}),
			emitter,
			collector.RunnerConfig{
				Interval:          cfg.Collector.Interval,
				MaxTopicsPerCycle: cfg.Collector.MaxTopicsPerCycle,
			},
			logger,
		)
	}

	return app, nil
}

// start launches the background components.
func (app *application) start(ctx context.Context) {
	app.executor.Start(ctx)
	if app.collector != nil {
		app.collector.Start(ctx)
	}
}

// cleanup stops background work and releases resources. Order matters: the
// collector stops feeding first, then the executor drains in-flight tasks,
// and only then do the stores close.
func (app *application) cleanup() {
	if app.collector != nil {
		app.collector.Stop()
	}

	app.executor.Stop()

	if err := app.taskStore.Close(); err != nil {
		app.logger.Error("failed to close task store", "error", err)
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
