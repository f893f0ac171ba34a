// Package main implements the entry point for the StoryForge API server,
// which turns discovered and submitted topics into published stories through
// an asynchronous generation pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/storyforge-api/internal/config"
	"github.com/phrazzld/storyforge-api/internal/platform/logger"
)

// main is the entry point for the storyforge-api server. It initializes
// configuration, sets up logging, wires the dependency graph, starts the
// background pipeline, and serves HTTP until shutdown.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to assemble application: %w", err)
	}

	app.start(ctx)

	return app.startHTTPServer(ctx, app.setupRouter())
}

// initializeApp loads configuration and sets up logging.
// Returns the loaded config, the root logger, and any initialization error.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Orchestrator.WorkerCount,
		"collector_enabled", cfg.Collector.Enabled)

	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true)
	}

	return cfg, appLogger, nil
}
