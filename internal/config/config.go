package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"`
	LLM          LLMConfig          `mapstructure:"llm" validate:"required"`
	Image        ImageConfig        `mapstructure:"image" validate:"required"`
	Collector    CollectorConfig    `mapstructure:"collector"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory stores.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// LLMConfig contains the text generation settings.
type LLMConfig struct {
	GeminiAPIKey  string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName     string `mapstructure:"model_name" validate:"required"`
	MinTextLength int    `mapstructure:"min_text_length" validate:"gte=0"`
	MaxTextLength int    `mapstructure:"max_text_length" validate:"gte=0"`
}

// ImageConfig contains the image generation settings.
type ImageConfig struct {
	ModelName    string        `mapstructure:"model_name" validate:"required"`
	ArtifactDir  string        `mapstructure:"artifact_dir" validate:"required"`
	DefaultStyle string        `mapstructure:"default_style"`
	DedupWindow  time.Duration `mapstructure:"dedup_window" validate:"gte=0"`
}

// CollectorConfig contains the topic collection settings.
type CollectorConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Interval          time.Duration `mapstructure:"interval" validate:"gte=0"`
	GNewsAPIKey       string        `mapstructure:"gnews_api_key"`
	TrendsURL         string        `mapstructure:"trends_url"`
	MinTrendVolume    int           `mapstructure:"min_trend_volume" validate:"gte=0"`
	MaxTopicsPerCycle int           `mapstructure:"max_topics_per_cycle" validate:"gte=0"`
}

// OrchestratorConfig contains the scheduler and executor settings.
type OrchestratorConfig struct {
	WorkerCount       int           `mapstructure:"worker_count" validate:"required,gt=0"`
	MaxActiveTasks    int           `mapstructure:"max_active_tasks" validate:"required,gt=0"`
	DefaultPriority   int           `mapstructure:"default_priority" validate:"gt=0"`
	IdempotencyWindow time.Duration `mapstructure:"idempotency_window" validate:"gte=0"`
	RetryMaxAttempts  int           `mapstructure:"retry_max_attempts" validate:"required,gt=0"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay" validate:"gt=0"`
	RetryMaxDelay     time.Duration `mapstructure:"retry_max_delay" validate:"gt=0"`
}
