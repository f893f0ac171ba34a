package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config.yaml in the working directory or /etc/storyforge.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/storyforge")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables use the STORYFORGE_ prefix with underscores,
	// e.g. STORYFORGE_SERVER_PORT, STORYFORGE_LLM_GEMINI_API_KEY.
	v.SetEnvPrefix("STORYFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the default value for every key so AutomaticEnv can
// resolve them without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.min_text_length", 600)
	v.SetDefault("llm.max_text_length", 6000)

	v.SetDefault("image.model_name", "gemini-2.0-flash-preview-image-generation")
	v.SetDefault("image.artifact_dir", "artifacts")
	v.SetDefault("image.default_style", "vivid digital illustration")
	v.SetDefault("image.dedup_window", 15*time.Minute)

	v.SetDefault("collector.enabled", false)
	v.SetDefault("collector.interval", 30*time.Minute)
	v.SetDefault("collector.gnews_api_key", "")
	v.SetDefault("collector.trends_url", "")
	v.SetDefault("collector.min_trend_volume", 1000)
	v.SetDefault("collector.max_topics_per_cycle", 5)

	v.SetDefault("orchestrator.worker_count", 3)
	v.SetDefault("orchestrator.max_active_tasks", 100)
	v.SetDefault("orchestrator.default_priority", 5)
	v.SetDefault("orchestrator.idempotency_window", 15*time.Minute)
	v.SetDefault("orchestrator.retry_max_attempts", 3)
	v.SetDefault("orchestrator.retry_base_delay", 500*time.Millisecond)
	v.SetDefault("orchestrator.retry_max_delay", 30*time.Second)
}

// validate runs struct validation and renders failures into a readable error.
func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return fmt.Errorf("config validation failed: %s", strings.Join(fields, ", "))
}
