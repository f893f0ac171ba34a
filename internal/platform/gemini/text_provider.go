// Package gemini adapts the Google Gemini API to the generation provider
// interfaces. Raw SDK and transport errors never leave this package
// unclassified; they are wrapped in the generation error taxonomy so the
// executor can decide retryability without knowing the provider.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/storyforge-api/internal/generation"
)

// TextProviderConfig holds the text provider's settings.
type TextProviderConfig struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// ModelName selects the text model. Required.
	ModelName string

	// RequestTimeout bounds each generation call. Defaults to 60 seconds.
	RequestTimeout time.Duration
}

// TextProvider implements generation.TextProvider on the Gemini API.
type TextProvider struct {
	client *genai.Client
	config TextProviderConfig
	logger *slog.Logger
}

// NewTextProvider creates a TextProvider and its underlying API client.
func NewTextProvider(ctx context.Context, config TextProviderConfig, logger *slog.Logger) (*TextProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", generation.ErrInvalidConfig)
	}
	if config.ModelName == "" {
		return nil, fmt.Errorf("%w: model name is required", generation.ErrInvalidConfig)
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create client: %v", generation.ErrInvalidConfig, err)
	}

	return &TextProvider{
		client: client,
		config: config,
		logger: logger.With("provider", "gemini_text"),
	}, nil
}

// GenerateText sends the prompt to the configured model and returns the raw
// response text.
func (p *TextProvider) GenerateText(ctx context.Context, prompt string, constraints generation.TextConstraints) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrInvalidResponse)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.config.ModelName, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyCallError(ctx, err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	p.logger.DebugContext(ctx, "text generation call finished",
		"model", p.config.ModelName,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_runes", len([]rune(text)))

	return text, nil
}

// extractText pulls the concatenated text parts from the first candidate,
// mapping blocked or empty responses to taxonomy errors.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)",
				generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates returned", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: candidate stopped by safety filter", generation.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: candidate has no content", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: candidate contained no text parts", generation.ErrInvalidResponse)
	}

	return text, nil
}

// classifyCallError maps transport-level failures onto the taxonomy.
// Cancellation passes through; everything else is treated as transient since
// the API surfaces rate limits and server errors the same way.
func classifyCallError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
