package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/phrazzld/storyforge-api/internal/generation"
)

// ImageProviderConfig holds the image provider's settings.
type ImageProviderConfig struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// ModelName selects an image-capable model. Required.
	ModelName string

	// ArtifactDir is the directory generated images are written to.
	// Required; created on construction if absent.
	ArtifactDir string

	// RequestTimeout bounds each generation call. Defaults to 120 seconds.
	RequestTimeout time.Duration
}

// ImageProvider implements generation.ImageProvider on the Gemini API. The
// returned artifact reference is the path of the stored image file.
type ImageProvider struct {
	client *genai.Client
	config ImageProviderConfig
	logger *slog.Logger
}

// NewImageProvider creates an ImageProvider and its underlying API client.
func NewImageProvider(ctx context.Context, config ImageProviderConfig, logger *slog.Logger) (*ImageProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", generation.ErrInvalidConfig)
	}
	if config.ModelName == "" {
		return nil, fmt.Errorf("%w: model name is required", generation.ErrInvalidConfig)
	}
	if config.ArtifactDir == "" {
		return nil, fmt.Errorf("%w: artifact directory is required", generation.ErrInvalidConfig)
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 120 * time.Second
	}

	if err := os.MkdirAll(config.ArtifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create artifact directory: %v", generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create client: %v", generation.ErrInvalidConfig, err)
	}

	return &ImageProvider{
		client: client,
		config: config,
		logger: logger.With("provider", "gemini_image"),
	}, nil
}

// GenerateImage renders the prompt and returns the stored artifact path.
func (p *ImageProvider) GenerateImage(ctx context.Context, prompt, style, size string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrInvalidResponse)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	full := imagePromptWithDirectives(prompt, style, size)

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.config.ModelName, genai.Text(full), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", classifyCallError(ctx, err)
	}

	data, mimeType, err := extractImage(resp)
	if err != nil {
		return "", err
	}

	ref, err := p.storeArtifact(data, mimeType)
	if err != nil {
		return "", err
	}

	p.logger.DebugContext(ctx, "image generation call finished",
		"model", p.config.ModelName,
		"duration_ms", time.Since(start).Milliseconds(),
		"artifact_ref", ref,
		"bytes", len(data))

	return ref, nil
}

// imagePromptWithDirectives appends style and dimension directives so the
// model renders a single consistent image.
func imagePromptWithDirectives(prompt, style, size string) string {
	var sb strings.Builder
	sb.WriteString(prompt)

	if style != "" && !strings.Contains(strings.ToLower(prompt), strings.ToLower(style)) {
		sb.WriteString(". Visual style: ")
		sb.WriteString(style)
	}
	if size != "" {
		sb.WriteString(". Image dimensions: ")
		sb.WriteString(size)
	}

	return sb.String()
}

// extractImage pulls the first inline image blob from the response.
func extractImage(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, "", fmt.Errorf("%w: prompt blocked (%s)",
				generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return nil, "", fmt.Errorf("%w: no candidates returned", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, "", fmt.Errorf("%w: candidate stopped by safety filter", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return nil, "", fmt.Errorf("%w: candidate has no content", generation.ErrInvalidResponse)
	}

	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
	}

	return nil, "", fmt.Errorf("%w: candidate contained no image data", generation.ErrInvalidResponse)
}

// storeArtifact writes the image bytes to the artifact directory and returns
// the file path as the artifact reference.
func (p *ImageProvider) storeArtifact(data []byte, mimeType string) (string, error) {
	name := fmt.Sprintf("img_%s%s", uuid.New().String(), extensionFor(mimeType))
	path := filepath.Join(p.config.ArtifactDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to store artifact: %v", generation.ErrTransientFailure, err)
	}

	return path, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
