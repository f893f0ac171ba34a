package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultImageSize is used when a request does not specify one.
const DefaultImageSize = "1024x1024"

// ImageStageConfig holds the image stage's tuning values.
type ImageStageConfig struct {
	// DedupWindow is how long a generated artifact reference satisfies
	// later requests with the same fingerprint without a provider call.
	DedupWindow time.Duration

	// DefaultStyle is embedded into prompts that do not carry a style.
	DefaultStyle string
}

// cachedArtifact is one dedup cache entry.
type cachedArtifact struct {
	ref      string
	storedAt time.Time
}

// ImageStage generates images through the configured provider, deduplicating
// expensive calls: requests are fingerprinted over the normalized
// (prompt, style, size) triple, answered from a time-windowed cache when
// possible, and concurrent requests sharing a fingerprint collapse into a
// single in-flight provider call whose result every caller receives.
type ImageStage struct {
	provider ImageProvider
	config   ImageStageConfig
	logger   *slog.Logger

	flight singleflight.Group

	mu    sync.Mutex
	cache map[string]cachedArtifact

	// now is a hook for tests; defaults to time.Now.
	now func() time.Time
}

// NewImageStage creates an ImageStage over the given provider.
func NewImageStage(provider ImageProvider, config ImageStageConfig, logger *slog.Logger) (*ImageStage, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: image provider cannot be nil", ErrInvalidConfig)
	}

	if config.DedupWindow <= 0 {
		config.DedupWindow = 15 * time.Minute
	}

	return &ImageStage{
		provider: provider,
		config:   config,
		logger:   logger.With("stage", "generate_image"),
		cache:    make(map[string]cachedArtifact),
		now:      time.Now,
	}, nil
}

// BuildPrompt derives the image prompt from a story draft, always embedding
// the effective visual style.
func (s *ImageStage) BuildPrompt(draft *StoryDraft, style string) (prompt, effectiveStyle string) {
	effectiveStyle = style
	if effectiveStyle == "" {
		effectiveStyle = s.config.DefaultStyle
	}

	subject := draft.Summary
	if subject == "" {
		subject = draft.Title
	}

	prompt = fmt.Sprintf("%s illustration of %s", effectiveStyle, subject)
	if !strings.Contains(strings.ToLower(prompt), strings.ToLower(effectiveStyle)) {
		prompt = effectiveStyle + ", " + prompt
	}

	return prompt, effectiveStyle
}

// Generate returns an artifact reference for the (prompt, style, size)
// request, consulting the dedup cache before calling the provider.
func (s *ImageStage) Generate(ctx context.Context, prompt, style, size string) (string, error) {
	if size == "" {
		size = DefaultImageSize
	}
	if style == "" {
		style = s.config.DefaultStyle
	}

	key := Fingerprint(prompt, style, size)

	ref, err, shared := s.flight.Do(key, func() (interface{}, error) {
		if cached, ok := s.lookup(key); ok {
			s.logger.DebugContext(ctx, "image dedup cache hit", "fingerprint", key)
			return cached, nil
		}

		artifactRef, err := s.provider.GenerateImage(ctx, prompt, style, size)
		if err != nil {
			return "", fmt.Errorf("image provider call failed: %w", err)
		}

		s.storeRef(key, artifactRef)
		return artifactRef, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		s.logger.DebugContext(ctx, "image request collapsed into shared flight", "fingerprint", key)
	}

	return ref.(string), nil
}

// Fingerprint computes the dedup key for a normalized (prompt, style, size)
// triple. Normalization lowercases and collapses whitespace so cosmetic
// variations of the same request share one fingerprint.
func Fingerprint(prompt, style, size string) string {
	normalized := normalize(prompt) + "|" + normalize(style) + "|" + normalize(size)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// lookup returns a cached reference still inside the dedup window.
func (s *ImageStage) lookup(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok {
		return "", false
	}

	if s.now().Sub(entry.storedAt) > s.config.DedupWindow {
		delete(s.cache, key)
		return "", false
	}

	return entry.ref, true
}

func (s *ImageStage) storeRef(key, ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = cachedArtifact{ref: ref, storedAt: s.now()}
}
