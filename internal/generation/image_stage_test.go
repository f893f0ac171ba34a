package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImageProvider struct {
	mu    sync.Mutex
	calls int
	ref   string
	err   error

	// gate, when set, blocks GenerateImage until released.
	gate chan struct{}
}

func (s *stubImageProvider) GenerateImage(ctx context.Context, prompt, style, size string) (string, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if s.gate != nil {
		<-s.gate
	}

	if s.err != nil {
		return "", s.err
	}
	if s.ref != "" {
		return s.ref, nil
	}
	return fmt.Sprintf("artifacts/img_%d.png", n), nil
}

func (s *stubImageProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFingerprintNormalization(t *testing.T) {
	base := Fingerprint("a red fox", "watercolor", "1024x1024")

	tests := []struct {
		name   string
		prompt string
		style  string
		size   string
		same   bool
	}{
		{name: "identical", prompt: "a red fox", style: "watercolor", size: "1024x1024", same: true},
		{name: "case differences collapse", prompt: "A Red FOX", style: "Watercolor", size: "1024x1024", same: true},
		{name: "whitespace collapses", prompt: "  a   red fox ", style: "watercolor", size: "1024x1024", same: true},
		{name: "different prompt", prompt: "a blue fox", style: "watercolor", size: "1024x1024", same: false},
		{name: "different style", prompt: "a red fox", style: "oil", size: "1024x1024", same: false},
		{name: "different size", prompt: "a red fox", style: "watercolor", size: "512x512", same: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Fingerprint(tc.prompt, tc.style, tc.size)
			if tc.same {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestImageStageDedupCacheHit(t *testing.T) {
	provider := &stubImageProvider{ref: "artifacts/img_a.png"}
	stage, err := NewImageStage(provider, ImageStageConfig{DedupWindow: time.Minute}, slog.Default())
	require.NoError(t, err)

	ref1, err := stage.Generate(context.Background(), "a red fox", "watercolor", "")
	require.NoError(t, err)

	ref2, err := stage.Generate(context.Background(), "A RED fox", "Watercolor", "")
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)
	assert.Equal(t, 1, provider.callCount(), "equivalent requests inside the window share one provider call")
}

func TestImageStageDedupWindowExpiry(t *testing.T) {
	provider := &stubImageProvider{}
	stage, err := NewImageStage(provider, ImageStageConfig{DedupWindow: time.Minute}, slog.Default())
	require.NoError(t, err)

	current := time.Now()
	stage.now = func() time.Time { return current }

	_, err = stage.Generate(context.Background(), "a red fox", "watercolor", "")
	require.NoError(t, err)

	// Inside the window: cache answers.
	current = current.Add(30 * time.Second)
	_, err = stage.Generate(context.Background(), "a red fox", "watercolor", "")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())

	// Past the window: the provider runs again.
	current = current.Add(2 * time.Minute)
	_, err = stage.Generate(context.Background(), "a red fox", "watercolor", "")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestImageStageCollapsesConcurrentRequests(t *testing.T) {
	provider := &stubImageProvider{ref: "artifacts/img_shared.png", gate: make(chan struct{})}
	stage, err := NewImageStage(provider, ImageStageConfig{DedupWindow: time.Minute}, slog.Default())
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	var failures atomic.Int32
	refs := make([]string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ref, err := stage.Generate(context.Background(), "a red fox", "watercolor", "")
			if err != nil {
				failures.Add(1)
				return
			}
			refs[n] = ref
		}(i)
	}

	// Let the callers pile onto the in-flight call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(provider.gate)
	wg.Wait()

	require.Zero(t, failures.Load())
	assert.Equal(t, 1, provider.callCount(), "concurrent identical requests collapse into one provider call")
	for _, ref := range refs {
		assert.Equal(t, "artifacts/img_shared.png", ref)
	}
}

func TestImageStageDistinctRequestsDoNotCollapse(t *testing.T) {
	provider := &stubImageProvider{}
	stage, err := NewImageStage(provider, ImageStageConfig{DedupWindow: time.Minute}, slog.Default())
	require.NoError(t, err)

	_, err = stage.Generate(context.Background(), "a red fox", "watercolor", "")
	require.NoError(t, err)
	_, err = stage.Generate(context.Background(), "a blue heron", "watercolor", "")
	require.NoError(t, err)

	assert.Equal(t, 2, provider.callCount())
}

func TestImageStageProviderErrorNotCached(t *testing.T) {
	provider := &stubImageProvider{err: fmt.Errorf("%w: overloaded", ErrTransientFailure)}
	stage, err := NewImageStage(provider, ImageStageConfig{DedupWindow: time.Minute}, slog.Default())
	require.NoError(t, err)

	_, err = stage.Generate(context.Background(), "a red fox", "watercolor", "")
	assert.ErrorIs(t, err, ErrTransientFailure)

	provider.err = nil
	provider.ref = "artifacts/img_b.png"
	ref, err := stage.Generate(context.Background(), "a red fox", "watercolor", "")
	require.NoError(t, err)
	assert.Equal(t, "artifacts/img_b.png", ref)
	assert.Equal(t, 2, provider.callCount(), "failures must not poison the dedup cache")
}

func TestImageStageBuildPromptEmbedsStyle(t *testing.T) {
	provider := &stubImageProvider{}
	stage, err := NewImageStage(provider, ImageStageConfig{DefaultStyle: "vivid digital illustration"}, slog.Default())
	require.NoError(t, err)

	draft := &StoryDraft{Title: "Vents of the Deep", Summary: "strange life at hydrothermal vents"}

	prompt, style := stage.BuildPrompt(draft, "")
	assert.Equal(t, "vivid digital illustration", style)
	assert.Contains(t, prompt, "vivid digital illustration")
	assert.Contains(t, prompt, "strange life at hydrothermal vents")

	prompt, style = stage.BuildPrompt(draft, "charcoal sketch")
	assert.Equal(t, "charcoal sketch", style)
	assert.Contains(t, prompt, "charcoal sketch")
}

func TestImageStageBuildPromptFallsBackToTitle(t *testing.T) {
	provider := &stubImageProvider{}
	stage, err := NewImageStage(provider, ImageStageConfig{DefaultStyle: "watercolor"}, slog.Default())
	require.NoError(t, err)

	draft := &StoryDraft{Title: "Vents of the Deep"}
	prompt, _ := stage.BuildPrompt(draft, "")
	assert.Contains(t, prompt, "Vents of the Deep")
}
