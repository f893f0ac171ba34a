package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

// stubTextProvider is a local fake; the shared mocks package depends on this
// package, so tests here use their own double.
type stubTextProvider struct {
	text  string
	err   error
	calls int
	last  string
}

func (s *stubTextProvider) GenerateText(ctx context.Context, prompt string, constraints TextConstraints) (string, error) {
	s.calls++
	s.last = prompt
	return s.text, s.err
}

func testBrief(keyword string) ContentBrief {
	return ContentBrief{
		Topic: domain.Topic{
			Source:  domain.TopicSourceManual,
			Keyword: keyword,
		},
		Category:       "science",
		Angle:          "human_impact",
		TargetAudience: "general",
	}
}

func TestNewTextStageValidation(t *testing.T) {
	logger := slog.Default()

	_, err := NewTextStage(nil, TextConstraints{}, logger)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTextStage(&stubTextProvider{}, TextConstraints{MinLength: 100, MaxLength: 50}, logger)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTextStage(&stubTextProvider{}, TextConstraints{MinLength: 50, MaxLength: 100}, logger)
	assert.NoError(t, err)
}

func TestTextStageParsesLabeledResponse(t *testing.T) {
	body := strings.Repeat("lorem ipsum ", 20)
	provider := &stubTextProvider{text: fmt.Sprintf(`Title: Vents of the Deep
Body: %s
Summary: Hydrothermal vents host strange life.
Category: Science
Tags: ocean, biology, heat`, body)}

	stage, err := NewTextStage(provider, TextConstraints{MinLength: 10, MaxLength: 10_000}, slog.Default())
	require.NoError(t, err)

	draft, err := stage.Generate(context.Background(), testBrief("deep sea vents"))
	require.NoError(t, err)

	assert.Equal(t, "Vents of the Deep", draft.Title)
	assert.Equal(t, strings.TrimSpace(body), draft.Body)
	assert.Equal(t, "Hydrothermal vents host strange life.", draft.Summary)
	assert.Equal(t, "science", draft.Category)
	assert.Equal(t, []string{"ocean", "biology", "heat"}, draft.Tags)
}

func TestTextStageMultilineBody(t *testing.T) {
	provider := &stubTextProvider{text: `Title: Two Paragraphs
Body: First paragraph of the story text.
Second paragraph continues the thought.
Summary: A two paragraph story.`}

	stage, err := NewTextStage(provider, TextConstraints{MinLength: 10, MaxLength: 10_000}, slog.Default())
	require.NoError(t, err)

	draft, err := stage.Generate(context.Background(), testBrief("paragraphs"))
	require.NoError(t, err)

	assert.Contains(t, draft.Body, "First paragraph")
	assert.Contains(t, draft.Body, "Second paragraph")
	assert.NotContains(t, draft.Body, "Summary:")
}

func TestTextStageUnlabeledResponseFallsBack(t *testing.T) {
	provider := &stubTextProvider{text: strings.Repeat("plain prose without labels. ", 10)}

	stage, err := NewTextStage(provider, TextConstraints{MinLength: 10, MaxLength: 10_000}, slog.Default())
	require.NoError(t, err)

	draft, err := stage.Generate(context.Background(), testBrief("plain"))
	require.NoError(t, err)

	assert.Equal(t, "plain", draft.Title, "title falls back to the keyword")
	assert.NotEmpty(t, draft.Body)
	assert.NotEmpty(t, draft.Summary, "summary falls back to the first sentence")
}

func TestTextStageBounds(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "below minimum", body: "short", wantErr: true},
		{name: "above maximum", body: strings.Repeat("x", 300), wantErr: true},
		{name: "inside bounds", body: strings.Repeat("x", 100), wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubTextProvider{text: "Title: T\nBody: " + tc.body}
			stage, err := NewTextStage(provider, TextConstraints{MinLength: 50, MaxLength: 200}, slog.Default())
			require.NoError(t, err)

			_, err = stage.Generate(context.Background(), testBrief("bounds"))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrTextOutOfBounds)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTextStageCustomPromptOverridesTemplate(t *testing.T) {
	provider := &stubTextProvider{text: "Title: T\nBody: " + strings.Repeat("y", 100)}
	stage, err := NewTextStage(provider, TextConstraints{MinLength: 10, MaxLength: 10_000}, slog.Default())
	require.NoError(t, err)

	brief := testBrief("custom")
	brief.CustomPrompt = "Write a limerick about lighthouses."

	_, err = stage.Generate(context.Background(), brief)
	require.NoError(t, err)

	assert.Equal(t, "Write a limerick about lighthouses.", provider.last)
}

func TestTextStagePromptIncludesBrief(t *testing.T) {
	provider := &stubTextProvider{text: "Title: T\nBody: " + strings.Repeat("y", 100)}
	stage, err := NewTextStage(provider, TextConstraints{MinLength: 10, MaxLength: 10_000}, slog.Default())
	require.NoError(t, err)

	brief := testBrief("glacier melt")
	brief.KeyPoints = []string{"sea levels rising"}

	_, err = stage.Generate(context.Background(), brief)
	require.NoError(t, err)

	assert.Contains(t, provider.last, "Topic: glacier melt")
	assert.Contains(t, provider.last, "Category: science")
	assert.Contains(t, provider.last, "sea levels rising")
	assert.Contains(t, provider.last, "Title:")
}

func TestTextStageProviderErrorPropagates(t *testing.T) {
	provider := &stubTextProvider{err: fmt.Errorf("%w: rate limited", ErrTransientFailure)}
	stage, err := NewTextStage(provider, TextConstraints{}, slog.Default())
	require.NoError(t, err)

	_, err = stage.Generate(context.Background(), testBrief("err"))
	assert.ErrorIs(t, err, ErrTransientFailure)
}
