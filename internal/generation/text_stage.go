package generation

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"unicode/utf8"
)

// storyPromptTemplate assembles the instruction sent to the text provider.
// The labeled-line output contract is what parseDraft expects back.
const storyPromptTemplate = `Write an engaging web story about the following topic.

Topic: {{.Keyword}}
{{- if .Category}}
Category: {{.Category}}
{{- end}}
{{- if .Angle}}
Narrative angle: {{.Angle}}
{{- end}}
Target audience: {{.Audience}}
{{- if .SourceMaterial}}

Source material:
{{.SourceMaterial}}
{{- end}}
{{- range .KeyPoints}}
- {{.}}
{{- end}}

Respond with exactly these labeled sections:
Title: a compelling title, at most 100 characters
Body: the story text, {{.MinWords}} to {{.MaxWords}} words
Summary: a brief summary, 50 to 100 words
Category: one of technology, science, world, business, entertainment, sports, health, general
Tags: 3 to 5 comma-separated keywords`

// StoryDraft is the structured result of the text generation stage.
type StoryDraft struct {
	Title    string
	Body     string
	Summary  string
	Category string
	Tags     []string
}

// TextStage drives one text generation attempt: it assembles the prompt,
// invokes the configured provider, parses the labeled response, and enforces
// the configured length bounds. Out-of-bounds output is reported as
// ErrTextOutOfBounds so the executor regenerates within the stage's retry
// budget instead of surfacing a bad story as success.
type TextStage struct {
	provider    TextProvider
	constraints TextConstraints
	tmpl        *template.Template
	logger      *slog.Logger
}

// NewTextStage creates a TextStage over the given provider.
func NewTextStage(provider TextProvider, constraints TextConstraints, logger *slog.Logger) (*TextStage, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: text provider cannot be nil", ErrInvalidConfig)
	}

	if constraints.MinLength < 0 || (constraints.MaxLength > 0 && constraints.MaxLength < constraints.MinLength) {
		return nil, fmt.Errorf("%w: text bounds [%d, %d] are inverted",
			ErrInvalidConfig, constraints.MinLength, constraints.MaxLength)
	}

	tmpl, err := template.New("story").Parse(storyPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse story prompt template: %v", ErrInvalidConfig, err)
	}

	return &TextStage{
		provider:    provider,
		constraints: constraints,
		tmpl:        tmpl,
		logger:      logger.With("stage", "generate_text"),
	}, nil
}

// Generate runs one generation attempt for the brief.
func (s *TextStage) Generate(ctx context.Context, brief ContentBrief) (*StoryDraft, error) {
	prompt, err := s.buildPrompt(brief)
	if err != nil {
		return nil, err
	}

	text, err := s.provider.GenerateText(ctx, prompt, s.constraints)
	if err != nil {
		return nil, fmt.Errorf("text provider call failed: %w", err)
	}

	draft := parseDraft(text, brief)

	if err := s.checkBounds(draft.Body); err != nil {
		s.logger.WarnContext(ctx, "generated text out of bounds, will regenerate",
			"body_length", utf8.RuneCountInString(draft.Body),
			"min_length", s.constraints.MinLength,
			"max_length", s.constraints.MaxLength)
		return nil, err
	}

	return draft, nil
}

// buildPrompt renders the prompt template, honoring a caller-supplied custom
// prompt when present.
func (s *TextStage) buildPrompt(brief ContentBrief) (string, error) {
	if custom := strings.TrimSpace(brief.CustomPrompt); custom != "" {
		return custom, nil
	}

	data := struct {
		Keyword        string
		Category       string
		Angle          string
		Audience       string
		SourceMaterial string
		KeyPoints      []string
		MinWords       int
		MaxWords       int
	}{
		Keyword:        brief.Topic.Keyword,
		Category:       brief.Category,
		Angle:          brief.Angle,
		Audience:       brief.TargetAudience,
		SourceMaterial: brief.SourceMaterial,
		KeyPoints:      brief.KeyPoints,
		MinWords:       approxWords(s.constraints.MinLength),
		MaxWords:       approxWords(s.constraints.MaxLength),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute story prompt template: %w", err)
	}

	return buf.String(), nil
}

// checkBounds validates the body length against the configured constraints.
func (s *TextStage) checkBounds(body string) error {
	length := utf8.RuneCountInString(body)

	if s.constraints.MinLength > 0 && length < s.constraints.MinLength {
		return fmt.Errorf("%w: %d runes below minimum %d",
			ErrTextOutOfBounds, length, s.constraints.MinLength)
	}

	if s.constraints.MaxLength > 0 && length > s.constraints.MaxLength {
		return fmt.Errorf("%w: %d runes above maximum %d",
			ErrTextOutOfBounds, length, s.constraints.MaxLength)
	}

	return nil
}

// parseDraft extracts the labeled sections from the provider response,
// falling back to the raw text and brief metadata for anything missing.
func parseDraft(text string, brief ContentBrief) *StoryDraft {
	draft := &StoryDraft{
		Title:    brief.Topic.Keyword,
		Body:     strings.TrimSpace(text),
		Category: brief.Category,
	}

	var bodyLines []string
	inBody := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case hasLabel(trimmed, "Title"):
			draft.Title = labelValue(trimmed)
			inBody = false
		case hasLabel(trimmed, "Body"):
			inBody = true
			if v := labelValue(trimmed); v != "" {
				bodyLines = append(bodyLines, v)
			}
		case hasLabel(trimmed, "Summary"):
			draft.Summary = labelValue(trimmed)
			inBody = false
		case hasLabel(trimmed, "Category"):
			if v := strings.ToLower(labelValue(trimmed)); v != "" {
				draft.Category = v
			}
			inBody = false
		case hasLabel(trimmed, "Tags"):
			for _, tag := range strings.Split(labelValue(trimmed), ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					draft.Tags = append(draft.Tags, tag)
				}
			}
			inBody = false
		case inBody:
			bodyLines = append(bodyLines, line)
		}
	}

	if len(bodyLines) > 0 {
		draft.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	}

	if draft.Summary == "" {
		draft.Summary = firstSentence(draft.Body)
	}

	return draft
}

func hasLabel(line, label string) bool {
	if !strings.HasPrefix(strings.ToLower(line), strings.ToLower(label)+":") {
		return false
	}
	return true
}

func labelValue(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".!?"); idx > 0 && idx < len(text)-1 {
		return strings.TrimSpace(text[:idx+1])
	}
	if len(text) > 200 {
		return strings.TrimSpace(text[:200])
	}
	return text
}

// approxWords converts a rune bound to a rough word target for the prompt.
func approxWords(runes int) int {
	if runes <= 0 {
		return 0
	}
	words := runes / 6
	if words < 1 {
		words = 1
	}
	return words
}
