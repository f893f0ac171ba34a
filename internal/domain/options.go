package domain

// StoryOptions carries the caller-supplied knobs for one generation request.
// All fields are optional; empty values fall back to configured defaults.
type StoryOptions struct {
	// CustomPrompt overrides the prompt assembled from the topic.
	CustomPrompt string `json:"custom_prompt,omitempty"`

	// Style steers both the narrative voice and the image rendering style.
	Style string `json:"style,omitempty"`

	// TargetAudience hints who the story is written for.
	TargetAudience string `json:"target_audience,omitempty"`

	// NarrativeAngle hints the framing of the story.
	NarrativeAngle string `json:"narrative_angle,omitempty"`
}
