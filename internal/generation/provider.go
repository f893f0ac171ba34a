// Package generation defines the capability interfaces over pluggable text
// and image generation providers, the error taxonomy used to classify their
// failures, and the pipeline stage adapters built on top of them. Concrete
// provider variants are selected once at configuration time; the rest of the
// application only sees these interfaces.
package generation

import "context"

// TextConstraints bounds the output of a text generation call.
type TextConstraints struct {
	// MinLength and MaxLength bound the generated story body in runes.
	// Output outside the bounds is regenerated rather than surfaced.
	MinLength int
	MaxLength int
}

// TextProvider generates story text from a prompt.
type TextProvider interface {
	// GenerateText returns the raw generated text for the prompt, or an
	// error from the generation error taxonomy.
	GenerateText(ctx context.Context, prompt string, constraints TextConstraints) (string, error)
}

// ImageProvider generates an image and returns an opaque artifact reference.
type ImageProvider interface {
	// GenerateImage renders the prompt in the given style and size and
	// returns a reference to the stored artifact.
	GenerateImage(ctx context.Context, prompt, style, size string) (string, error)
}
