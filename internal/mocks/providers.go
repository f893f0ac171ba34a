// Package mocks provides hand-written test doubles for the provider and
// store interfaces. Mocks expose Fn hooks for custom behavior, default
// response fields, and call counters for verification.
package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/storyforge-api/internal/generation"
)

// MockTextProvider implements generation.TextProvider for testing
type MockTextProvider struct {
	// Custom behavior function
	GenerateTextFn func(ctx context.Context, prompt string, constraints generation.TextConstraints) (string, error)

	// Default response values
	Text string
	Err  error

	// Call tracking for verification
	mu      sync.Mutex
	Count   int
	Prompts []string
}

// GenerateText implements the generation.TextProvider interface
func (m *MockTextProvider) GenerateText(ctx context.Context, prompt string, constraints generation.TextConstraints) (string, error) {
	m.mu.Lock()
	m.Count++
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.GenerateTextFn != nil {
		return m.GenerateTextFn(ctx, prompt, constraints)
	}

	return m.Text, m.Err
}

// Calls returns how many times GenerateText has been invoked.
func (m *MockTextProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Count
}

// MockImageProvider implements generation.ImageProvider for testing
type MockImageProvider struct {
	// Custom behavior function
	GenerateImageFn func(ctx context.Context, prompt, style, size string) (string, error)

	// Default response values
	Ref string
	Err error

	// Call tracking for verification
	mu      sync.Mutex
	Count   int
	Prompts []string
}

// GenerateImage implements the generation.ImageProvider interface
func (m *MockImageProvider) GenerateImage(ctx context.Context, prompt, style, size string) (string, error) {
	m.mu.Lock()
	m.Count++
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.GenerateImageFn != nil {
		return m.GenerateImageFn(ctx, prompt, style, size)
	}

	return m.Ref, m.Err
}

// Calls returns how many times GenerateImage has been invoked.
func (m *MockImageProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Count
}
