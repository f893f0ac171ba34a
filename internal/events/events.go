package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants.
const (
	// TypeTopicDiscovered is emitted by collectors when a topic passes
	// filtering and is ready for story generation.
	TypeTopicDiscovered = "topic_discovered"
)

// TopicEvent represents a discovered topic flowing from the collectors to the
// scheduler. It carries the topic data without direct dependencies on the
// orchestrator package.
type TopicEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what kind of discovery produced the event
	Type string `json:"type"`

	// Payload contains the topic data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TopicEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTopicEvent creates a new TopicEvent with the specified type and payload.
func NewTopicEvent(eventType string, payload interface{}) (*TopicEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TopicEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TopicEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows collectors to publish discoveries without direct knowledge of
// what consumes them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TopicEvent) error
}
