package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/events"
)

// TopicEventHandler subscribes to topic discovery events and submits a
// generation task for each one. Discovery-driven submissions are best-effort:
// a full queue drops the topic with a warning rather than failing the
// collection cycle, and the next cycle rediscovers anything still trending.
type TopicEventHandler struct {
	scheduler *Scheduler
	logger    *slog.Logger
}

// NewTopicEventHandler creates a handler wired to the given scheduler.
func NewTopicEventHandler(scheduler *Scheduler, logger *slog.Logger) *TopicEventHandler {
	return &TopicEventHandler{
		scheduler: scheduler,
		logger:    logger.With("component", "topic_event_handler"),
	}
}

// HandleEvent submits a generation task for a discovered topic.
func (h *TopicEventHandler) HandleEvent(ctx context.Context, event *events.TopicEvent) error {
	if event.Type != events.TypeTopicDiscovered {
		h.logger.DebugContext(ctx, "ignoring event of unrelated type", "event_type", event.Type)
		return nil
	}

	var topic domain.Topic
	if err := event.UnmarshalPayload(&topic); err != nil {
		return fmt.Errorf("failed to decode topic payload: %w", err)
	}

	// Keyed by source and keyword so a topic rediscovered inside the
	// idempotency window maps back to its original task.
	key := fmt.Sprintf("%s:%s", topic.Source, topic.Keyword)

	taskID, err := h.scheduler.Submit(ctx, topic, priorityForTopic(topic), domain.StoryOptions{}, key)
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			h.logger.WarnContext(ctx, "dropping discovered topic, scheduler at capacity",
				"keyword", topic.Keyword,
				"source", topic.Source)
			return nil
		}
		return fmt.Errorf("failed to submit discovered topic: %w", err)
	}

	h.logger.InfoContext(ctx, "discovered topic submitted",
		"task_id", taskID,
		"keyword", topic.Keyword,
		"source", topic.Source)

	return nil
}

// priorityForTopic maps discovery signals onto queue priority. High-volume
// trends jump ahead of routine news pickups.
func priorityForTopic(topic domain.Topic) int {
	switch {
	case topic.Volume >= 10000:
		return 8
	case topic.Volume >= 1000:
		return 6
	default:
		return 0 // scheduler default
	}
}
