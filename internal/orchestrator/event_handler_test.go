package orchestrator

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/storyforge-api/internal/domain"
	"github.com/phrazzld/storyforge-api/internal/events"
)

func discoveryEvent(t *testing.T, topic domain.Topic) *events.TopicEvent {
	t.Helper()
	event, err := events.NewTopicEvent(events.TypeTopicDiscovered, topic)
	require.NoError(t, err)
	return event
}

func TestTopicEventHandlerSubmitsTask(t *testing.T) {
	ctx := context.Background()
	scheduler, taskStore, queue := newTestScheduler(t, SchedulerConfig{})
	handler := NewTopicEventHandler(scheduler, slog.Default())

	topic := domain.Topic{
		Source:       domain.TopicSourceTrend,
		Keyword:      "solar storm",
		Volume:       50000,
		DiscoveredAt: time.Now().UTC(),
	}

	require.NoError(t, handler.HandleEvent(ctx, discoveryEvent(t, topic)))

	active, err := taskStore.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, queue.Len())
}

func TestTopicEventHandlerIgnoresOtherEventTypes(t *testing.T) {
	ctx := context.Background()
	scheduler, taskStore, _ := newTestScheduler(t, SchedulerConfig{})
	handler := NewTopicEventHandler(scheduler, slog.Default())

	event, err := events.NewTopicEvent("something_else", map[string]string{"k": "v"})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(ctx, event))

	active, err := taskStore.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, active)
}

func TestTopicEventHandlerDeduplicatesRediscovery(t *testing.T) {
	ctx := context.Background()
	scheduler, taskStore, _ := newTestScheduler(t, SchedulerConfig{})
	handler := NewTopicEventHandler(scheduler, slog.Default())

	topic := domain.Topic{
		Source:       domain.TopicSourceTrend,
		Keyword:      "solar storm",
		DiscoveredAt: time.Now().UTC(),
	}

	require.NoError(t, handler.HandleEvent(ctx, discoveryEvent(t, topic)))
	require.NoError(t, handler.HandleEvent(ctx, discoveryEvent(t, topic)))

	active, err := taskStore.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active, "a rediscovered topic maps back to its original task")
}

func TestTopicEventHandlerDropsWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	scheduler, taskStore, _ := newTestScheduler(t, SchedulerConfig{MaxActiveTasks: 1})
	handler := NewTopicEventHandler(scheduler, slog.Default())

	first := domain.Topic{Source: domain.TopicSourceTrend, Keyword: "first", DiscoveredAt: time.Now().UTC()}
	second := domain.Topic{Source: domain.TopicSourceTrend, Keyword: "second", DiscoveredAt: time.Now().UTC()}

	require.NoError(t, handler.HandleEvent(ctx, discoveryEvent(t, first)))

	// Capacity pressure drops the topic without failing the cycle.
	require.NoError(t, handler.HandleEvent(ctx, discoveryEvent(t, second)))

	active, err := taskStore.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestPriorityForTopic(t *testing.T) {
	tests := []struct {
		name   string
		volume int
		want   int
	}{
		{name: "high volume trend", volume: 50000, want: 8},
		{name: "moderate volume", volume: 2000, want: 6},
		{name: "low volume uses scheduler default", volume: 100, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := priorityForTopic(domain.Topic{Volume: tc.volume})
			assert.Equal(t, tc.want, got)
		})
	}
}
