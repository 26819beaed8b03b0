package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/cascade/internal/ports"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	received := make(chan ports.Event, 1)
	err := bus.Subscribe(context.Background(), "run.events", func(_ context.Context, ev ports.Event) error {
		received <- ev
		return nil
	})
	require.NoError(t, err)

	event := ports.Event{ID: "ev-1", Type: ports.EventTypeRunSubmitted, RunID: "run-1", Timestamp: time.Now()}
	require.NoError(t, bus.Publish(context.Background(), "run.events", event))

	select {
	case got := <-received:
		assert.Equal(t, "ev-1", got.ID)
		assert.Equal(t, ports.EventTypeRunSubmitted, got.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	received := make(chan ports.Event, 1)
	require.NoError(t, bus.Subscribe(context.Background(), "other", func(_ context.Context, ev ports.Event) error {
		received <- ev
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), "run.events", ports.Event{ID: "ev-1"}))

	select {
	case <-received:
		t.Fatal("event delivered to wrong topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan ports.Event, 8)
	require.NoError(t, bus.Subscribe(ctx, "run.events", func(_ context.Context, ev ports.Event) error {
		received <- ev
		return nil
	}))

	cancel()
	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers["run.events"]) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestClosedBusRejectsPublishAndSubscribe(t *testing.T) {
	bus := NewEventBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), "run.events", ports.Event{ID: "ev-1"})
	assert.Error(t, err)

	err = bus.Subscribe(context.Background(), "run.events", func(_ context.Context, _ ports.Event) error {
		return nil
	})
	assert.Error(t, err)
}
