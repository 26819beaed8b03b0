package ports

import (
	"context"
	"time"
)

// EventType classifies run and item lifecycle events.
type EventType string

const (
	EventTypeRunSubmitted  EventType = "run.submitted"
	EventTypeRunCompleted  EventType = "run.completed"
	EventTypeRunFailed     EventType = "run.failed"
	EventTypeRunCancelled  EventType = "run.cancelled"
	EventTypeItemProgress  EventType = "item.progress"
	EventTypeDecomposition EventType = "run.decomposed"
)

// Event is the wire shape published on the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	RunID     string                 `json:"run_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler consumes one event. Returning an error leaves the event
// unacknowledged on buses that support redelivery.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers events by topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}
