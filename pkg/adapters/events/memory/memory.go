// Package memory provides an in-process event bus for tests and
// deployments without Redis. Events do not cross process boundaries.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/cascade/internal/ports"
)

// EventBus delivers events to in-process subscribers. Handlers run on
// their own goroutines so a slow consumer never blocks a publisher.
type EventBus struct {
	mu          sync.RWMutex
	closed      bool
	subscribers map[string]map[int]ports.EventHandler
	nextID      int
}

// NewEventBus creates an in-memory event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string]map[int]ports.EventHandler),
	}
}

// Publish delivers the event to every subscriber of the topic. Handler
// errors are swallowed; in-memory delivery has no redelivery to offer.
func (b *EventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	handlers := make([]ports.EventHandler, 0, len(b.subscribers[topic]))
	for _, h := range b.subscribers[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			_ = h(ctx, event)
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for the topic. The subscription is removed
// when the context is cancelled.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus is closed")
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[int]ports.EventHandler)
	}
	id := b.nextID
	b.nextID++
	b.subscribers[topic][id] = handler
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers[topic], id)
		b.mu.Unlock()
	}()

	return nil
}

// Unsubscribe removes every handler registered for the topic.
func (b *EventBus) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, topic)
	return nil
}

// Close drops all subscriptions.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subscribers = make(map[string]map[int]ports.EventHandler)
	return nil
}
