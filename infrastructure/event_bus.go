package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"rifa/domain/events"

	log "github.com/sirupsen/logrus"
)

// Handler handles one domain event
type Handler func(ctx context.Context, event events.Event) error

// EventBus dispatches domain events to in-process subscribers. Handlers run
// asynchronously, one goroutine per handler, and a panicking handler is
// recovered and logged.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]Handler
	wg       sync.WaitGroup
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[events.EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	if handler == nil {
		return fmt.Errorf("nil handler for event type %s", eventType)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on event bus")
	return nil
}

// Publish emits event with a background context
func (b *EventBus) Publish(event events.Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// Emit hands event to all registered handlers without waiting for them
func (b *EventBus) Emit(ctx context.Context, event events.Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on event bus")

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()

			if err := h(ctx, event); err != nil {
				log.WithFields(log.Fields{
					"eventType":    event.Type(),
					"handlerIndex": handlerIndex,
					"error":        err,
				}).Error("Event handler failed")
			}
		}(handler, i)
	}
}

// Drain waits until every handler started so far has returned, or ctx is done
func (b *EventBus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event handlers still running: %w", ctx.Err())
	}
}
