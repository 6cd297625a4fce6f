// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// SyncEventBus is a synchronous implementation of the FilteringEventBus interface.
// Events are delivered to handlers synchronously in the order they were subscribed,
// type-specific handlers first, then wildcard handlers.
//
// Thread-safety: This implementation is thread-safe. Multiple goroutines can
// publish events and subscribe/unsubscribe handlers concurrently. Handlers are
// invoked outside the internal lock, so a handler may publish or unsubscribe.
//
// Performance: Since handlers are called synchronously, slow handlers will block
// event delivery. Handlers should process events quickly or dispatch to a
// background goroutine if long processing is needed.
type SyncEventBus struct {
	// Dependencies
	logger *slog.Logger

	// subscribers map event types to their subscriptions
	subscribers map[domain.EventType][]subscription

	// allSubscribers contains handlers that receive all events
	allSubscribers []subscription

	// mu protects subscribers and allSubscribers
	mu sync.RWMutex

	// idCounter generates unique subscription IDs
	idCounter uint64

	// closed indicates if the event bus has been closed
	closed bool
}

// a subscription represents a single event subscription.
type subscription struct {
	id      domain.SubscriptionID
	filter  ports.EventFilter
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		subscribers:    make(map[domain.EventType][]subscription),
		allSubscribers: make([]subscription, 0),
	}
}

// SetLogger sets the logger for this event bus.
// This should be called after construction before using the event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish publishes an event to all subscribers of that event type.
// Handlers are called synchronously in the order they subscribed.
//
// If the event bus is closed, this method does nothing.
//
// Panics in handlers are recovered and logged, but do not stop other handlers
// from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}

	eventType := event.Type()
	typeSubscribers := make([]subscription, len(bus.subscribers[eventType]))
	copy(typeSubscribers, bus.subscribers[eventType])

	wildcardSubscribers := make([]subscription, len(bus.allSubscribers))
	copy(wildcardSubscribers, bus.allSubscribers)

	logger := bus.logger
	bus.mu.RUnlock()

	for _, sub := range typeSubscribers {
		bus.deliver(logger, sub, event)
	}

	for _, sub := range wildcardSubscribers {
		bus.deliver(logger, sub, event)
	}
}

// deliver applies the subscription filter and calls the handler, recovering from panics.
func (bus *SyncEventBus) deliver(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("event handler panicked",
					slog.Any("panic", r),
					slog.String("event_type", string(event.Type())),
					slog.String("subscription", string(sub.id)))
			}
		}
	}()

	if sub.filter != nil && !sub.filter(event) {
		return
	}

	if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
		handlerName := runtime.FuncForPC(reflect.ValueOf(sub.handler).Pointer()).Name()
		logger.Debug("event published",
			slog.String("event_type", string(event.Type())),
			slog.String("handler", handlerName))
	}
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Returns a unique subscription ID that can be used to unsubscribe.
//
// The same handler can be registered multiple times with different IDs.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.SubscribeFiltered(eventType, nil, handler)
}

// SubscribeFiltered registers a handler that is only called for events of the
// given type that pass filter. A nil filter accepts every event.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	id := domain.SubscriptionID(fmt.Sprintf("sub-%d", atomic.AddUint64(&bus.idCounter, 1)))
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscription{
		id:      id,
		filter:  filter,
		handler: handler,
	})

	return id
}

// Unsubscribe removes a previously registered event handler.
// The relative order of the remaining handlers is preserved.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.subscribers {
		if i := indexOf(subs, id); i >= 0 {
			bus.subscribers[eventType] = remove(subs, i)
			if len(bus.subscribers[eventType]) == 0 {
				delete(bus.subscribers, eventType)
			}
			return
		}
	}

	if i := indexOf(bus.allSubscribers, id); i >= 0 {
		bus.allSubscribers = remove(bus.allSubscribers, i)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// remove returns a new slice without element i. Publish may still hold the old
// backing array, so it is never modified in place.
func remove(subs []subscription, i int) []subscription {
	out := make([]subscription, 0, len(subs)-1)
	out = append(out, subs[:i]...)
	return append(out, subs[i+1:]...)
}

// SubscribeAll registers a handler that receives all events regardless of type.
// Returns a unique subscription ID that can be used to unsubscribe.
//
// This is useful for logging, debugging, or analytics.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	id := domain.SubscriptionID(fmt.Sprintf("sub-all-%d", atomic.AddUint64(&bus.idCounter, 1)))
	bus.allSubscribers = append(bus.allSubscribers, subscription{
		id:      id,
		handler: handler,
	})

	return id
}

// HasSubscribers returns true if there are any active subscriptions for the given event type.
// This can be used to avoid expensive event construction if no one is listening.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if len(bus.subscribers[eventType]) > 0 {
		return true
	}

	return len(bus.allSubscribers) > 0
}

// Close shuts down the event bus and clears all subscriptions.
// After calling Close, no more events should be published or subscribed.
//
// Returns an error if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}

	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = make([]subscription, 0)

	return nil
}

// SubscriberCount returns the number of active subscriptions for debugging.
// This counts both type-specific and wildcard subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// Verify that SyncEventBus implements the FilteringEventBus interface
var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
