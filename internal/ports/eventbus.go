// Package ports define the EventBus interface for event-driven communication.
// The event bus decouples the session, player, and history services from each other
// and from presentation layers.
package ports

import (
	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Publishers (services) do not know their subscribers. The player adapter reacts to
// session changes, transports forward notifications, and loggers can watch everything.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In a service: publish an event
//	bus.Publish(domain.NewNowPlayingEvent(item, mood))
//
//	// In a transport: subscribe to events
//	subID := bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
//	    e := event.(domain.NowPlayingEvent)
//	    client.Emit("nowPlaying", e.Title)
//	})
//
//	// Later: unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Synchronous implementations deliver in subscription order before returning,
	// which is what keeps session changes and player commands in the same order.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	Close() error
}

// EventFilter is a function that determines if an event should be delivered to a subscriber.
type EventFilter func(event domain.Event) bool

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler with a filter function.
	// The handler will only be called for events that pass the filter.
	//
	// Example: only handle lifecycle transitions into Ready
	//	bus.SubscribeFiltered(domain.EventPlayerLifecycle, func(e domain.Event) bool {
	//	    return e.(domain.PlayerLifecycleEvent).To == domain.StateReady
	//	}, handleReady)
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
