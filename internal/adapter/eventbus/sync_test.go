package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

func testItem() domain.MediaItem {
	return domain.MediaItem{ID: "test123", Title: "Test Track", Artist: "Tester"}
}

// TestNewSyncEventBus tests event bus creation.
func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()

	if bus == nil {
		t.Fatal("NewSyncEventBus returned nil")
	}

	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", bus.SubscriberCount())
	}

	if bus.closed {
		t.Error("New event bus should not be closed")
	}
}

// TestPublishSubscribe tests basic publish/subscribe functionality.
func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received domain.Event
	var callCount int

	handler := func(event domain.Event) {
		received = event
		callCount++
	}

	subID := bus.Subscribe(domain.EventNowPlaying, handler)

	if subID == "" {
		t.Fatal("Subscribe returned empty subscription ID")
	}

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	if callCount != 1 {
		t.Errorf("Expected handler to be called once, got %d", callCount)
	}

	if received == nil {
		t.Fatal("Handler did not receive event")
	}

	if received.Type() != domain.EventNowPlaying {
		t.Errorf("Expected EventNowPlaying, got %s", received.Type())
	}

	receivedEvent := received.(domain.NowPlayingEvent)
	if receivedEvent.Item.ID != "test123" {
		t.Errorf("Expected item ID test123, got %s", receivedEvent.Item.ID)
	}
	if receivedEvent.Title != "Now playing: Test Track" {
		t.Errorf("Unexpected title %q", receivedEvent.Title)
	}
}

// TestMultipleSubscribers tests multiple handlers for the same event type.
func TestMultipleSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount1, callCount2, callCount3 int32

	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) { atomic.AddInt32(&callCount1, 1) })
	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) { atomic.AddInt32(&callCount2, 1) })
	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) { atomic.AddInt32(&callCount3, 1) })

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	if atomic.LoadInt32(&callCount1) != 1 {
		t.Errorf("Handler 1: expected 1 call, got %d", callCount1)
	}
	if atomic.LoadInt32(&callCount2) != 1 {
		t.Errorf("Handler 2: expected 1 call, got %d", callCount2)
	}
	if atomic.LoadInt32(&callCount3) != 1 {
		t.Errorf("Handler 3: expected 1 call, got %d", callCount3)
	}
}

// TestDeliveryOrder tests that handlers run in subscription order, typed before wildcard.
func TestDeliveryOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []string
	bus.SubscribeAll(func(event domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventSessionChanged, func(event domain.Event) { order = append(order, "first") })
	second := bus.Subscribe(domain.EventSessionChanged, func(event domain.Event) { order = append(order, "second") })
	bus.Subscribe(domain.EventSessionChanged, func(event domain.Event) { order = append(order, "third") })

	bus.Publish(domain.NewSessionChangedEvent(domain.PlaybackSession{}, domain.PlaybackSession{}))

	want := []string{"first", "second", "third", "all"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}

	// Removing a middle handler must keep the others in order
	bus.Unsubscribe(second)
	order = nil
	bus.Publish(domain.NewSessionChangedEvent(domain.PlaybackSession{}, domain.PlaybackSession{}))

	want = []string{"first", "third", "all"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

// TestUnsubscribe tests unsubscribing handlers.
func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32

	handler := func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	}

	subID := bus.Subscribe(domain.EventNowPlaying, handler)

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected 1 call before unsubscribe, got %d", callCount)
	}

	bus.Unsubscribe(subID)

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected 1 call after unsubscribe, got %d", callCount)
	}

	if bus.HasSubscribers(domain.EventNowPlaying) {
		t.Error("Expected no subscribers after unsubscribe")
	}
}

// TestUnsubscribeDuringPublish tests that a handler can unsubscribe itself.
func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int32
	var id domain.SubscriptionID
	id = bus.Subscribe(domain.EventHistoryCleared, func(event domain.Event) {
		atomic.AddInt32(&calls, 1)
		bus.Unsubscribe(id)
	})

	bus.Publish(domain.NewHistoryClearedEvent())
	bus.Publish(domain.NewHistoryClearedEvent())

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

// TestUnsubscribeInvalidID tests unsubscribing with invalid ID (should be no-op).
func TestUnsubscribeInvalidID(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	bus.Unsubscribe("invalid-id")
	bus.Unsubscribe("")
}

// TestSubscribeAll tests wildcard subscriptions.
func TestSubscribeAll(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var receivedEvents []domain.Event
	var mu sync.Mutex

	bus.SubscribeAll(func(event domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		receivedEvents = append(receivedEvents, event)
	})

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))
	bus.Publish(domain.NewTrackProgressEvent(10, 200))
	bus.Publish(domain.NewVolumeChangedEvent(50))

	mu.Lock()
	defer mu.Unlock()

	if len(receivedEvents) != 3 {
		t.Errorf("Expected 3 events, got %d", len(receivedEvents))
	}
}

// TestSubscribeFiltered tests that filtered handlers only see accepted events.
func TestSubscribeFiltered(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var readyCount int32
	bus.SubscribeFiltered(domain.EventPlayerLifecycle, func(event domain.Event) bool {
		return event.(domain.PlayerLifecycleEvent).To == domain.StateReady
	}, func(event domain.Event) {
		atomic.AddInt32(&readyCount, 1)
	})

	bus.Publish(domain.NewPlayerLifecycleEvent(domain.StateUninitialized, domain.StateBootstrappingAPI))
	bus.Publish(domain.NewPlayerLifecycleEvent(domain.StateBootstrappingAPI, domain.StateInitializing))
	bus.Publish(domain.NewPlayerLifecycleEvent(domain.StateInitializing, domain.StateReady))

	if atomic.LoadInt32(&readyCount) != 1 {
		t.Errorf("Expected 1 filtered delivery, got %d", readyCount)
	}
}

// TestHasSubscribers tests the HasSubscribers method.
func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	if bus.HasSubscribers(domain.EventNowPlaying) {
		t.Error("Expected no subscribers initially")
	}

	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {})

	if !bus.HasSubscribers(domain.EventNowPlaying) {
		t.Error("Expected subscribers after subscription")
	}

	if bus.HasSubscribers(domain.EventTrackProgress) {
		t.Error("Expected no subscribers for different event type")
	}
}

// TestHasSubscribersWithWildcard tests HasSubscribers with wildcard subscriptions.
func TestHasSubscribersWithWildcard(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	bus.SubscribeAll(func(event domain.Event) {})

	if !bus.HasSubscribers(domain.EventNowPlaying) {
		t.Error("Expected subscribers (wildcard) for EventNowPlaying")
	}

	if !bus.HasSubscribers(domain.EventTrackProgress) {
		t.Error("Expected subscribers (wildcard) for EventTrackProgress")
	}
}

// TestHandlerPanic tests that panicking handlers don't crash the bus.
func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32

	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
		panic("test panic")
	})
	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected normal handler to be called despite panic, got %d calls", callCount)
	}
}

// TestClose tests closing the event bus.
func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	handler := func(event domain.Event) {}
	bus.Subscribe(domain.EventNowPlaying, handler)
	bus.SubscribeAll(handler)

	if bus.SubscriberCount() == 0 {
		t.Error("Expected subscribers before close")
	}

	err := bus.Close()
	if err != nil {
		t.Errorf("Close returned error: %v", err)
	}

	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after close, got %d", bus.SubscriberCount())
	}

	// Publishing should be a no-op (shouldn't panic)
	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	err = bus.Close()
	if err == nil {
		t.Error("Expected error when closing already closed bus")
	}
}

// TestConcurrentPublish tests concurrent event publishing (race condition test).
func TestConcurrentPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var eventCount int32

	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
		atomic.AddInt32(&eventCount, 1)
	})

	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))
			}
		}()
	}

	wg.Wait()

	expectedCount := int32(numGoroutines * eventsPerGoroutine)
	if atomic.LoadInt32(&eventCount) != expectedCount {
		t.Errorf("Expected %d events, got %d", expectedCount, eventCount)
	}
}

// TestConcurrentSubscribe tests concurrent subscriptions (race condition test).
func TestConcurrentSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	const numGoroutines = 10
	const subscriptionsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	handler := func(event domain.Event) {}

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < subscriptionsPerGoroutine; j++ {
				bus.Subscribe(domain.EventNowPlaying, handler)
			}
		}()
	}

	wg.Wait()

	expectedCount := numGoroutines * subscriptionsPerGoroutine
	if bus.SubscriberCount() != expectedCount {
		t.Errorf("Expected %d subscribers, got %d", expectedCount, bus.SubscriberCount())
	}
}

// TestConcurrentPublishAndSubscribe tests concurrent publishing and subscribing.
func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var eventCount int32

	handler := func(event domain.Event) {
		atomic.AddInt32(&eventCount, 1)
	}
	bus.Subscribe(domain.EventNowPlaying, handler)

	const numPublishers = 5
	const numSubscribers = 5
	const eventsPerPublisher = 50

	var wg sync.WaitGroup
	wg.Add(numPublishers + numSubscribers)

	for i := 0; i < numPublishers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerPublisher; j++ {
				bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))
				time.Sleep(time.Microsecond)
			}
		}()
	}

	for i := 0; i < numSubscribers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := bus.Subscribe(domain.EventNowPlaying, handler)
				time.Sleep(time.Microsecond)
				bus.Unsubscribe(id)
			}
		}()
	}

	wg.Wait()

	if atomic.LoadInt32(&eventCount) == 0 {
		t.Error("Expected to receive some events")
	}
}

// TestNilEvent tests publishing nil event (should be no-op).
func TestNilEvent(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32

	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	bus.Publish(nil)

	if atomic.LoadInt32(&callCount) != 0 {
		t.Errorf("Handler should not be called for nil event, got %d calls", callCount)
	}
}

// TestNilHandler tests that subscribing with nil handler panics.
func TestNilHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when subscribing with nil handler")
		}
	}()

	bus.Subscribe(domain.EventNowPlaying, nil)
}

// TestDifferentEventTypes tests that subscribers only receive their event type.
func TestDifferentEventTypes(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var playingCount, progressCount int32

	bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
		atomic.AddInt32(&playingCount, 1)
	})
	bus.Subscribe(domain.EventTrackProgress, func(event domain.Event) {
		atomic.AddInt32(&progressCount, 1)
	})

	bus.Publish(domain.NewNowPlayingEvent(testItem(), "Calm"))

	if atomic.LoadInt32(&playingCount) != 1 {
		t.Errorf("Expected 1 now playing event, got %d", playingCount)
	}
	if atomic.LoadInt32(&progressCount) != 0 {
		t.Errorf("Expected 0 progress events, got %d", progressCount)
	}

	bus.Publish(domain.NewTrackProgressEvent(5, 100))

	if atomic.LoadInt32(&playingCount) != 1 {
		t.Errorf("Expected 1 now playing event after progress, got %d", playingCount)
	}
	if atomic.LoadInt32(&progressCount) != 1 {
		t.Errorf("Expected 1 progress event, got %d", progressCount)
	}
}
