package testutil

import (
	"sync"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Recorder captures every event published on a bus, in delivery order.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder subscribes a Recorder to all events of bus.
func NewRecorder(bus ports.EventBus) *Recorder {
	r := &Recorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
	return r
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range r.Events() {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t domain.EventType) int {
	return len(r.OfType(t))
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []domain.EventType {
	events := r.Events()
	out := make([]domain.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type()
	}
	return out
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
