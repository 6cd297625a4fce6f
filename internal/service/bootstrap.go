package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// APIBootstrap broadcasts the readiness of a player library to every adapter
// waiting for it. The library load is triggered at most once per bootstrap.
//
// Listeners are only notified; each one checks its own liveness when called.
type APIBootstrap struct {
	logger  *slog.Logger
	library ports.PlayerLibrary

	mu        sync.Mutex
	ready     bool
	loading   bool
	nextID    uint64
	listeners map[uint64]func()
	order     []uint64
}

// NewAPIBootstrap creates a bootstrap for library.
func NewAPIBootstrap(logger *slog.Logger, library ports.PlayerLibrary) *APIBootstrap {
	return &APIBootstrap{
		logger:    logger.With(slog.String("component", "APIBootstrap")),
		library:   library,
		listeners: make(map[uint64]func()),
	}
}

// Await reports whether the library is ready. If it is not, listener is
// registered to be called once the library finishes loading, and the load is
// triggered if nobody triggered it yet. cancel deregisters the listener; it is
// safe to call more than once and after the listener ran.
func (b *APIBootstrap) Await(listener func()) (ready bool, cancel func()) {
	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		return true, func() {}
	}
	if b.library.Loaded() {
		b.ready = true
		b.mu.Unlock()
		b.logger.Debug("player library already present")
		return true, func() {}
	}

	b.nextID++
	id := b.nextID
	b.listeners[id] = listener
	b.order = append(b.order, id)

	trigger := !b.loading
	b.loading = true
	b.mu.Unlock()

	if trigger {
		b.logger.Debug("loading player library")
		b.library.Load(b.resolve)
	}

	return false, func() { b.deregister(id) }
}

// Ready reports whether the library finished loading.
func (b *APIBootstrap) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Pending returns the number of registered listeners.
func (b *APIBootstrap) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *APIBootstrap) deregister(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, id)
}

// resolve marks the library ready and notifies every pending listener once,
// in registration order. Later calls are no-ops.
func (b *APIBootstrap) resolve() {
	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		return
	}
	b.ready = true

	pending := make([]func(), 0, len(b.listeners))
	for _, id := range b.order {
		if l, ok := b.listeners[id]; ok {
			pending = append(pending, l)
		}
	}
	b.listeners = make(map[uint64]func())
	b.order = nil
	b.mu.Unlock()

	b.logger.Info("player library ready", slog.Int("listeners", len(pending)))

	for _, l := range pending {
		l()
	}
}
