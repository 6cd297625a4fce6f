// Package mock provides a scriptable in-process implementation of the PlayerLibrary interface.
// Tests drive it step by step; with auto-pilot enabled it behaves like a real
// player and backs the demo mode of the server.
package mock

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Library is a mock implementation of the PlayerLibrary interface.
//
// Callbacks are never invoked from inside a call into the library or a player.
// In manual mode they run when a test calls CompleteLoad, Player.Ready or
// Player.EmitState; in auto-pilot mode they run on their own goroutines.
//
// Thread-safety: This implementation is thread-safe.
type Library struct {
	// Dependencies
	logger *slog.Logger

	mu sync.Mutex

	// State
	loaded    bool
	loadCalls int
	pending   []func()
	players   []*Player

	// Behavior configuration (for testing error scenarios)
	failLoad      bool
	failNewPlayer error
	autoPilot     bool
}

// NewLibrary creates a new mock player library that is not loaded.
func NewLibrary() *Library {
	return &Library{}
}

// SetLogger sets the logger for this library.
// This should be called after construction before using the library.
func (l *Library) SetLogger(logger *slog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}

// SetLoaded marks the library as already present, as if another page loaded it.
func (l *Library) SetLoaded(loaded bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = loaded
}

// SetFailLoad configures Load to never complete (for testing the stall path).
func (l *Library) SetFailLoad(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failLoad = fail
}

// SetFailNewPlayer configures NewPlayer to return err (for testing).
func (l *Library) SetFailNewPlayer(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNewPlayer = err
}

// SetAutoPilot makes loads, readiness and playback signals complete on their own.
func (l *Library) SetAutoPilot(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoPilot = on
}

// Loaded reports whether the library is present.
func (l *Library) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Load records the request. The callback runs on CompleteLoad, or right away
// on a new goroutine in auto-pilot mode.
func (l *Library) Load(onReady func()) {
	l.mu.Lock()
	l.loadCalls++
	if l.failLoad {
		l.mu.Unlock()
		l.log("library load failed")
		return
	}
	if l.autoPilot {
		l.loaded = true
		l.mu.Unlock()
		go onReady()
		return
	}
	l.pending = append(l.pending, onReady)
	l.mu.Unlock()
}

// LoadCalls returns how many times Load was called.
func (l *Library) LoadCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadCalls
}

// CompleteLoad marks the library loaded and runs every pending load callback
// on the calling goroutine.
func (l *Library) CompleteLoad() {
	l.mu.Lock()
	l.loaded = true
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, cb := range pending {
		cb()
	}
}

// NewPlayer creates a mock player instance.
func (l *Library) NewPlayer(containerID string, opts ports.PlayerOptions, callbacks ports.PlayerCallbacks) (ports.PlayerInstance, error) {
	l.mu.Lock()
	if l.failNewPlayer != nil {
		err := l.failNewPlayer
		l.mu.Unlock()
		return nil, err
	}
	if !l.loaded {
		l.mu.Unlock()
		return nil, domain.ErrLibraryNotLoaded
	}

	p := newPlayer(containerID, opts, callbacks, l.autoPilot)
	l.players = append(l.players, p)
	l.mu.Unlock()

	p.readyLater()
	return p, nil
}

// Players returns every player created so far.
func (l *Library) Players() []*Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Player, len(l.players))
	copy(out, l.players)
	return out
}

// LastPlayer returns the most recently created player, or nil.
func (l *Library) LastPlayer() *Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.players) == 0 {
		return nil
	}
	return l.players[len(l.players)-1]
}

func (l *Library) log(msg string, args ...any) {
	l.mu.Lock()
	logger := l.logger
	l.mu.Unlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Verify that Library implements the PlayerLibrary interface
var _ ports.PlayerLibrary = (*Library)(nil)
