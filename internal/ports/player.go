// Package ports define the contract consumed from an external player library.
// The core never implements the player itself; it drives whatever library is
// plugged in through these interfaces.
package ports

import (
	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

// PlayerLibrary is the loader and factory of an external player.
//
// Thread-safety: Implementations must be thread-safe.
type PlayerLibrary interface {
	// Loaded reports whether the library is already present.
	Loaded() bool

	// Load starts loading the library. onReady is called once, asynchronously,
	// when the library becomes usable. If loading fails it is never called.
	Load(onReady func())

	// NewPlayer creates a player instance bound to containerID.
	// Callbacks are delivered asynchronously, never from inside a call into
	// the library or the returned instance.
	//
	// Returns domain.ErrLibraryNotLoaded if called before the library loaded.
	NewPlayer(containerID string, opts PlayerOptions, callbacks PlayerCallbacks) (PlayerInstance, error)
}

// PlayerOptions configures a new player instance.
type PlayerOptions struct {
	// Width and Height of the embedded player surface, if it has one
	Width  int
	Height int

	// AutoPlay requests the instance to start playing loaded items immediately
	AutoPlay bool
}

// PlayerCallbacks receive notifications from a player instance.
// The instance is passed back so stale instances can be told apart.
type PlayerCallbacks struct {
	// OnReady is called once when the instance accepts commands
	OnReady func(instance PlayerInstance)

	// OnStateChange is called on every playback state change
	OnStateChange func(instance PlayerInstance, signal domain.PlayerSignal)
}

// PlayerInstance is a single embedded player.
//
// Commands may panic if the underlying player is broken; callers recover.
type PlayerInstance interface {
	// LoadItemByID loads the item and starts playing it.
	LoadItemByID(id string)

	// Play resumes playback.
	Play()

	// Pause pauses playback.
	Pause()

	// SeekTo moves the playback position to seconds.
	// allowSeekAhead permits seeking past the buffered range.
	SeekTo(seconds float64, allowSeekAhead bool)

	// SetVolume sets the volume (0 to 100).
	SetVolume(volume int)

	// Volume returns the current volume (0 to 100).
	Volume() int

	// Mute silences the player without changing the stored volume.
	Mute()

	// UnMute restores the sound.
	UnMute()

	// IsMuted reports whether the player is muted.
	IsMuted() bool

	// CurrentTime returns the playback position in seconds.
	CurrentTime() float64

	// Duration returns the length of the loaded item in seconds.
	Duration() float64

	// Destroy releases the instance. It must not be used afterwards.
	Destroy()
}
