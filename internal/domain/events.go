// Package domain defines events for the event-driven architecture.
// Services publish these through the event bus; presentation layers subscribe.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Session events
	EventSessionChanged EventType = "session.changed"
	EventNowPlaying     EventType = "session.now_playing"

	// History events
	EventHistoryChanged EventType = "history.changed"
	EventHistoryCleared EventType = "history.cleared"

	// Player events
	EventPlayerLifecycle  EventType = "player.lifecycle"
	EventPlayerSignal     EventType = "player.signal"
	EventTrackProgress    EventType = "player.progress"
	EventBootstrapStalled EventType = "player.bootstrap_stalled"
	EventPlayerDegraded   EventType = "player.degraded"
	EventVolumeChanged    EventType = "volume.changed"
	EventMuteToggled      EventType = "mute.toggled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SessionChangedEvent is published after every session mutation.
type SessionChangedEvent struct {
	baseEvent
	Previous PlaybackSession
	Current  PlaybackSession
}

// Type returns the event type.
func (e SessionChangedEvent) Type() EventType {
	return EventSessionChanged
}

// ItemChanged reports whether the selected item differs between Previous and Current.
func (e SessionChangedEvent) ItemChanged() bool {
	return e.Previous.CurrentID() != e.Current.CurrentID()
}

// NewSessionChangedEvent creates a new SessionChangedEvent.
func NewSessionChangedEvent(previous, current PlaybackSession) SessionChangedEvent {
	return SessionChangedEvent{
		baseEvent: newBaseEvent(),
		Previous:  previous,
		Current:   current,
	}
}

// NowPlayingEvent is the user-visible notification emitted when playback of an item starts.
type NowPlayingEvent struct {
	baseEvent
	Title    string
	Subtitle string
	Item     MediaItem
	Mood     string
}

// Type returns the event type.
func (e NowPlayingEvent) Type() EventType {
	return EventNowPlaying
}

// NewNowPlayingEvent creates a NowPlayingEvent for item.
func NewNowPlayingEvent(item MediaItem, mood string) NowPlayingEvent {
	return NowPlayingEvent{
		baseEvent: newBaseEvent(),
		Title:     "Now playing: " + item.Title,
		Subtitle:  item.Artist,
		Item:      item,
		Mood:      mood,
	}
}

// HistoryChangedEvent is published when the history log changes.
type HistoryChangedEvent struct {
	baseEvent
	Log HistoryLog
}

// Type returns the event type.
func (e HistoryChangedEvent) Type() EventType {
	return EventHistoryChanged
}

// NewHistoryChangedEvent creates a new HistoryChangedEvent.
func NewHistoryChangedEvent(log HistoryLog) HistoryChangedEvent {
	return HistoryChangedEvent{
		baseEvent: newBaseEvent(),
		Log:       log,
	}
}

// HistoryClearedEvent is published when the history log is cleared.
type HistoryClearedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e HistoryClearedEvent) Type() EventType {
	return EventHistoryCleared
}

// NewHistoryClearedEvent creates a new HistoryClearedEvent.
func NewHistoryClearedEvent() HistoryClearedEvent {
	return HistoryClearedEvent{baseEvent: newBaseEvent()}
}

// PlayerLifecycleEvent is published on every adapter lifecycle transition.
type PlayerLifecycleEvent struct {
	baseEvent
	From LifecycleState
	To   LifecycleState
}

// Type returns the event type.
func (e PlayerLifecycleEvent) Type() EventType {
	return EventPlayerLifecycle
}

// NewPlayerLifecycleEvent creates a new PlayerLifecycleEvent.
func NewPlayerLifecycleEvent(from, to LifecycleState) PlayerLifecycleEvent {
	return PlayerLifecycleEvent{
		baseEvent: newBaseEvent(),
		From:      from,
		To:        to,
	}
}

// PlayerSignalEvent is published when the player instance reports a state change.
type PlayerSignalEvent struct {
	baseEvent
	Signal PlayerSignal
}

// Type returns the event type.
func (e PlayerSignalEvent) Type() EventType {
	return EventPlayerSignal
}

// NewPlayerSignalEvent creates a new PlayerSignalEvent.
func NewPlayerSignalEvent(signal PlayerSignal) PlayerSignalEvent {
	return PlayerSignalEvent{
		baseEvent: newBaseEvent(),
		Signal:    signal,
	}
}

// TrackProgressEvent is published on every poll tick while playing.
type TrackProgressEvent struct {
	baseEvent
	Position float64 // seconds
	Duration float64 // seconds
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration float64) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// BootstrapStalledEvent is published once when the player library did not load in time.
type BootstrapStalledEvent struct {
	baseEvent
	Waited time.Duration
}

// Type returns the event type.
func (e BootstrapStalledEvent) Type() EventType {
	return EventBootstrapStalled
}

// NewBootstrapStalledEvent creates a new BootstrapStalledEvent.
func NewBootstrapStalledEvent(waited time.Duration) BootstrapStalledEvent {
	return BootstrapStalledEvent{
		baseEvent: newBaseEvent(),
		Waited:    waited,
	}
}

// PlayerDegradedEvent is published when the adapter stops delivering commands.
type PlayerDegradedEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e PlayerDegradedEvent) Type() EventType {
	return EventPlayerDegraded
}

// NewPlayerDegradedEvent creates a new PlayerDegradedEvent.
func NewPlayerDegradedEvent(reason string) PlayerDegradedEvent {
	return PlayerDegradedEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume int // 0 to 100
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume int) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}
