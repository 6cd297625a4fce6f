// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the MoodTune player core.
package domain

import (
	"strings"
	"time"
)

// DefaultMood is the mood label used when a play request carries none.
const DefaultMood = "Music"

// Bucket key layouts. Dates are day/month/year, times are 24-hour hour:minute.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// MediaItem identifies a playable item of the external player.
// It is a value type and is never mutated once captured into an event or entry.
type MediaItem struct {
	// ID is the opaque identifier understood by the external player
	ID string `json:"id"`

	// Title is the display title
	Title string `json:"title"`

	// Artist is the display artist or channel name
	Artist string `json:"artist"`

	// Thumbnail is a URL (or data URI) of the item artwork
	Thumbnail string `json:"thumbnail"`
}

// Validate returns ErrInvalidMediaItem when the item has no usable ID.
func (m MediaItem) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrInvalidMediaItem
	}
	return nil
}

// PlaybackSession is the currently selected item and the playing flag.
type PlaybackSession struct {
	// CurrentItem is the selected item (nil if none)
	CurrentItem *MediaItem

	// IsPlaying reports whether playback of CurrentItem is requested
	IsPlaying bool
}

// CurrentID returns the ID of the selected item, or "" if none.
func (s PlaybackSession) CurrentID() string {
	if s.CurrentItem == nil {
		return ""
	}
	return s.CurrentItem.ID
}

// Clone returns a copy that shares no memory with s.
func (s PlaybackSession) Clone() PlaybackSession {
	if s.CurrentItem == nil {
		return s
	}
	item := *s.CurrentItem
	return PlaybackSession{CurrentItem: &item, IsPlaying: s.IsPlaying}
}

// Bucket is the (mood, date, minute) key grouping play events into one history entry.
type Bucket struct {
	Mood string
	Date string
	Time string
}

// NewBucket builds the bucket for a play of the given mood at instant t.
func NewBucket(mood string, t time.Time) Bucket {
	return Bucket{
		Mood: mood,
		Date: t.Format(DateLayout),
		Time: t.Format(TimeLayout),
	}
}

// HistoryEntry groups the songs played under one mood within one minute.
// Songs are ordered newest first and unique by ID.
type HistoryEntry struct {
	ID    string      `json:"id"`
	Mood  string      `json:"mood"`
	Date  string      `json:"date"`
	Time  string      `json:"time"`
	Songs []MediaItem `json:"songs"`
}

// Bucket returns the key of the entry.
func (e HistoryEntry) Bucket() Bucket {
	return Bucket{Mood: e.Mood, Date: e.Date, Time: e.Time}
}

// HasSong reports whether a song with the given ID is already in the entry.
func (e HistoryEntry) HasSong(id string) bool {
	for _, s := range e.Songs {
		if s.ID == id {
			return true
		}
	}
	return false
}

// HistoryLog is the ordered listening history, newest entry first.
// At most one entry exists per bucket.
type HistoryLog []HistoryEntry

// Find returns the index of the entry for bucket b, or -1.
func (l HistoryLog) Find(b Bucket) int {
	for i, e := range l {
		if e.Bucket() == b {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the log. The result is never nil.
func (l HistoryLog) Clone() HistoryLog {
	out := make(HistoryLog, len(l))
	for i, e := range l {
		songs := make([]MediaItem, len(e.Songs))
		copy(songs, e.Songs)
		e.Songs = songs
		out[i] = e
	}
	return out
}

// LifecycleState is the lifecycle of an external player adapter.
// Transitions only move forward; Destroyed is terminal.
type LifecycleState int

const (
	// StateUninitialized indicates the adapter has not been started
	StateUninitialized LifecycleState = iota

	// StateBootstrappingAPI indicates the player library is being loaded
	StateBootstrappingAPI

	// StateInitializing indicates the player instance was created and is not ready yet
	StateInitializing

	// StateReady indicates commands are delivered to the player instance
	StateReady

	// StateDestroyed indicates the adapter was disposed
	StateDestroyed
)

// String returns a human-readable representation of the lifecycle state.
func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBootstrappingAPI:
		return "bootstrapping_api"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// PlayerSignal is a state change reported by the external player instance.
type PlayerSignal int

const (
	// SignalUnstarted indicates nothing was played yet
	SignalUnstarted PlayerSignal = iota

	// SignalPlaying indicates playback started or resumed
	SignalPlaying

	// SignalPaused indicates playback was paused
	SignalPaused

	// SignalEnded indicates the item played to its end
	SignalEnded

	// SignalBuffering indicates the player is waiting for data
	SignalBuffering
)

// String returns a human-readable representation of the signal.
func (s PlayerSignal) String() string {
	switch s {
	case SignalUnstarted:
		return "unstarted"
	case SignalPlaying:
		return "playing"
	case SignalPaused:
		return "paused"
	case SignalEnded:
		return "ended"
	case SignalBuffering:
		return "buffering"
	default:
		return "unknown"
	}
}

// PlayerSnapshot is the adapter state exposed for display.
type PlayerSnapshot struct {
	State LifecycleState `json:"-"`

	// StateName mirrors State for serialized consumers
	StateName string `json:"state"`

	Ready    bool `json:"ready"`
	Degraded bool `json:"degraded"`
	Stalled  bool `json:"stalled"`

	// Polling reports whether the position poller is running
	Polling bool `json:"polling"`

	// Position and Duration are in seconds
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`

	// Volume is 0..100
	Volume int  `json:"volume"`
	Muted  bool `json:"muted"`
}
