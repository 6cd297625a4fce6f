// Package service provides business logic for the MoodTune player core.
package service

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// HistoryRecorder records a play event into the listening history.
// It reports whether the history changed.
type HistoryRecorder interface {
	Record(mood string, item domain.MediaItem) bool
}

// SessionService owns the single playback session of the process.
// Every mutation is published as a SessionChangedEvent; subscribers observe
// mutations in the order they happened.
type SessionService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	bus      ports.EventBus
	recorder HistoryRecorder

	// State
	session domain.PlaybackSession

	// dispatchMu serializes mutate-then-publish sequences
	dispatchMu sync.Mutex
	// mu guards session for readers
	mu sync.RWMutex
}

// NewSessionService creates a new session service.
// recorder may be nil, in which case plays are not recorded.
func NewSessionService(
	logger *slog.Logger,
	bus ports.EventBus,
	recorder HistoryRecorder,
) *SessionService {
	s := &SessionService{
		logger:   logger.With(slog.String("service", "SessionService")),
		bus:      bus,
		recorder: recorder,
	}

	s.logger.Debug("session service initialized")

	return s
}

// PlayItem selects the described item and requests playback.
// An empty mood is recorded as domain.DefaultMood.
func (s *SessionService) PlayItem(id, title, artist, thumbnail, mood string) {
	s.Play(domain.MediaItem{
		ID:        id,
		Title:     title,
		Artist:    artist,
		Thumbnail: thumbnail,
	}, mood)
}

// Play selects item and requests playback.
// The change is published, the play is recorded, and then a NowPlayingEvent follows.
func (s *SessionService) Play(item domain.MediaItem, mood string) {
	if strings.TrimSpace(mood) == "" {
		mood = domain.DefaultMood
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	prev, cur := s.mutate(func(sess *domain.PlaybackSession) {
		selected := item
		sess.CurrentItem = &selected
		sess.IsPlaying = true
	})

	s.logger.Debug("play item",
		slog.String("id", item.ID),
		slog.String("title", item.Title),
		slog.String("mood", mood))

	s.bus.Publish(domain.NewSessionChangedEvent(prev, cur))

	if s.recorder != nil {
		s.recorder.Record(mood, item)
	}

	s.bus.Publish(domain.NewNowPlayingEvent(item, mood))
}

// Stop clears the selected item and stops playback.
func (s *SessionService) Stop() {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	prev, cur := s.mutate(func(sess *domain.PlaybackSession) {
		sess.CurrentItem = nil
		sess.IsPlaying = false
	})

	s.logger.Debug("stop", slog.String("previous_id", prev.CurrentID()))

	s.bus.Publish(domain.NewSessionChangedEvent(prev, cur))
}

// SetPlaying pauses or resumes the selected item without recording history.
// It is a no-op when nothing is selected or the flag is unchanged.
func (s *SessionService) SetPlaying(playing bool) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.RLock()
	noop := s.session.CurrentItem == nil || s.session.IsPlaying == playing
	s.mu.RUnlock()
	if noop {
		return
	}

	prev, cur := s.mutate(func(sess *domain.PlaybackSession) {
		sess.IsPlaying = playing
	})

	s.logger.Debug("set playing", slog.Bool("playing", playing))

	s.bus.Publish(domain.NewSessionChangedEvent(prev, cur))
}

// State returns a copy of the current session.
func (s *SessionService) State() domain.PlaybackSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// mutate applies fn to the session and returns copies of the session before and after.
func (s *SessionService) mutate(fn func(sess *domain.PlaybackSession)) (prev, cur domain.PlaybackSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev = s.session.Clone()
	fn(&s.session)
	return prev, s.session.Clone()
}
