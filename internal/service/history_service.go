package service

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// HistoryService aggregates play events into the mood-tagged listening history.
//
// Plays are grouped by (mood, date, minute). A song already present in its
// group is ignored; otherwise it is prepended to the group, and a new group is
// prepended to the log when none matches. Every change is written through to
// the repository. Persistence failures are logged and never surface to callers.
type HistoryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	repo   ports.HistoryRepository
	bus    ports.EventBus

	// State
	log   domain.HistoryLog
	now   func() time.Time
	newID func() string

	mu sync.RWMutex
}

// NewHistoryService creates a history service and loads the persisted log.
func NewHistoryService(
	logger *slog.Logger,
	repo ports.HistoryRepository,
	bus ports.EventBus,
) *HistoryService {
	s := &HistoryService{
		logger: logger.With(slog.String("service", "HistoryService")),
		repo:   repo,
		bus:    bus,
		now:    time.Now,
		newID:  uuid.NewString,
	}

	s.log = repo.Load()
	if s.log == nil {
		s.log = domain.HistoryLog{}
	}

	s.logger.Debug("history service initialized", slog.Int("entries", len(s.log)))

	return s
}

// SetClock replaces the wall clock used to bucket plays (for testing).
func (s *HistoryService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Record adds a play of item under mood and reports whether the log changed.
// An empty mood is recorded as domain.DefaultMood. Items without an ID are ignored.
func (s *HistoryService) Record(mood string, item domain.MediaItem) bool {
	if item.ID == "" {
		s.logger.Warn("ignoring play without item id", slog.String("title", item.Title))
		return false
	}
	if strings.TrimSpace(mood) == "" {
		mood = domain.DefaultMood
	}

	s.mu.Lock()

	bucket := domain.NewBucket(mood, s.now())
	if i := s.log.Find(bucket); i >= 0 {
		entry := &s.log[i]
		if entry.HasSong(item.ID) {
			s.mu.Unlock()
			return false
		}
		songs := make([]domain.MediaItem, 0, len(entry.Songs)+1)
		songs = append(songs, item)
		entry.Songs = append(songs, entry.Songs...)
	} else {
		entry := domain.HistoryEntry{
			ID:    s.newID(),
			Mood:  bucket.Mood,
			Date:  bucket.Date,
			Time:  bucket.Time,
			Songs: []domain.MediaItem{item},
		}
		log := make(domain.HistoryLog, 0, len(s.log)+1)
		log = append(log, entry)
		s.log = append(log, s.log...)
	}

	snapshot := s.log.Clone()
	s.persistLocked(snapshot)
	s.mu.Unlock()

	s.logger.Debug("play recorded",
		slog.String("mood", bucket.Mood),
		slog.String("date", bucket.Date),
		slog.String("time", bucket.Time),
		slog.String("id", item.ID))

	s.bus.Publish(domain.NewHistoryChangedEvent(snapshot))
	return true
}

// Clear empties the history and removes it from storage.
func (s *HistoryService) Clear() {
	s.mu.Lock()
	s.log = domain.HistoryLog{}
	if err := s.repo.Clear(); err != nil {
		s.logger.Error("failed to clear persisted history", slog.Any("error", err))
	}
	s.mu.Unlock()

	s.logger.Info("history cleared")

	s.bus.Publish(domain.NewHistoryClearedEvent())
}

// Log returns a deep copy of the history, newest entry first.
func (s *HistoryService) Log() domain.HistoryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Clone()
}

// persistLocked writes the log through to the repository. Failures keep the in-memory log.
func (s *HistoryService) persistLocked(log domain.HistoryLog) {
	if err := s.repo.Save(log); err != nil {
		s.logger.Error("failed to persist history", slog.Any("error", err))
	}
}

// Verify that HistoryService records plays for the session
var _ HistoryRecorder = (*HistoryService)(nil)
