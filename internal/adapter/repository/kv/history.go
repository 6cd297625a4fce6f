// Package kv provides repository implementations over any ports.KeyValueStore.
package kv

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// DefaultHistoryKey is the storage key holding the serialized history log.
const DefaultHistoryKey = "playbackHistory"

// HistoryRepository implements ports.HistoryRepository on a key-value store.
// The whole log is stored as one JSON array under a single key.
//
// Thread-safe: All operations protected by sync.Mutex.
type HistoryRepository struct {
	logger *slog.Logger
	store  ports.KeyValueStore
	key    string
	mu     sync.Mutex
}

// NewHistoryRepository creates a history repository on store.
// An empty key selects DefaultHistoryKey.
func NewHistoryRepository(logger *slog.Logger, store ports.KeyValueStore, key string) *HistoryRepository {
	if key == "" {
		key = DefaultHistoryKey
	}
	return &HistoryRepository{
		logger: logger.With(slog.String("component", "HistoryRepository"), slog.String("key", key)),
		store:  store,
		key:    key,
	}
}

// Load retrieves the persisted log.
// Missing, empty, null or malformed data yields an empty log.
func (r *HistoryRepository) Load() domain.HistoryLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Get(r.key)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			r.logger.Warn("failed to read persisted history", slog.Any("error", err))
		}
		return domain.HistoryLog{}
	}

	trimmed := bytes.TrimSpace([]byte(data))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.HistoryLog{}
	}

	var log domain.HistoryLog
	if err := json.Unmarshal(trimmed, &log); err != nil {
		r.logger.Warn("discarding malformed persisted history", slog.Any("error", err))
		return domain.HistoryLog{}
	}

	if log == nil {
		return domain.HistoryLog{}
	}
	for i := range log {
		if log[i].Songs == nil {
			log[i].Songs = []domain.MediaItem{}
		}
	}
	return log
}

// Save persists the complete log.
func (r *HistoryRepository) Save(log domain.HistoryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if log == nil {
		log = domain.HistoryLog{}
	}

	data, err := json.Marshal(log)
	if err != nil {
		return domain.NewRepositoryError("save", "history", "failed to marshal history", err)
	}

	if err := r.store.Set(r.key, string(data)); err != nil {
		return domain.NewRepositoryError("save", "history", "failed to write history", err)
	}
	return nil
}

// Clear removes the persisted log.
func (r *HistoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(r.key); err != nil {
		return domain.NewRepositoryError("clear", "history", "failed to delete history", err)
	}
	return nil
}

// Verify that HistoryRepository implements the HistoryRepository interface
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
