// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

// KeyValueStore is a durable string key-value store.
// Implementations back it with fyne preferences, files, or an sqlite database.
//
// Thread-safety: Implementations must be thread-safe.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// If nothing is stored, returns ("", domain.ErrKeyNotFound).
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value.
	//
	// Returns an error if writing fails.
	Set(key, value string) error

	// Delete removes key.
	// If the key doesn't exist, this is a no-op (no error).
	Delete(key string) error

	// Close releases resources held by the store.
	Close() error
}

// HistoryRepository handles the persistence of the listening history.
// The whole log is stored under a single key and rewritten on every change.
//
// Thread-safety: Implementations must be thread-safe.
type HistoryRepository interface {
	// Load retrieves the persisted history log.
	// Missing or malformed data yields an empty log, never an error.
	Load() domain.HistoryLog

	// Save persists the complete log, newest entry first.
	//
	// Returns an error if saving fails.
	Save(log domain.HistoryLog) error

	// Clear removes the persisted log.
	//
	// Returns an error if clearing fails.
	Clear() error
}
