// Package prefs provides a KeyValueStore using Fyne preferences.
package prefs

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Store implements ports.KeyValueStore using Fyne preferences.
//
// Fyne preferences automatically use OS-specific app data directories:
// - macOS: ~/Library/Preferences/<app id>.plist
// - Linux: ~/.config/fyne/<app id>/
// - Windows: %APPDATA%\fyne\<app id>\
//
// Fyne returns "" for keys that were never set, so an empty value reads as missing.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewStore creates a store on prefs.
// The preferences parameter is usually obtained from fyne.CurrentApp().Preferences().
func NewStore(prefs fyne.Preferences) (*Store, error) {
	if prefs == nil {
		return nil, domain.ErrPreferencesUnavailable
	}
	return &Store{prefs: prefs}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value := s.prefs.String(key)
	if value == "" {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.SetString(key, value)
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.RemoveValue(key)
	return nil
}

// Close is a no-op; the preferences belong to the Fyne app.
func (s *Store) Close() error {
	return nil
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
