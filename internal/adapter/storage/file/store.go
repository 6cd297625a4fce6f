// Package file provides a KeyValueStore that keeps each key in its own file.
// Writes go to a temporary file that is synced and renamed over the target,
// so a crash never leaves a half-written value behind.
package file

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// validKey restricts keys to names that are safe as file names on every platform.
var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store keeps the value of each key in <dir>/<key>.json.
type Store struct {
	logger *slog.Logger
	dir    string
	perm   os.FileMode
	mu     sync.RWMutex
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(logger *slog.Logger, dir string) (*Store, error) {
	if dir == "" {
		return nil, domain.ErrInvalidFilePath
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.NewRepositoryError("open", "file", "failed to create data directory", err)
	}
	return &Store{
		logger: logger.With(slog.String("component", "FileStore")),
		dir:    dir,
		perm:   0o600,
	}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", domain.NewRepositoryError("get", "file", "failed to read value", err)
	}
	return string(data), nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomicWriteFile(s.logger, path, []byte(value), s.perm); err != nil {
		return domain.NewRepositoryError("set", "file", "failed to write value", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.NewRepositoryError("delete", "file", "failed to remove value", err)
	}
	return nil
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error {
	return nil
}

// atomicWriteFile writes data through a temporary file in the same directory
// and renames it over filename.
func atomicWriteFile(logger *slog.Logger, filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(filename)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	var success bool
	defer func() {
		if !success {
			if err := os.Remove(tempFile.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("failed to remove temporary file", slog.String("path", tempFile.Name()), slog.Any("error", err))
			}
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %q: %w", tempFile.Name(), err)
	}
	if err := os.Chmod(tempFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tempFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
