// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that adapters and services can return.
var (
	// ErrKeyNotFound is returned by key-value stores when a key holds no value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidKey is returned when a storage key contains unsupported characters.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrInvalidMediaItem is returned when a media item has no ID.
	ErrInvalidMediaItem = errors.New("invalid media item: id is required")

	// ErrNotReady is returned when an operation needs a ready player.
	ErrNotReady = errors.New("player not ready")

	// ErrPlayerDestroyed is returned when a destroyed player instance is used.
	ErrPlayerDestroyed = errors.New("player destroyed")

	// ErrLibraryNotLoaded is returned when a player is requested before the library loaded.
	ErrLibraryNotLoaded = errors.New("player library not loaded")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrPreferencesUnavailable is returned when the preferences backend has no preferences store.
	ErrPreferencesUnavailable = errors.New("preferences store unavailable")

	// ErrUnknownBackend is returned when configuration names an unsupported backend.
	ErrUnknownBackend = errors.New("unknown backend")
)

// PlayerError represents an error from an external player library.
type PlayerError struct {
	Op      string // Operation that failed (e.g., "load", "seek", "dial")
	Backend string // Player backend (e.g., "mpd", "mock")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *PlayerError) Error() string {
	return fmt.Sprintf("player %s %s failed: %s", e.Backend, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError.
func NewPlayerError(op, backend, message string, err error) *PlayerError {
	return &PlayerError{
		Op:      op,
		Backend: backend,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository or store.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "delete")
	Type    string // Repository type (e.g., "history", "sqlite", "file")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "HistoryService", "App")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
