// Package sqlite provides a KeyValueStore backed by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Store is a key-value store in a single SQLite table.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens (or creates) the database at path. Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewRepositoryError("open", "sqlite", "failed to open database", err)
	}

	// One connection keeps in-memory databases consistent and serializes writers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, domain.NewRepositoryError("open", "sqlite", fmt.Sprintf("failed to set %q", pragma), err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", "sqlite", "failed to create schema", err)
	}

	return &Store{db: db, timeout: 10 * time.Second}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", domain.NewRepositoryError("get", "sqlite", "failed to query value", err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
		return domain.NewRepositoryError("set", "sqlite", "failed to upsert value", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return domain.NewRepositoryError("delete", "sqlite", "failed to delete value", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
