// ABOUTME: SQLite-backed key-value store for a small set of named UI preferences.
// ABOUTME: Read at startup with documented defaults, written on change; never holds chat history.

package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a preference has never been written.
var ErrNotFound = errors.New("preference not found")

// Store persists named preferences (pinned channel ids, last active channel,
// panel width, theme/layout choice). One row per key.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the preferences database at path. Parent directories
// are created as needed and the schema is applied automatically.
func Open(path string) (*Store, error) {
	logger := slog.Default().With("component", "prefs")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating preferences directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening preferences database: %w", err)
	}

	// WAL keeps concurrent reads cheap while the UI writes on change
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating preferences schema: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value for key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading preference %q: %w", key, err)
	}
	return value, nil
}

// GetDefault returns the stored value or fallback if the key was never set.
func (s *Store) GetDefault(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set writes a preference, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing preference %q: %w", key, err)
	}
	return nil
}

// Delete removes a preference. Removing an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM preferences WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting preference %q: %w", key, err)
	}
	return nil
}

// GetInt reads an integer preference, or fallback if unset.
func (s *Store) GetInt(ctx context.Context, key string, fallback int) (int, error) {
	value, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("preference %q is not an integer: %w", key, err)
	}
	return n, nil
}

// SetInt writes an integer preference.
func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	return s.Set(ctx, key, strconv.Itoa(value))
}

// GetStrings reads a string-list preference, or nil if unset.
func (s *Store) GetStrings(ctx context.Context, key string) ([]string, error) {
	value, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("preference %q is not a string list: %w", key, err)
	}
	return out, nil
}

// SetStrings writes a string-list preference.
func (s *Store) SetStrings(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding preference %q: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
