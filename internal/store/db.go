// Package store keeps the debtune history ledger in SQLite.
//
// The ledger is an audit log only: restore selection always works from the
// backup directory on disk, never from these rows.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotInitialized is returned when the ledger tables do not exist yet.
var ErrNotInitialized = errors.New("history ledger not initialized; run 'debtune backup' or 'debtune optimize' first")

// Store provides SQLite database operations for debtune.
type Store struct {
	db *sql.DB
}

// New opens the ledger at dbPath.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// wrapQueryErr maps "no such table" errors to ErrNotInitialized.
func wrapQueryErr(op string, err error) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
