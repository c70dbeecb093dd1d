// Package store provides SQLite database access for fitrank.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fitrank/fitrank/internal/platform"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle for the fitrank database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if necessary) the database at path.
// Use ":memory:" for in-memory databases (useful for testing).
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
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

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// CreateSchema creates all tables and indexes. The statements are
// idempotent; calling this against a populated database alters nothing.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// MissingTables returns the domain tables that do not exist.
func (s *Store) MissingTables() ([]string, error) {
	var missing []string
	for _, table := range DomainTables {
		exists, err := s.TableExists(table)
		if err != nil {
			return nil, err
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

// TableExists reports whether the named table exists.
func (s *Store) TableExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// Counts returns the row counts of the domain tables. A table that does
// not exist yet counts as zero rows rather than an error, so counts can be
// captured before any schema operation has run.
func (s *Store) Counts() (Counts, error) {
	var c Counts

	accounts, err := s.countTable(TableAccounts)
	if err != nil {
		return Counts{}, err
	}
	c.Accounts = accounts

	scans, err := s.countTable(TableScans)
	if err != nil {
		return Counts{}, err
	}
	c.Scans = scans

	scores, err := s.countTable(TableScores)
	if err != nil {
		return Counts{}, err
	}
	c.Scores = scores

	return c, nil
}

func (s *Store) countTable(table string) (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	if err != nil {
		if isNoSuchTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// ApplyTuning applies the derived engine settings to the live handle.
func (s *Store) ApplyTuning(cfg platform.DBConfig) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", cfg.JournalMode),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.Synchronous),
		fmt.Sprintf("PRAGMA temp_store = %s", cfg.TempStore),
		fmt.Sprintf("PRAGMA cache_size = -%d", cfg.CacheSizeKB),
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	if cfg.WALAutoCheckpoint > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA wal_autocheckpoint = %d", cfg.WALAutoCheckpoint))
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// Checkpoint flushes and truncates the write-ahead log so the main file
// alone holds all committed data.
func (s *Store) Checkpoint() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}

// isNoSuchTable checks if an error indicates a missing table.
func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
