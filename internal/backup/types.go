// Package backup creates, lists, and prunes point-in-time snapshots of the
// fitrank database. The backup directory is the source of truth: there is
// no separate index, records are derived by listing it.
package backup

import (
	"database/sql"
	"log/slog"
	"time"
)

const (
	// snapshotPrefix marks restorable snapshots. The restoration path
	// depends on this naming staying stable across versions.
	snapshotPrefix = "fitrank_"

	// emergencyPrefix marks forensic copies of a failed database. They are
	// never selected as restoration candidates.
	emergencyPrefix = "emergency_"

	snapshotExt = ".db"

	// timestampLayout embeds a lexicographically sortable timestamp in
	// every snapshot name, so recency ordering does not depend on
	// filesystem metadata alone.
	timestampLayout = "20060102-150405"
)

// Record represents one snapshot file on disk.
type Record struct {
	Name      string
	Path      string
	CreatedAt time.Time
	SizeBytes int64
}

// Age returns how long ago the snapshot was created.
func (r Record) Age() time.Duration {
	return time.Since(r.CreatedAt)
}

// Manager manages snapshot creation, listing, and retention pruning.
type Manager struct {
	db     *sql.DB
	dir    string
	logger *slog.Logger
}

// New creates a snapshot Manager writing to dir. db is the live handle
// used for the engine's atomic export; it may be nil for managers that
// only list or prune.
func New(db *sql.DB, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, dir: dir, logger: logger}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}
