package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Create writes a self-consistent snapshot of the live database and
// returns its record. It uses the engine's atomic export (VACUUM INTO)
// after a WAL checkpoint, never a byte copy of a file that may be
// concurrently written: a naive copy can capture a torn write-ahead-log
// state. reason is recorded in the audit log.
func (m *Manager) Create(ctx context.Context, reason string) (Record, error) {
	if m.db == nil {
		return Record{}, fmt.Errorf("snapshot manager has no database handle")
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Record{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := time.Now()
	path, err := m.freePath(snapshotPrefix, now)
	if err != nil {
		return Record{}, err
	}

	// Merge the WAL into the main file first so the export sees every
	// committed write.
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return Record{}, fmt.Errorf("failed to checkpoint WAL before snapshot: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		os.Remove(path)
		return Record{}, fmt.Errorf("failed to export snapshot: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	rec := Record{
		Name:      filepath.Base(path),
		Path:      path,
		CreatedAt: now,
		SizeBytes: info.Size(),
	}

	m.logger.Info("snapshot created",
		"name", rec.Name,
		"size_bytes", rec.SizeBytes,
		"reason", reason)

	return rec, nil
}

// SaveEmergency copies the file set at srcPath into the backup directory
// under an emergency name. It is a plain file copy and is only safe when
// no open handle can be writing to srcPath; the failsafe calls it after
// closing the live engine, to preserve forensic evidence of a failure.
// Emergency copies are never restoration candidates.
func (m *Manager) SaveEmergency(srcPath string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.freePath(emergencyPrefix, time.Now())
	if err != nil {
		return "", err
	}

	if err := CopyFileSet(srcPath, path); err != nil {
		return "", fmt.Errorf("failed to save emergency copy: %w", err)
	}

	m.logger.Warn("emergency copy of live database saved", "path", path)
	return path, nil
}

// List returns the restorable snapshots in the backup directory, newest
// first. The timestamp parsed from each name is the primary ordering key;
// file mtime is only a fallback for names that fail to parse.
func (m *Manager) List() ([]Record, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		createdAt, ok := parseTimestamp(name)
		if !ok {
			createdAt = info.ModTime()
		}

		records = append(records, Record{
			Name:      name,
			Path:      filepath.Join(m.dir, name),
			CreatedAt: createdAt,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// Prune removes the oldest snapshots beyond the retention count, together
// with their write-ahead-log companions. Failures are logged and skipped;
// pruning is never fatal.
func (m *Manager) Prune(retain int) error {
	if retain < 1 {
		retain = 1
	}

	records, err := m.List()
	if err != nil {
		return err
	}
	if len(records) <= retain {
		return nil
	}

	for _, rec := range records[retain:] {
		if err := RemoveFileSet(rec.Path); err != nil {
			m.logger.Warn("failed to prune snapshot", "name", rec.Name, "error", err)
			continue
		}
		m.logger.Info("pruned snapshot", "name", rec.Name)
	}

	return nil
}

// freePath returns an unused path under the backup directory for the given
// prefix and timestamp, appending a sequence suffix on collision.
func (m *Manager) freePath(prefix string, ts time.Time) (string, error) {
	stamp := ts.Format(timestampLayout)
	for seq := 0; seq < 100; seq++ {
		name := prefix + stamp + snapshotExt
		if seq > 0 {
			name = fmt.Sprintf("%s%s_%02d%s", prefix, stamp, seq, snapshotExt)
		}
		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("could not find a free snapshot name for %s", stamp)
}

// parseTimestamp extracts the creation time embedded in a snapshot name.
func parseTimestamp(name string) (time.Time, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotExt)
	if i := strings.IndexByte(trimmed, '_'); i >= 0 {
		trimmed = trimmed[:i]
	}
	ts, err := time.ParseInLocation(timestampLayout, trimmed, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
