package guard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fitrank/fitrank/internal/backup"
)

// snapshotTimeLayout mirrors the on-disk naming convention, which is
// stable across versions.
const snapshotTimeLayout = "20060102-150405"

// renameSnapshotAge renames a snapshot so its embedded timestamp reads as
// hoursAgo hours in the past, and returns the new name.
func renameSnapshotAge(t *testing.T, dir string, rec backup.Record, hoursAgo int) string {
	t.Helper()
	stamp := time.Now().Add(-time.Duration(hoursAgo) * time.Hour).Format(snapshotTimeLayout)
	name := "fitrank_" + stamp + ".db"
	if err := os.Rename(rec.Path, filepath.Join(dir, name)); err != nil {
		t.Fatalf("Failed to rename snapshot: %v", err)
	}
	return name
}

// writeTinySnapshot drops a file below any plausible database size into
// the backup directory, named minutesAgo minutes in the past.
func writeTinySnapshot(t *testing.T, dir string, minutesAgo int) string {
	t.Helper()
	stamp := time.Now().Add(-time.Duration(minutesAgo) * time.Minute).Format(snapshotTimeLayout)
	name := "fitrank_" + stamp + ".db"
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, 100), 0o644); err != nil {
		t.Fatalf("Failed to write tiny snapshot: %v", err)
	}
	return name
}
