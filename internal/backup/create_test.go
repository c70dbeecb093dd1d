package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fitrank/fitrank/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPopulatedStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(dir, "fitrank.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}
	if _, err := s.DB().Exec("INSERT INTO accounts (email, display_name) VALUES ('a@example.com', 'A')"); err != nil {
		t.Fatalf("Failed to insert account: %v", err)
	}
	if _, err := s.DB().Exec("INSERT INTO scans (account_id, scanned_at) VALUES (1, '2026-08-01T10:00:00Z')"); err != nil {
		t.Fatalf("Failed to insert scan: %v", err)
	}
	return s
}

func TestCreateSnapshot(t *testing.T) {
	tempDir := t.TempDir()
	backupDir := filepath.Join(tempDir, "backups")
	s := newPopulatedStore(t, tempDir)

	manager := New(s.DB(), backupDir, discardLogger())

	rec, err := manager.Create(context.Background(), "test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.HasPrefix(rec.Name, "fitrank_") || !strings.HasSuffix(rec.Name, ".db") {
		t.Errorf("Unexpected snapshot name %q", rec.Name)
	}
	if rec.SizeBytes == 0 {
		t.Error("Expected a non-zero snapshot size")
	}
	if _, err := os.Stat(rec.Path); err != nil {
		t.Errorf("Snapshot file does not exist: %v", err)
	}

	// The snapshot must be an openable database holding the same rows.
	snap, err := store.New(rec.Path)
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	defer snap.Close()

	counts, err := snap.Counts()
	if err != nil {
		t.Fatalf("Counts on snapshot failed: %v", err)
	}
	if counts.Accounts != 1 || counts.Scans != 1 {
		t.Errorf("Expected snapshot counts 1/1, got %+v", counts)
	}
}

func TestCreateSameSecondCollision(t *testing.T) {
	tempDir := t.TempDir()
	backupDir := filepath.Join(tempDir, "backups")
	s := newPopulatedStore(t, tempDir)

	manager := New(s.DB(), backupDir, discardLogger())

	first, err := manager.Create(context.Background(), "test")
	if err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	second, err := manager.Create(context.Background(), "test")
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}

	if first.Name == second.Name {
		t.Errorf("Expected distinct names, both were %q", first.Name)
	}
}

func TestListOrdering(t *testing.T) {
	backupDir := t.TempDir()
	manager := New(nil, backupDir, discardLogger())

	// Names embed the ordering; mtimes are deliberately not adjusted.
	now := time.Now()
	writeNamed := func(age time.Duration, size int) string {
		name := "fitrank_" + now.Add(-age).Format(timestampLayout) + ".db"
		if err := os.WriteFile(filepath.Join(backupDir, name), make([]byte, size), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return name
	}

	oldest := writeNamed(2*time.Hour, 100)
	middle := writeNamed(1*time.Hour, 100)
	newest := writeNamed(30*time.Minute, 100)

	// Non-snapshot files are ignored.
	if err := os.WriteFile(filepath.Join(backupDir, "emergency_20260101-000000.db"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write emergency file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write stray file: %v", err)
	}

	records, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Name != newest || records[1].Name != middle || records[2].Name != oldest {
		t.Errorf("Wrong order: %s, %s, %s", records[0].Name, records[1].Name, records[2].Name)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	manager := New(nil, filepath.Join(t.TempDir(), "missing"), discardLogger())
	records, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestPrune(t *testing.T) {
	backupDir := t.TempDir()
	manager := New(nil, backupDir, discardLogger())

	now := time.Now()
	for i := 0; i < 5; i++ {
		name := "fitrank_" + now.Add(-time.Duration(i)*time.Hour).Format(timestampLayout) + ".db"
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("snapshot"), 0o644); err != nil {
			t.Fatalf("Failed to write snapshot: %v", err)
		}
		// Companion to verify it is removed with the main file.
		if i == 4 {
			if err := os.WriteFile(filepath.Join(backupDir, name+"-wal"), []byte("wal"), 0o644); err != nil {
				t.Fatalf("Failed to write companion: %v", err)
			}
		}
	}

	if err := manager.Prune(2); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	records, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records after prune, got %d", len(records))
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "-wal") {
			t.Errorf("Expected companion %s to be pruned with its main file", e.Name())
		}
	}
}

func TestSaveEmergencyExcludedFromList(t *testing.T) {
	tempDir := t.TempDir()
	backupDir := filepath.Join(tempDir, "backups")
	s := newPopulatedStore(t, tempDir)
	s.Close()

	manager := New(nil, backupDir, discardLogger())

	path, err := manager.SaveEmergency(filepath.Join(tempDir, "fitrank.db"))
	if err != nil {
		t.Fatalf("SaveEmergency failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Emergency copy does not exist: %v", err)
	}

	records, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected emergency copies to be excluded from listing, got %d records", len(records))
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"fitrank_20260823-101500.db", true},
		{"fitrank_20260823-101500_01.db", true},
		{"fitrank_garbage.db", false},
		{"fitrank_.db", false},
	}
	for _, tt := range tests {
		if _, ok := parseTimestamp(tt.name); ok != tt.ok {
			t.Errorf("parseTimestamp(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}
