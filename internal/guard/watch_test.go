package guard

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards the log buffer, since the watcher writes from its own
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatcherReportsRemovedDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fitrank.db")
	if err := os.WriteFile(dbPath, []byte("db"), 0o644); err != nil {
		t.Fatalf("Failed to write database file: %v", err)
	}

	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	w, err := NewWatcher(dbPath, logger)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(dbPath); err != nil {
		t.Fatalf("Failed to remove database file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "disappeared") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Expected the watcher to log the removed database file")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fitrank.db")
	otherPath := filepath.Join(dir, "other.txt")
	for _, p := range []string{dbPath, otherPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", p, err)
		}
	}

	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	w, err := NewWatcher(dbPath, logger)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.Remove(otherPath); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if strings.Contains(out.String(), "disappeared") {
		t.Errorf("Expected no report for unrelated files, got log: %s", out.String())
	}
}

func TestNewWatcherRequiresPath(t *testing.T) {
	if _, err := NewWatcher("", nil); err == nil {
		t.Error("Expected an error for an empty path")
	}
}
