package output

import (
	"strings"
	"testing"
	"time"

	"github.com/fitrank/fitrank/internal/backup"
)

func TestRenderSnapshotTable(t *testing.T) {
	records := []backup.Record{
		{Name: "fitrank_20260823-101500.db", CreatedAt: time.Now().Add(-time.Hour), SizeBytes: 32768},
		{Name: "fitrank_20260822-101500.db", CreatedAt: time.Now().Add(-25 * time.Hour), SizeBytes: 28672},
	}

	out := RenderSnapshotTable(records)

	if !strings.Contains(out, "fitrank_20260823-101500.db") {
		t.Errorf("Expected snapshot name in output, got:\n%s", out)
	}
	if !strings.Contains(out, "33 kB") {
		t.Errorf("Expected humanized size in output, got:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 { // header, rule, two rows
		t.Errorf("Expected 4 lines, got %d:\n%s", len(lines), out)
	}
}

func TestRenderSnapshotTableEmpty(t *testing.T) {
	out := RenderSnapshotTable(nil)
	if !strings.Contains(out, "No snapshots found") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a-very-long-snapshot-name", 10, "a-very-..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
