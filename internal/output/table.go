// Package output provides terminal output utilities for the fitrank CLI.
//
// Table rendering uses ASCII characters only; rows stay stable under
// redirection so command output is safe to pipe.
package output

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fitrank/fitrank/internal/backup"
)

// RenderSnapshotTable renders the snapshot list, newest first. The input
// is expected pre-sorted, as backup.Manager.List returns it.
func RenderSnapshotTable(records []backup.Record) string {
	if len(records) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-40s %-10s %s\n", "Name", "Size", "Created"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("%-40s %-10s %s\n",
			truncate(rec.Name, 40),
			humanize.Bytes(uint64(rec.SizeBytes)),
			humanize.Time(rec.CreatedAt)))
	}

	return sb.String()
}

// truncate shortens s to max runes, with an ellipsis when cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
