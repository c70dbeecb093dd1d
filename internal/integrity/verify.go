// Package integrity inspects a fitrank database file and reports its
// health without modifying it.
package integrity

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/fitrank/fitrank/internal/store"
	_ "modernc.org/sqlite"
)

// Report describes the state of one database file at one point in time.
// A report with no issues is structurally valid; it says nothing about
// whether the database should be empty. That interpretation belongs to
// the caller.
type Report struct {
	Path      string
	Exists    bool
	Readable  bool
	Writable  bool
	SizeBytes int64
	ModTime   time.Time

	JournalMode   string
	Counts        store.Counts
	MissingTables []string
	HasWAL        bool

	Issues []string
}

// Valid reports whether the verifier found no issues.
func (r Report) Valid() bool {
	return len(r.Issues) == 0
}

// Age returns how long ago the database file was last modified.
func (r Report) Age() time.Duration {
	if r.ModTime.IsZero() {
		return 0
	}
	return time.Since(r.ModTime)
}

// Verify inspects the database at path. It checks file presence and
// permissions, runs the engine's quick consistency check, and counts rows
// in each domain table. A missing table is recorded as an issue, not an
// error; only unexpected engine failures return a non-nil error.
//
// Verify opens its own read-only connection, so it can be run against a
// backup candidate without touching the live handle.
func Verify(path string) (Report, error) {
	report := Report{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		report.Issues = append(report.Issues, "database file does not exist")
		return report, nil
	}
	report.Exists = true
	report.SizeBytes = info.Size()
	report.ModTime = info.ModTime()

	report.Readable = checkReadable(path)
	if !report.Readable {
		report.Issues = append(report.Issues, "database file is not readable")
	}
	report.Writable = checkWritable(path)
	if !report.Writable {
		report.Issues = append(report.Issues, "database file is not writable")
	}

	// The main file and its write-ahead log are one atomic unit: a WAL
	// companion we cannot read means part of the committed data is
	// unreachable, so the file set is invalid.
	if walInfo, err := os.Stat(path + "-wal"); err == nil {
		report.HasWAL = true
		if walInfo.Size() > 0 && !checkReadable(path+"-wal") {
			report.Issues = append(report.Issues, "write-ahead log companion exists but is not readable")
		}
	}

	if !report.Readable {
		return report, nil
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return report, fmt.Errorf("failed to open database read-only: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	var check string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&check); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("quick_check failed: %v", err))
		return report, nil
	}
	if check != "ok" {
		report.Issues = append(report.Issues, fmt.Sprintf("quick_check reported: %s", check))
	}

	if err := db.QueryRow("PRAGMA journal_mode").Scan(&report.JournalMode); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("failed to read journal_mode: %v", err))
	}

	for _, table := range store.DomainTables {
		n, exists, err := countIfExists(db, table)
		if err != nil {
			return report, err
		}
		if !exists {
			report.MissingTables = append(report.MissingTables, table)
			report.Issues = append(report.Issues, fmt.Sprintf("table %s is missing", table))
			continue
		}
		switch table {
		case store.TableAccounts:
			report.Counts.Accounts = n
		case store.TableScans:
			report.Counts.Scans = n
		case store.TableScores:
			report.Counts.Scores = n
		}
	}

	return report, nil
}

// countIfExists returns the row count of table, or exists=false when the
// table is absent.
func countIfExists(db *sql.DB, table string) (n int64, exists bool, err error) {
	var present int
	err = db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&present)
	if err != nil {
		return 0, false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	if present == 0 {
		return 0, false, nil
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		return 0, true, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, true, nil
}

func checkReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func checkWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
