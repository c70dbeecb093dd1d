// Package health aggregates guard state for the monitoring endpoint. It
// is read-only: reporting never triggers a snapshot or a restoration.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/fitrank/fitrank/internal/backup"
	"github.com/fitrank/fitrank/internal/integrity"
	"github.com/fitrank/fitrank/internal/platform"
)

// Report is the fixed monitoring payload shape. Consumers rely on this
// contract staying stable; fields are never added ad hoc.
type Report struct {
	Status      string          `json:"status"` // healthy or unhealthy
	Database    DatabaseInfo    `json:"database"`
	Persistence PersistenceInfo `json:"persistence"`
	Data        DataCounts      `json:"data"`
	Backup      BackupInfo      `json:"backup"`
	Environment EnvironmentInfo `json:"environment"`
}

type DatabaseInfo struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	SizeBytes  int64  `json:"sizeBytes"`
	AgeSeconds int64  `json:"ageSeconds"`
	Readable   bool   `json:"readable"`
	Writable   bool   `json:"writable"`
}

type PersistenceInfo struct {
	IsConfigured bool     `json:"isConfigured"`
	Warnings     []string `json:"warnings"`
}

type DataCounts struct {
	Accounts int64 `json:"accounts"`
	Scans    int64 `json:"scans"`
	Scores   int64 `json:"scores"`
}

type BackupInfo struct {
	Count            int     `json:"count"`
	MostRecentName   string  `json:"mostRecentName,omitempty"`
	MostRecentAgeHrs float64 `json:"mostRecentAgeHours,omitempty"`
	Warning          string  `json:"warning,omitempty"`
}

type EnvironmentInfo struct {
	Platform     string `json:"platform"`
	IsPersistent bool   `json:"isPersistent"`
}

// Reporter produces Reports on demand. Safe to call repeatedly and
// concurrently with request handling (but not with a restoration, which
// only happens during boot).
type Reporter struct {
	env     platform.Environment
	dbPath  string
	backups *backup.Manager
}

// NewReporter creates a Reporter over the given environment and paths.
func NewReporter(env platform.Environment, dbPath string, backups *backup.Manager) *Reporter {
	return &Reporter{env: env, dbPath: dbPath, backups: backups}
}

// Report gathers the current state. It never fails; problems show up as
// status "unhealthy" and in the embedded fields.
func (r *Reporter) Report() Report {
	report := Report{
		Status: "healthy",
		Environment: EnvironmentInfo{
			Platform:     string(r.env.Platform),
			IsPersistent: r.env.IsPersistent,
		},
		Persistence: PersistenceInfo{
			IsConfigured: r.env.IsPersistent,
			Warnings:     append([]string{}, r.env.Warnings...),
		},
	}

	check, err := integrity.Verify(r.dbPath)
	if err != nil || !check.Valid() {
		report.Status = "unhealthy"
	}
	report.Database = DatabaseInfo{
		Path:      r.dbPath,
		Exists:    check.Exists,
		SizeBytes: check.SizeBytes,
		Readable:  check.Readable,
		Writable:  check.Writable,
	}
	if check.Exists {
		report.Database.AgeSeconds = int64(check.Age().Seconds())
	}
	report.Data = DataCounts{
		Accounts: check.Counts.Accounts,
		Scans:    check.Counts.Scans,
		Scores:   check.Counts.Scores,
	}

	records, err := r.backups.List()
	if err != nil {
		report.Backup.Warning = "backup directory is unreadable"
		report.Status = "unhealthy"
		return report
	}
	report.Backup.Count = len(records)
	if len(records) == 0 {
		report.Backup.Warning = "no backups found"
		return report
	}
	newest := records[0]
	report.Backup.MostRecentName = newest.Name
	report.Backup.MostRecentAgeHrs = newest.Age().Hours()
	if newest.Age().Hours() > 26 {
		report.Backup.Warning = "most recent backup is older than a day"
	}
	return report
}

// Handler serves the report as JSON, 200 when healthy and 503 otherwise.
func (r *Reporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		report := r.Report()
		w.Header().Set("Content-Type", "application/json")
		if report.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}
