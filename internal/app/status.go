package app

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fitrank/fitrank/internal/backup"
	"github.com/fitrank/fitrank/internal/health"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database and backup health",
	Long: `Display the current state of the fitrank database and its backups.

Shows:
  • Detected platform and whether storage is persistent
  • Database location, size, and last-modified age
  • Row counts for accounts, scans, and scores
  • Backup count and most recent backup age
  • Any integrity or persistence warnings

This is the same information the /healthz endpoint reports.`,
	Example: `  # Check status
  fitrank status`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, env := resolveConfig()

	backups := backup.New(nil, cfg.BackupDir, cfg.Logger)
	reporter := health.NewReporter(env, cfg.DBPath, backups)
	report := reporter.Report()

	const label = "%-14s"

	fmt.Println()
	fmt.Printf(label+"%s\n", "Status:", report.Status)
	fmt.Printf(label+"%s (persistent: %v)\n", "Platform:", report.Environment.Platform, report.Environment.IsPersistent)

	if !report.Database.Exists {
		fmt.Printf(label+"%s (not created yet; run 'fitrank serve')\n", "Database:", cfg.DBPath)
	} else {
		fmt.Printf(label+"%s · %s · modified %s ago\n", "Database:",
			cfg.DBPath,
			humanize.Bytes(uint64(report.Database.SizeBytes)),
			formatSeconds(report.Database.AgeSeconds))
		fmt.Printf(label+"%d accounts · %d scans · %d scores\n", "Data:",
			report.Data.Accounts, report.Data.Scans, report.Data.Scores)
	}

	switch {
	case report.Backup.Count == 0:
		fmt.Printf(label+"none\n", "Backups:")
	default:
		fmt.Printf(label+"%d · newest %s (%.1fh old)\n", "Backups:",
			report.Backup.Count, report.Backup.MostRecentName, report.Backup.MostRecentAgeHrs)
	}
	if report.Backup.Warning != "" {
		fmt.Printf(label+"⚠ %s\n", "", report.Backup.Warning)
	}

	if len(report.Persistence.Warnings) > 0 {
		fmt.Println()
		for _, w := range report.Persistence.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	}

	fmt.Println()
	return nil
}

// formatSeconds renders an age in seconds compactly (e.g. "3h12m").
func formatSeconds(secs int64) string {
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	hours := mins / 60
	mins = mins % 60
	s := fmt.Sprintf("%dh%dm", hours, mins)
	return strings.TrimSuffix(s, "0m")
}
