// Package app wires the fitrank CLI: the server entry point plus the
// operator commands for manual snapshot and recovery work.
package app

import (
	"log/slog"
	"os"

	"github.com/fitrank/fitrank/internal/guard"
	"github.com/fitrank/fitrank/internal/platform"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbPath    string
	backupDir string
	runMode   string

	// RootCmd is the root command for fitrank
	RootCmd = &cobra.Command{
		Use:   "fitrank",
		Short: "Fitness-competition server with a guarded SQLite store",
		Long: `fitrank serves the fitness-competition application on top of an
embedded SQLite database that is guarded against silent data loss across
redeploys.

The guard detects the deployment platform, tunes durability accordingly,
snapshots before risky operations, and automatically restores from the
most recent verified backup when a restart leaves previously committed
data missing.

Examples:
  # Start the server (runs the initialization guard first)
  fitrank serve

  # Inspect database and backup health
  fitrank status

  # Take a manual snapshot
  fitrank snapshot --reason pre-migration

  # List available snapshots
  fitrank snapshots

  # Manually restore a named snapshot
  fitrank restore fitrank_20260823-101500.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: FITRANK_DB_PATH or the platform recommendation)")
	RootCmd.PersistentFlags().StringVar(&backupDir, "backups", "", "backup directory (default: FITRANK_BACKUP_DIR or the platform recommendation)")
	RootCmd.PersistentFlags().StringVar(&runMode, "mode", "", "run mode: development, production, or test (default: FITRANK_MODE or development)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command.
func Execute() error {
	// Local development keeps its settings in .env; missing files are fine.
	_ = godotenv.Load()
	return RootCmd.Execute()
}

// resolveConfig derives the effective guard configuration from flags,
// environment variables, and platform detection, in that order.
func resolveConfig() (guard.Config, platform.Environment) {
	path := dbPath
	if path == "" {
		path = os.Getenv("FITRANK_DB_PATH")
	}
	if path == "" {
		path = platform.Detect("").RecommendedDB
	}

	env := platform.Detect(path)

	backups := backupDir
	if backups == "" {
		backups = os.Getenv("FITRANK_BACKUP_DIR")
	}
	if backups == "" {
		backups = env.RecommendedBackupDir
	}

	mode := runMode
	if mode == "" {
		mode = os.Getenv("FITRANK_MODE")
	}
	if mode == "" {
		mode = string(platform.ModeDevelopment)
	}

	return guard.Config{
		DBPath:    path,
		BackupDir: backups,
		Mode:      platform.RunMode(mode),
		Logger:    slog.Default(),
	}, env
}
