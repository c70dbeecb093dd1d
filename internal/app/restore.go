package app

import (
	"fmt"

	"github.com/fitrank/fitrank/internal/backup"
	"github.com/fitrank/fitrank/internal/integrity"
	"github.com/fitrank/fitrank/internal/store"
	"github.com/spf13/cobra"
)

var restoreForce bool

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot-name>",
	Short: "Replace the database with a named snapshot",
	Long: `Manually restore the database from one of the snapshots listed by
'fitrank snapshots'. This is the operator path for cases the automatic
failsafe refused to handle on its own.

The snapshot is verified first and rejected if it fails the consistency
check or holds no rows (pass --force to restore an empty snapshot). The
current database is preserved as an emergency copy before being replaced.

The server must not be running while a restore is in progress.`,
	Example: `  # Restore a specific snapshot
  fitrank restore fitrank_20260823-101500.db`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "restore even if the snapshot holds no rows")
	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, _ := resolveConfig()
	name := args[0]

	manager := backup.New(nil, cfg.BackupDir, cfg.Logger)
	records, err := manager.List()
	if err != nil {
		return err
	}

	var candidate *backup.Record
	for i := range records {
		if records[i].Name == name {
			candidate = &records[i]
			break
		}
	}
	if candidate == nil {
		return fmt.Errorf("snapshot %q not found in %s", name, cfg.BackupDir)
	}

	// Same gate as the automatic failsafe.
	report, err := integrity.Verify(candidate.Path)
	if err != nil {
		return err
	}
	if !report.Valid() {
		return fmt.Errorf("snapshot %q failed verification: %v", name, report.Issues)
	}
	if report.Counts.Empty() && !restoreForce {
		return fmt.Errorf("snapshot %q holds no rows; pass --force to restore it anyway", name)
	}

	if _, err := manager.SaveEmergency(cfg.DBPath); err != nil {
		fmt.Printf("Warning: could not save emergency copy: %v\n", err)
	}

	if err := backup.ReplaceFileSet(candidate.Path, cfg.DBPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("restored file did not open: %w", err)
	}
	defer st.Close()

	counts, err := st.Counts()
	if err != nil {
		return fmt.Errorf("restored file did not verify: %w", err)
	}

	fmt.Printf("Restored %s: %d accounts, %d scans, %d scores\n",
		name, counts.Accounts, counts.Scans, counts.Scores)
	return nil
}
