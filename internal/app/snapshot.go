package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fitrank/fitrank/internal/backup"
	"github.com/fitrank/fitrank/internal/guard"
	"github.com/fitrank/fitrank/internal/output"
	"github.com/fitrank/fitrank/internal/store"
	"github.com/spf13/cobra"
)

var snapshotReason string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create a snapshot of the database",
	Long: `Create a self-consistent point-in-time snapshot of the database in the
backup directory, then prune snapshots beyond the retention count.

Snapshots use the engine's atomic export, so they are safe to take while
the database is in use.`,
	Example: `  # Snapshot before a risky operation
  fitrank snapshot --reason pre-migration`,
	RunE: runSnapshot,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List available snapshots, newest first",
	RunE:  runSnapshots,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotReason, "reason", "manual", "why this snapshot is being taken (recorded in the audit log)")
	RootCmd.AddCommand(snapshotCmd)
	RootCmd.AddCommand(snapshotsCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, _ := resolveConfig()

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	manager := backup.New(st.DB(), cfg.BackupDir, cfg.Logger)
	rec, err := manager.Create(cmd.Context(), snapshotReason)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if err := manager.Prune(guard.DefaultRetain); err != nil {
		fmt.Printf("Warning: pruning failed: %v\n", err)
	}

	fmt.Printf("Created %s (%s)\n", rec.Name, humanize.Bytes(uint64(rec.SizeBytes)))
	return nil
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	cfg, _ := resolveConfig()

	manager := backup.New(nil, cfg.BackupDir, cfg.Logger)
	records, err := manager.List()
	if err != nil {
		return err
	}

	fmt.Print(output.RenderSnapshotTable(records))
	return nil
}
