package guard

import (
	"context"

	"github.com/fitrank/fitrank/internal/backup"
	"github.com/fitrank/fitrank/internal/integrity"
	"github.com/fitrank/fitrank/internal/store"
)

// RestoreReason enumerates why a restoration attempt did not restore.
type RestoreReason string

const (
	ReasonNoPreviousData        RestoreReason = "no_previous_data"
	ReasonDataStillPresent      RestoreReason = "data_still_present"
	ReasonNoBackupFound         RestoreReason = "no_backup_found"
	ReasonBackupIntegrityFailed RestoreReason = "backup_integrity_failed"
	ReasonRestorationFailed     RestoreReason = "restoration_failed"
)

// RestoreOutcome is the auditable result of one restoration attempt.
type RestoreOutcome struct {
	Restored       bool
	Reason         RestoreReason
	BackupUsed     string
	RestoredCounts store.Counts
}

// attemptRestore tries to recover from the data-loss failure mode using
// the most recent plausible snapshot. It makes exactly one attempt against
// exactly one candidate: retrying an unverified backup would amplify a bad
// snapshot into repeated destructive operations.
func (g *Guard) attemptRestore(ctx context.Context, pre InitState) RestoreOutcome {
	if !pre.HadExistingData {
		return RestoreOutcome{Reason: ReasonNoPreviousData}
	}

	// A concurrent process may have repaired state already.
	current, err := g.store.Counts()
	if err == nil && !current.Empty() {
		g.logger.Info("restoration skipped, data present again",
			"accounts", current.Accounts, "scans", current.Scans)
		return RestoreOutcome{Reason: ReasonDataStillPresent}
	}

	candidate, ok := g.findCandidate()
	if !ok {
		g.logger.Error("no plausible backup found; manual intervention required",
			"backup_dir", g.backups.Dir(),
			"min_size_bytes", g.cfg.MinRestoreSize)
		return RestoreOutcome{Reason: ReasonNoBackupFound}
	}

	g.logger.Info("restoration candidate selected",
		"name", candidate.Name,
		"age", candidate.Age().String(),
		"size_bytes", candidate.SizeBytes)

	// Verify the snapshot independently, without touching the live file.
	report, err := integrity.Verify(candidate.Path)
	if err != nil || !report.Valid() || report.Counts.Empty() {
		g.logger.Error("backup failed the integrity gate; refusing to restore",
			"name", candidate.Name,
			"issues", report.Issues,
			"accounts", report.Counts.Accounts,
			"scans", report.Counts.Scans,
			"error", err)
		return RestoreOutcome{Reason: ReasonBackupIntegrityFailed, BackupUsed: candidate.Name}
	}

	g.logger.Info("backup verified",
		"name", candidate.Name,
		"accounts", report.Counts.Accounts,
		"scans", report.Counts.Scans,
		"scores", report.Counts.Scores)

	restored, err := g.applyBackup(candidate)
	if err != nil {
		g.logger.Error("restoration failed", "name", candidate.Name, "error", err)
		return RestoreOutcome{Reason: ReasonRestorationFailed, BackupUsed: candidate.Name}
	}

	if restored.Empty() {
		g.logger.Error("database still empty after restoration", "name", candidate.Name)
		return RestoreOutcome{Reason: ReasonRestorationFailed, BackupUsed: candidate.Name}
	}

	g.logger.Info("restoration complete",
		"name", candidate.Name,
		"accounts_before", pre.Before.Accounts,
		"scans_before", pre.Before.Scans,
		"accounts_after", restored.Accounts,
		"scans_after", restored.Scans)

	return RestoreOutcome{
		Restored:       true,
		Reason:         "",
		BackupUsed:     candidate.Name,
		RestoredCounts: restored,
	}
}

// findCandidate returns the most recent snapshot above the minimum
// plausible size.
func (g *Guard) findCandidate() (backup.Record, bool) {
	records, err := g.backups.List()
	if err != nil {
		g.logger.Error("failed to list backups", "error", err)
		return backup.Record{}, false
	}
	for _, rec := range records {
		if rec.SizeBytes >= g.cfg.MinRestoreSize {
			return rec, true
		}
		g.logger.Warn("skipping implausibly small snapshot",
			"name", rec.Name, "size_bytes", rec.SizeBytes)
	}
	return backup.Record{}, false
}

// applyBackup swaps the verified snapshot in for the live file and
// reopens the store. Restoration requires exclusive ownership of the
// handle, which holds here because it only runs during boot.
func (g *Guard) applyBackup(candidate backup.Record) (store.Counts, error) {
	if err := g.store.Close(); err != nil {
		return store.Counts{}, err
	}

	// Preserve forensic evidence of the failure before overwriting
	// anything, even though the data itself is gone.
	if _, err := g.backups.SaveEmergency(g.cfg.DBPath); err != nil {
		g.logger.Warn("could not save emergency copy", "error", err)
	}

	swapErr := backup.ReplaceFileSet(candidate.Path, g.cfg.DBPath)

	// Reopen regardless of the swap outcome so the guard never leaves the
	// process without a live handle.
	st, openErr := store.New(g.cfg.DBPath)
	if openErr != nil {
		return store.Counts{}, openErr
	}
	g.store = st
	g.backups = backup.New(st.DB(), g.backups.Dir(), g.logger)

	if swapErr != nil {
		return store.Counts{}, swapErr
	}

	if err := g.store.ApplyTuning(g.tuning); err != nil {
		return store.Counts{}, err
	}

	return g.store.Counts()
}
