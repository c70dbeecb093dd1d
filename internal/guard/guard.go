// Package guard manages the fitrank database across deployments: it
// validates configuration against the detected platform, initializes
// schema without destroying existing data, takes safety snapshots, and
// restores from backup when a restart leaves a previously populated
// database empty.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitrank/fitrank/internal/backup"
	"github.com/fitrank/fitrank/internal/integrity"
	"github.com/fitrank/fitrank/internal/platform"
	"github.com/fitrank/fitrank/internal/store"
)

const (
	// DefaultRetain is how many snapshots Prune keeps.
	DefaultRetain = 10

	// DefaultMinRestoreSize filters out accidentally-empty snapshot files
	// when selecting a restoration candidate.
	DefaultMinRestoreSize = 4096
)

// Config declares what the guard needs from the surrounding application.
type Config struct {
	DBPath    string
	BackupDir string // defaults to the platform's recommended backup directory
	Mode      platform.RunMode

	Retain         int   // snapshots kept by pruning; DefaultRetain if zero
	MinRestoreSize int64 // DefaultMinRestoreSize if zero

	Logger *slog.Logger
}

// InitState captures the database's shape before any schema operation. It
// lives only for the duration of one boot sequence.
type InitState struct {
	HadExistingData bool
	Before          store.Counts
}

// Result reports the outcome of one boot sequence.
type Result struct {
	State   State
	Env     platform.Environment
	Tuning  platform.DBConfig
	Initial InitState
	Counts  store.Counts
	Restore *RestoreOutcome // non-nil only when restoration was attempted
}

// Guard orchestrates database startup. Initialize must be called exactly
// once, before the application begins serving requests, and runs
// single-threaded to a terminal state.
type Guard struct {
	cfg     Config
	env     platform.Environment
	tuning  platform.DBConfig
	store   *store.Store
	backups *backup.Manager
	state   State
	logger  *slog.Logger
}

// New creates a Guard. Nothing is opened until Initialize.
func New(cfg Config) *Guard {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Retain == 0 {
		cfg.Retain = DefaultRetain
	}
	if cfg.MinRestoreSize == 0 {
		cfg.MinRestoreSize = DefaultMinRestoreSize
	}
	return &Guard{cfg: cfg, logger: cfg.Logger}
}

// Store returns the live store. Valid only after Initialize reached a
// terminal state.
func (g *Guard) Store() *store.Store {
	return g.store
}

// Env returns the detected deployment environment.
func (g *Guard) Env() platform.Environment {
	return g.env
}

// Backups returns the snapshot manager.
func (g *Guard) Backups() *backup.Manager {
	return g.backups
}

// State returns the guard's current state.
func (g *Guard) State() State {
	return g.state
}

// Close closes the live database handle.
func (g *Guard) Close() error {
	if g.store != nil {
		return g.store.Close()
	}
	return nil
}

// Initialize runs the boot sequence to a terminal state. It returns an
// error only for the fatal cases (misconfiguration, missing schema); a
// failed restoration leaves the process in StateDegraded and returns a
// nil error, so an operator can still intervene against a live process.
func (g *Guard) Initialize(ctx context.Context) (*Result, error) {
	g.enter(StateDetectingEnv)
	g.env = platform.Detect(g.cfg.DBPath)
	g.logger.Info("deployment environment detected",
		"platform", g.env.Platform,
		"is_persistent", g.env.IsPersistent,
		"db_path", g.cfg.DBPath)
	for _, warning := range g.env.Warnings {
		g.logger.Warn("environment warning", "warning", warning)
	}

	g.enter(StateValidatingConfig)
	if err := g.validateConfig(); err != nil {
		return nil, err
	}
	g.tuning = platform.Tune(g.env, g.cfg.Mode)

	backupDir := g.cfg.BackupDir
	if backupDir == "" {
		backupDir = g.env.RecommendedBackupDir
	}

	st, err := store.New(g.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	g.store = st
	g.backups = backup.New(st.DB(), backupDir, g.logger)

	g.enter(StateInspectingData)
	initState, err := g.inspectExistingData(ctx)
	if err != nil {
		return nil, err
	}

	if initState.HadExistingData && g.cfg.Mode == platform.ModeProduction {
		// Existing production data: keep the proven-safe branch as small
		// as possible and do not even issue the idempotent DDL.
		g.enter(StateSkippingSchemaOps)
	} else {
		g.enter(StateCreatingSchema)
		if err := g.createSchema(); err != nil {
			return nil, err
		}
	}

	g.enter(StateApplyingTuning)
	if err := g.store.ApplyTuning(g.tuning); err != nil {
		return nil, fmt.Errorf("failed to apply tuning: %w", err)
	}

	g.enter(StatePostInitCheck)
	result := &Result{
		Env:     g.env,
		Tuning:  g.tuning,
		Initial: initState,
	}

	after, err := g.store.Counts()
	if err != nil {
		return nil, err
	}
	result.Counts = after

	if initState.HadExistingData && after.Empty() {
		// The signature of the data-loss failure mode: the database held
		// rows before initialization and holds none now.
		g.logger.Error("data loss detected after initialization",
			"accounts_before", initState.Before.Accounts,
			"scans_before", initState.Before.Scans)

		g.enter(StateRestoring)
		outcome := g.attemptRestore(ctx, initState)
		result.Restore = &outcome

		if !outcome.Restored {
			g.enter(StateDegraded)
			g.logger.Error("automatic restoration failed; serving an empty dataset for operator recovery",
				"reason", outcome.Reason)
			result.State = g.state
			return result, nil
		}
		result.Counts = outcome.RestoredCounts
	}

	g.enter(StateReady)
	result.State = g.state
	g.logger.Info("database ready",
		"accounts", result.Counts.Accounts,
		"scans", result.Counts.Scans,
		"scores", result.Counts.Scores)
	return result, nil
}

// validateConfig fails boot only for the one case where starting is worse
// than stopping: production mode on a platform with a known persistent
// mount, configured to write outside it.
func (g *Guard) validateConfig() error {
	if !g.cfg.Mode.Valid() {
		return fmt.Errorf("%w: unknown run mode %q", ErrFatalConfiguration, g.cfg.Mode)
	}
	if g.cfg.DBPath == "" {
		return fmt.Errorf("%w: no database path configured", ErrFatalConfiguration)
	}
	if g.cfg.Mode == platform.ModeProduction && g.env.Mount != "" && !g.env.IsPersistent {
		return fmt.Errorf("%w: %q is not under %q (recommended: %s)",
			ErrFatalConfiguration, g.cfg.DBPath, g.env.Mount, g.env.RecommendedDB)
	}
	return nil
}

// inspectExistingData verifies the file, captures pre-init counts, and
// takes a safety snapshot when data is present.
func (g *Guard) inspectExistingData(ctx context.Context) (InitState, error) {
	report, err := integrity.Verify(g.cfg.DBPath)
	if err != nil {
		return InitState{}, err
	}
	for _, issue := range report.Issues {
		g.logger.Warn("pre-init integrity issue", "issue", issue)
	}

	counts, err := g.store.Counts()
	if err != nil {
		return InitState{}, err
	}

	initState := InitState{
		HadExistingData: !counts.Empty(),
		Before:          counts,
	}
	g.logger.Info("existing data inspected",
		"had_existing_data", initState.HadExistingData,
		"accounts", counts.Accounts,
		"scans", counts.Scans,
		"scores", counts.Scores)

	if initState.HadExistingData {
		// Safety snapshot before any further action touches the file.
		if rec, err := g.backups.Create(ctx, "pre-init"); err != nil {
			g.logger.Error("safety snapshot failed",
				"error", fmt.Errorf("%w: %v", ErrSnapshotFailed, err))
		} else {
			g.logger.Info("safety snapshot taken", "name", rec.Name)
			if err := g.backups.Prune(g.cfg.Retain); err != nil {
				g.logger.Warn("snapshot pruning failed", "error", err)
			}
		}
	}

	return initState, nil
}

// createSchema issues the idempotent DDL and verifies every domain table
// exists afterward.
func (g *Guard) createSchema() error {
	if err := g.store.CreateSchema(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaCreation, err)
	}
	missing, err := g.store.MissingTables()
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrSchemaCreation, missing)
	}
	return nil
}

func (g *Guard) enter(s State) {
	g.state = s
	g.logger.Debug("guard state", "state", s.String())
}
