package platform

import "time"

// RunMode is the declared application run mode.
type RunMode string

const (
	ModeDevelopment RunMode = "development"
	ModeProduction  RunMode = "production"
	ModeTest        RunMode = "test"
)

// Valid reports whether the run mode is one of the declared modes.
func (m RunMode) Valid() bool {
	switch m {
	case ModeDevelopment, ModeProduction, ModeTest:
		return true
	}
	return false
}

// DBConfig holds the durability and performance settings applied to the
// SQLite engine once per process start.
type DBConfig struct {
	JournalMode       string // WAL, or MEMORY in test mode
	Synchronous       string // FULL, NORMAL, or OFF
	TempStore         string // FILE or MEMORY
	CacheSizeKB       int    // applied as a negative cache_size pragma
	BusyTimeout       time.Duration
	WALAutoCheckpoint int // pages between automatic WAL checkpoints
}

// Tune derives engine settings from the deployment environment and run
// mode. It is a policy table, not a computation: ephemeral platforms trade
// crash durability for throughput since persistence is already unreliable
// there; persistent platforms get full durability and patient lock
// timeouts; test mode skips file-backed logging entirely.
func Tune(env Environment, mode RunMode) DBConfig {
	if mode == ModeTest {
		return DBConfig{
			JournalMode: "MEMORY",
			Synchronous: "OFF",
			TempStore:   "MEMORY",
			CacheSizeKB: 2000,
			BusyTimeout: 1 * time.Second,
		}
	}

	if !env.IsPersistent {
		return DBConfig{
			JournalMode:       "WAL",
			Synchronous:       "NORMAL",
			TempStore:         "MEMORY",
			CacheSizeKB:       8000,
			BusyTimeout:       2 * time.Second,
			WALAutoCheckpoint: 1000,
		}
	}

	cfg := DBConfig{
		JournalMode:       "WAL",
		Synchronous:       "FULL",
		TempStore:         "FILE",
		CacheSizeKB:       4000,
		BusyTimeout:       10 * time.Second,
		WALAutoCheckpoint: 1000,
	}
	if mode == ModeDevelopment {
		cfg.Synchronous = "NORMAL"
	}
	return cfg
}
