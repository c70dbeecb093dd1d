package guard

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the live database directory during steady-state
// operation and logs at the highest severity when the database file or its
// write-ahead log is removed or renamed out from under the process, the
// earliest observable sign of the failure mode the guard exists for. It
// only observes; it never snapshots or restores.
type Watcher struct {
	dbPath string
	logger *slog.Logger
	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the database at dbPath.
func NewWatcher(dbPath string, logger *slog.Logger) (*Watcher, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dbPath: dbPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching the database directory.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.dbPath)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch database directory: %w", err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	watched := map[string]bool{
		w.dbPath:          true,
		w.dbPath + "-wal": true,
		w.dbPath + "-shm": true,
	}

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Error("database file disappeared during steady-state operation",
					"file", event.Name,
					"op", event.Op.String())
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

// Stop halts the watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}
