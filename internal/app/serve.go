package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitrank/fitrank/internal/guard"
	"github.com/fitrank/fitrank/internal/health"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the initialization guard and start the server",
	Long: `Boot the database through the initialization guard, then serve HTTP.

The guard runs to completion before any traffic is accepted. A failed
automatic restoration does not stop the server: it comes up degraded,
serving an empty dataset, so the remaining manual-recovery commands stay
usable against a live process. Degradation is visible on /healthz and in
the logs, never to end users.`,
	Example: `  # Serve on the default address
  fitrank serve

  # Serve on a specific port
  fitrank serve --addr :9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, _ := resolveConfig()

	g := guard.New(cfg)
	result, err := g.Initialize(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer g.Close()

	if result.State == guard.StateDegraded {
		slog.Error("serving in degraded mode; see /healthz and the restoration log")
	}

	// Steady-state observation only; the watcher never mutates.
	watcher, err := guard.NewWatcher(cfg.DBPath, slog.Default())
	if err == nil {
		if err := watcher.Start(); err != nil {
			slog.Warn("file watcher not started", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	reporter := health.NewReporter(result.Env, cfg.DBPath, g.Backups())
	mux := http.NewServeMux()
	mux.Handle("/healthz", reporter.Handler())

	server := &http.Server{
		Addr:    serveAddr,
		Handler: mux,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", serveAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctrlc:
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
