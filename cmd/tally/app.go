package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/tally/internal/application/tracker"
	"github.com/rezkam/tally/internal/config"
	"github.com/rezkam/tally/internal/infrastructure/observability"
	"github.com/rezkam/tally/internal/infrastructure/persistence"
	"github.com/rezkam/tally/internal/seed"
)

// providerShutdownTimeout bounds flushing telemetry when the collector is unreachable.
const providerShutdownTimeout = 5 * time.Second

type globalOptions struct {
	ephemeral bool
	verbose   bool
}

// app is a loaded session plus everything that has to be released with it.
type app struct {
	cfg     *config.Config
	session *tracker.Session

	closeSlot func()
	providers *observability.Providers
}

// openApp loads configuration, wires telemetry and storage, and loads the
// session. Quiet commands only log warnings unless --verbose is set.
func openApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions, logLevel slog.Level) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.ephemeral {
		cfg.Storage.Type = config.StorageMemory
	}
	if opts.verbose {
		logLevel = slog.LevelDebug
	}

	providers, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogOutput:   cmd.ErrOrStderr(),
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init observability: %w", err)
	}

	a := &app{cfg: cfg, providers: providers}

	slot, closeSlot, err := persistence.OpenSlot(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closeSlot = closeSlot

	a.session = tracker.NewSession(slot, seedSource(cfg.Tracker), seed.NewGenerator(), tracker.Config{
		GenerateCount: cfg.Tracker.GenerateCount,
		UndoWindow:    cfg.Tracker.UndoWindow,
	})

	if _, err := a.session.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	slog.DebugContext(ctx, "session ready",
		"storage", cfg.Storage.Type,
		"source", a.session.Source(),
		"task_count", len(a.session.Tasks()))

	return a, nil
}

func seedSource(cfg config.TrackerConfig) tracker.SeedSource {
	if cfg.SeedURL != "" {
		return seed.NewHTTPSource(cfg.SeedURL)
	}
	return seed.NewEmbeddedSource()
}

// Close releases the session, the storage back-end and the telemetry
// providers, in that order.
func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.closeSlot != nil {
		a.closeSlot()
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerShutdownTimeout)
	defer cancel()
	if err := a.providers.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown observability providers", "error", err)
	}
}
