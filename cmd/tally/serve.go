package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/tally/internal/config"
	httpserver "github.com/rezkam/tally/internal/infrastructure/http"
	"github.com/rezkam/tally/internal/infrastructure/http/handler"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, cmd, opts, slog.LevelInfo)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("host") {
				a.cfg.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.HTTP.Port = port
			}
			return serve(ctx, a)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Interface to listen on (overrides TALLY_HTTP_HOST)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides TALLY_HTTP_PORT)")

	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func serve(ctx context.Context, a *app) error {
	srv := httpserver.NewAPIServer(handler.NewRouter(a.session), serverConfig(a.cfg.HTTP))

	slog.InfoContext(ctx, "starting tally API",
		"addr", srv.Addr(),
		"storage", a.cfg.Storage.Type,
		"source", a.session.Source())

	errResult := make(chan error, 1)
	go func() {
		errResult <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")

		shutdownCtx, cancel := newShutdownContext(a.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
		return <-errResult
	case err := <-errResult:
		if err != nil {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	}
}

func serverConfig(cfg config.HTTPConfig) httpserver.ServerConfig {
	return httpserver.ServerConfig{
		Host:              cfg.Host,
		Port:              cfg.Port,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	}
}

// newShutdownContext creates a fresh context for graceful shutdown.
// The main context is already cancelled at that point.
func newShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
