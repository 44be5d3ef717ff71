package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blakewatson/bookmarks/internal/api"
	"github.com/blakewatson/bookmarks/internal/archive"
	"github.com/blakewatson/bookmarks/internal/bookmark"
	"github.com/blakewatson/bookmarks/internal/clock"
	"github.com/blakewatson/bookmarks/internal/config"
	"github.com/blakewatson/bookmarks/internal/logging"
	"github.com/blakewatson/bookmarks/internal/scheduler"
	"github.com/blakewatson/bookmarks/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bookmarks HTTP server and background archiver.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	telemetry.Init()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bookmarks := bookmark.NewStore(filepath.Join(cfg.Data.Dir, "bookmarks.json"))
	records := archive.NewFileRecordStore(filepath.Join(cfg.Data.Dir, "archives.json"))
	if err := bookmarks.Init(); err != nil {
		return fmt.Errorf("init bookmarks store: %w", err)
	}
	if err := records.Init(); err != nil {
		return fmt.Errorf("init archives store: %w", err)
	}

	sys := clock.NewSystem()
	wayback := archive.NewWaybackClient(archive.WaybackConfig{
		BaseURL:   cfg.Archive.BaseURL,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Timeout:   cfg.Archive.Timeout(),
	})
	poller := archive.NewStatusPoller(
		wayback,
		sys,
		cfg.Archive.PollDelay(),
		cfg.Archive.PollAttempts,
		logger.Named("poller"),
	)
	resolver := archive.NewResolver(cfg.Archive.BaseURL)
	coord := archive.NewCoordinator(wayback, poller, resolver, records, sys, logger.Named("archiver"))

	sweep := scheduler.New(
		scheduler.Config{Enabled: cfg.Sweep.Enabled, Interval: cfg.Sweep.Interval()},
		bookmarks,
		records,
		coord,
		logger.Named("sweep"),
	)
	go sweep.Run(ctx)

	server := api.NewServer(bookmarks, records, coord, cfg, logger.Named("api"))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
