package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/guildsync/internal/app"
	"github.com/riskibarqy/guildsync/internal/observability"
	"github.com/riskibarqy/guildsync/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync scheduler with the diagnostics endpoint",
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			ctx := cmd.Context()
			logger := a.Logger

			shutdownTracing, err := observability.InitUptrace(a.Config, logger)
			if err != nil {
				return fmt.Errorf("init uptrace: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					logger.Warn("uptrace shutdown failed", "error", err)
				}
			}()

			stopProfiler, err := observability.InitPyroscope(a.Config, logger)
			if err != nil {
				return fmt.Errorf("init pyroscope: %w", err)
			}
			defer func() {
				if err := stopProfiler(); err != nil {
					logger.Warn("pyroscope stop failed", "error", err)
				}
			}()

			diag := observability.StartDiagnosticsServer(a.Config.MetricsAddr, a.Health, logger)
			defer func() {
				if err := observability.StopDiagnosticsServer(diag, logger, shutdownTimeout); err != nil {
					logger.Warn("diagnostics shutdown failed", "error", err)
				}
			}()

			sched := scheduler.New(a.Sync, scheduler.Config{
				RunOnStartup: a.Config.SyncRunOnStartup,
				Interval:     a.Config.SyncInterval,
			}, logger)
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run scheduler: %w", err)
			}

			// Startup-only mode keeps the diagnostics endpoint up until shutdown.
			<-ctx.Done()
			logger.Info("guildsync stopped")
			return nil
		}),
	}
}
