package main

import (
	"context"
	"fmt"

	"github.com/riskibarqy/guildsync/internal/app"
	"github.com/riskibarqy/guildsync/internal/config"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
	"github.com/spf13/cobra"
)

// withApp loads config, builds the process logger and wires the app
// around run. Resources are released when run returns.
func withApp(run func(cmd *cobra.Command, a *app.App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger := logging.New(logging.Options{
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Service: cfg.ServiceName,
			Version: cfg.ServiceVersion,
		}).With("command", cmd.CommandPath())
		logging.SetDefault(logger)
		defer func() {
			_ = logger.Sync()
		}()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			logger.Error("bootstrap application failed", "error", err)
			return fmt.Errorf("bootstrap app: %w", err)
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("close app failed", "error", err)
			}
		}()

		return run(cmd, a)
	}
}
