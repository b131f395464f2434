package scheduler

import (
	"context"
	"time"

	"github.com/riskibarqy/guildsync/internal/platform/logging"
	"github.com/riskibarqy/guildsync/internal/usecase"
)

// Runner executes one full sync pass.
type Runner interface {
	RunAll(ctx context.Context) []usecase.SyncOutcome
}

type Config struct {
	RunOnStartup bool
	// Interval between passes. Zero disables periodic runs.
	Interval time.Duration
}

// Scheduler triggers sync passes once at startup and then on a fixed
// interval. Passes never overlap: a tick that fires while a pass is running
// is dropped by the ticker.
type Scheduler struct {
	runner Runner
	cfg    Config
	logger *logging.Logger
}

func New(runner Runner, cfg Config, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		logger: logger.Named("scheduler"),
	}
}

// Run blocks until ctx is done. With no interval it returns after the
// startup pass.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.RunOnStartup {
		s.logger.InfoContext(ctx, "startup sync triggered")
		s.pass(ctx)
	}
	if s.cfg.Interval <= 0 {
		s.logger.InfoContext(ctx, "periodic sync disabled")
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "scheduler running", "interval", s.cfg.Interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.logger.DebugContext(ctx, "scheduled sync triggered")
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	start := time.Now()
	outcomes := s.runner.RunAll(ctx)
	LogOutcomes(ctx, s.logger, outcomes)
	s.logger.InfoContext(ctx, "sync pass finished",
		"stages", len(outcomes),
		"failed", countFailed(outcomes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// LogOutcomes writes one line per stage outcome.
func LogOutcomes(ctx context.Context, logger *logging.Logger, outcomes []usecase.SyncOutcome) {
	for _, outcome := range outcomes {
		args := []any{
			"kind", outcome.Kind,
			"run_id", outcome.RunID,
			"status", outcome.Status,
			"message", outcome.Message,
			"duration_ms", outcome.Duration.Milliseconds(),
		}
		if outcome.Failed() {
			logger.WarnContext(ctx, "sync stage failed", args...)
			continue
		}
		logger.InfoContext(ctx, "sync stage succeeded", args...)
	}
}

func countFailed(outcomes []usecase.SyncOutcome) int {
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Failed() {
			failed++
		}
	}
	return failed
}
