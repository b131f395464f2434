package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/riskibarqy/guildsync/internal/metrics"
	"github.com/riskibarqy/guildsync/internal/platform/id"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
)

// RunTracker records the RUNNING -> SUCCESS|FAILED lifecycle of sync runs.
type RunTracker struct {
	repo   syncrun.Repository
	ids    id.Generator
	now    func() time.Time
	logger *logging.Logger
}

func NewRunTracker(repo syncrun.Repository, ids id.Generator, logger *logging.Logger) *RunTracker {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &RunTracker{
		repo:   repo,
		ids:    ids,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("run_tracker"),
	}
}

func (t *RunTracker) Start(ctx context.Context, kind syncrun.Kind) (syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunTracker.Start")
	defer span.End()

	if _, ok := syncrun.ParseKind(string(kind)); !ok {
		return syncrun.Run{}, fmt.Errorf("%w: unknown sync kind %q", ErrInvalidInput, kind)
	}
	runID, err := t.ids.NewID()
	if err != nil {
		return syncrun.Run{}, fmt.Errorf("generate run id: %w", err)
	}

	run := syncrun.Run{
		ID:        runID,
		Kind:      kind,
		Status:    syncrun.StatusRunning,
		StartedAt: t.now(),
	}
	if err := t.repo.Create(ctx, run); err != nil {
		return syncrun.Run{}, fmt.Errorf("create sync run kind=%s: %w", kind, err)
	}
	t.logger.InfoContext(ctx, "sync run started", "run_id", run.ID, "kind", run.Kind)
	return run, nil
}

// Complete moves run to a terminal status. It is persisted even when ctx is
// already cancelled so an interrupted run does not stay RUNNING.
func (t *RunTracker) Complete(ctx context.Context, run syncrun.Run, status syncrun.Status, message string) (syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunTracker.Complete")
	defer span.End()

	if !status.Terminal() {
		return run, fmt.Errorf("%w: status %q is not terminal", ErrInvalidInput, status)
	}
	if run.Status != syncrun.StatusRunning {
		return run, fmt.Errorf("complete run id=%s: %w", run.ID, syncrun.ErrAlreadyCompleted)
	}

	completedAt := t.now()
	run.Status = status
	run.Message = strings.TrimSpace(message)
	run.CompletedAt = &completedAt

	if err := t.repo.Complete(context.WithoutCancel(ctx), run); err != nil {
		return run, fmt.Errorf("complete sync run id=%s: %w", run.ID, err)
	}

	elapsed := completedAt.Sub(run.StartedAt)
	metrics.ObserveRun(string(run.Kind), string(run.Status), elapsed)
	if status == syncrun.StatusSuccess {
		t.logger.InfoContext(ctx, "sync run completed",
			"run_id", run.ID,
			"kind", run.Kind,
			"message", run.Message,
			"duration_ms", elapsed.Milliseconds(),
		)
	} else {
		t.logger.WarnContext(ctx, "sync run failed",
			"run_id", run.ID,
			"kind", run.Kind,
			"message", run.Message,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return run, nil
}

func (t *RunTracker) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunTracker.ListRecent")
	defer span.End()

	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be > 0", ErrInvalidInput)
	}
	runs, err := t.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sync runs: %w", err)
	}
	return runs, nil
}
