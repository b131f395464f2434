package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultDetailConcurrency = 3
	maxDetailConcurrency     = 8
)

// SyncOutcome is the result of one top-level sync as seen by its caller.
type SyncOutcome struct {
	Kind     syncrun.Kind
	RunID    string
	Status   syncrun.Status
	Message  string
	Duration time.Duration
}

func (o SyncOutcome) Failed() bool {
	return o.Status != syncrun.StatusSuccess
}

type stageFunc func(ctx context.Context, sc syncContext) (string, error)

type chainStep struct {
	name string
	run  stageFunc
}

// runStage wraps one top-level sync in a tracked run. Errors and panics end
// the run FAILED and are not returned.
func (s *GuildSyncService) runStage(ctx context.Context, kind syncrun.Kind, stage stageFunc) SyncOutcome {
	started := s.now()
	outcome := SyncOutcome{Kind: kind, Status: syncrun.StatusFailed}

	run, err := s.runs.Start(ctx, kind)
	if err != nil {
		s.logger.ErrorContext(ctx, "start sync run failed", "kind", kind, "error", err)
		outcome.Message = err.Error()
		outcome.Duration = s.now().Sub(started)
		return outcome
	}
	outcome.RunID = run.ID

	var (
		message  string
		stageErr error
		catcher  panics.Catcher
	)
	catcher.Try(func() {
		sc := s.loadContext(ctx)
		message, stageErr = stage(ctx, sc)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		stageErr = crerr.Wrapf(recovered.AsError(), "%s sync panicked", kind)
	}

	status := syncrun.StatusSuccess
	if stageErr != nil {
		status = syncrun.StatusFailed
		message = stageErr.Error()
	}
	if _, err := s.runs.Complete(ctx, run, status, message); err != nil {
		s.logger.ErrorContext(ctx, "complete sync run failed",
			"run_id", run.ID,
			"kind", kind,
			"error", err,
		)
	}

	outcome.Status = status
	outcome.Message = message
	outcome.Duration = s.now().Sub(started)
	annotateStageSpan(ctx, outcome, stageErr)
	return outcome
}

// runChained runs steps in order and stops at the first failing step.
func runChained(ctx context.Context, sc syncContext, steps []chainStep) (string, error) {
	messages := make([]string, 0, len(steps))
	for _, step := range steps {
		message, err := step.run(ctx, sc)
		if err != nil {
			return "", fmt.Errorf("%s step: %w", step.name, err)
		}
		messages = append(messages, message)
	}
	return strings.Join(messages, "; "), nil
}

// fanOut runs fn for every item with at most limit in flight. It waits for
// all submitted work before returning the combined error of failed items.
func fanOut[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}

	pool, err := ants.NewPool(normalizeDetailConcurrency(limit, len(items)))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		workers  sync.WaitGroup
		mu       sync.Mutex
		combined error
		failed   int
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed++
		combined = crerr.CombineErrors(combined, err)
	}

	for _, item := range items {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			var catcher panics.Catcher
			var itemErr error
			catcher.Try(func() { itemErr = fn(ctx, item) })
			if recovered := catcher.Recovered(); recovered != nil {
				itemErr = recovered.AsError()
			}
			if itemErr != nil {
				record(itemErr)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return crerr.CombineErrors(fmt.Errorf("submit task to worker pool: %w", err), combined)
		}
	}
	workers.Wait()

	if combined != nil {
		return fmt.Errorf("%d of %d detail requests failed: %w", failed, len(items), combined)
	}
	return nil
}

func normalizeDetailConcurrency(limit, items int) int {
	if limit <= 0 {
		limit = defaultDetailConcurrency
	}
	if limit > maxDetailConcurrency {
		limit = maxDetailConcurrency
	}
	if items > 0 && limit > items {
		limit = items
	}
	return limit
}

// fetchAndSnapshot fetches one body and appends it to the snapshot store
// before any parsing happens.
func (s *GuildSyncService) fetchAndSnapshot(ctx context.Context, endpoint string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuildSyncService.fetchAndSnapshot", attribute.String("guild_api.endpoint", endpoint))
	defer span.End()

	raw, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	if _, err := s.snapshots.Save(ctx, endpoint, raw); err != nil {
		return nil, err
	}
	return raw, nil
}
