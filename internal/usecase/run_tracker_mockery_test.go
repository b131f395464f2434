package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/guildsync/internal/domain/snapshot"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	snapshotmock "github.com/riskibarqy/guildsync/internal/mocks/domain/snapshot"
	syncrunmock "github.com/riskibarqy/guildsync/internal/mocks/domain/syncrun"
	"github.com/riskibarqy/guildsync/internal/platform/id"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestRunTracker_StartAndCompleteUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := syncrunmock.NewRepository(t)
	tracker := NewRunTracker(repo, &id.SequenceGenerator{Prefix: "run-"}, logging.NewNop())

	repo.
		On("Create", mock.Anything, mock.MatchedBy(func(run syncrun.Run) bool {
			return run.ID == "run-1" && run.Kind == syncrun.KindRoster && run.Status == syncrun.StatusRunning
		})).
		Return(nil).
		Once()
	repo.
		On("Complete", mock.Anything, mock.MatchedBy(func(run syncrun.Run) bool {
			return run.ID == "run-1" && run.Status == syncrun.StatusSuccess && run.Message == "synced 3 raiders" && run.CompletedAt != nil
		})).
		Return(nil).
		Once()

	run, err := tracker.Start(ctx, syncrun.KindRoster)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	completed, err := tracker.Complete(ctx, run, syncrun.StatusSuccess, " synced 3 raiders ")
	if err != nil {
		t.Fatalf("complete run: %v", err)
	}
	if completed.Status != syncrun.StatusSuccess {
		t.Fatalf("unexpected status: %s", completed.Status)
	}

	if _, err := tracker.Complete(ctx, completed, syncrun.StatusFailed, "again"); !errors.Is(err, syncrun.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestRunTracker_RejectsUnknownKindUsingMockery(t *testing.T) {
	t.Parallel()

	repo := syncrunmock.NewRepository(t)
	tracker := NewRunTracker(repo, nil, logging.NewNop())

	if _, err := tracker.Start(context.Background(), syncrun.Kind("scoring")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRunTracker_CompletePersistsAfterCancelUsingMockery(t *testing.T) {
	t.Parallel()

	repo := syncrunmock.NewRepository(t)
	tracker := NewRunTracker(repo, &id.SequenceGenerator{Prefix: "run-"}, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	repo.
		On("Complete", mock.MatchedBy(func(v context.Context) bool { return v.Err() == nil }), mock.Anything).
		Return(nil).
		Once()

	run, err := tracker.Start(ctx, syncrun.KindWishlists)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	cancel()
	if _, err := tracker.Complete(ctx, run, syncrun.StatusFailed, "context canceled"); err != nil {
		t.Fatalf("complete run: %v", err)
	}
}

func TestSnapshotStore_SaveUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := snapshotmock.NewRepository(t)
	store := NewSnapshotStore(repo, &id.SequenceGenerator{Prefix: "snap-"})

	repo.
		On("Append", mock.Anything, mock.MatchedBy(func(item snapshot.Snapshot) bool {
			return item.ID == "snap-1" && item.Endpoint == "/raids/12" && item.RawPayload == "not json" && !item.SyncedAt.IsZero()
		})).
		Return(nil).
		Once()

	if _, err := store.Save(ctx, " /raids/12 ", []byte("not json")); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if _, err := store.Save(ctx, " ", []byte("{}")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSnapshotStore_AppendFailureUsingMockery(t *testing.T) {
	t.Parallel()

	repo := snapshotmock.NewRepository(t)
	store := NewSnapshotStore(repo, nil)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	if _, err := store.Save(context.Background(), "/guests", []byte("[]")); err == nil {
		t.Fatalf("expected append error")
	}
}
