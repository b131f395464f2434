package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/snapshot"
	"github.com/riskibarqy/guildsync/internal/metrics"
	"github.com/riskibarqy/guildsync/internal/platform/id"
)

// SnapshotStore appends raw upstream bodies for audit and replay.
type SnapshotStore struct {
	repo snapshot.Repository
	ids  id.Generator
	now  func() time.Time
}

func NewSnapshotStore(repo snapshot.Repository, ids id.Generator) *SnapshotStore {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &SnapshotStore{
		repo: repo,
		ids:  ids,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Save appends one snapshot of raw. The body is stored as received, even
// when it is not valid JSON.
func (s *SnapshotStore) Save(ctx context.Context, endpoint string, raw []byte) (snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotStore.Save")
	defer span.End()

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return snapshot.Snapshot{}, fmt.Errorf("%w: snapshot endpoint is required", ErrInvalidInput)
	}
	snapshotID, err := s.ids.NewID()
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("generate snapshot id: %w", err)
	}

	item := snapshot.Snapshot{
		ID:         snapshotID,
		Endpoint:   endpoint,
		RawPayload: string(raw),
		SyncedAt:   s.now(),
	}
	if err := s.repo.Append(ctx, item); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("append snapshot endpoint=%s: %w", endpoint, err)
	}
	metrics.SnapshotSaved(snapshot.Family(endpoint))
	return item, nil
}

func (s *SnapshotStore) ListByEndpoint(ctx context.Context, endpoint string, limit int) ([]snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotStore.ListByEndpoint")
	defer span.End()

	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be > 0", ErrInvalidInput)
	}
	items, err := s.repo.ListByEndpoint(ctx, strings.TrimSpace(endpoint), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots endpoint=%s: %w", endpoint, err)
	}
	return items, nil
}
