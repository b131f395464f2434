package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/guildsync/internal/domain/snapshot"
)

type SnapshotRepository struct {
	mu    sync.RWMutex
	items []snapshot.Snapshot
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

func (r *SnapshotRepository) Append(_ context.Context, item snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, item)
	return nil
}

// ListByEndpoint returns the newest snapshots of endpoint first.
func (r *SnapshotRepository) ListByEndpoint(_ context.Context, endpoint string, limit int) ([]snapshot.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]snapshot.Snapshot, 0)
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].Endpoint != endpoint {
			continue
		}
		out = append(out, r.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *SnapshotRepository) Endpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Endpoint)
	}
	return out
}
