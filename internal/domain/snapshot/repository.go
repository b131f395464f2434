package snapshot

import "context"

// Repository is append-only.
type Repository interface {
	Append(ctx context.Context, item Snapshot) error
	ListByEndpoint(ctx context.Context, endpoint string, limit int) ([]Snapshot, error)
}
