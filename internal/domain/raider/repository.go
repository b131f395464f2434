package raider

import "context"

// Repository persists raiders and their owned collections.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID int64) (Raider, bool, error)
	FindByNaturalKey(ctx context.Context, key NaturalKey) (Raider, bool, error)
	// Save inserts when ID is zero and updates otherwise, returning the stored row.
	Save(ctx context.Context, item Raider) (Raider, error)
	List(ctx context.Context) ([]Raider, error)
	// ReplaceChildren deletes every owned row of the raider, then inserts children.
	ReplaceChildren(ctx context.Context, raiderID int64, children Children) error
}
