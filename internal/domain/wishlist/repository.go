package wishlist

import "context"

type Repository interface {
	ReplaceForRaider(ctx context.Context, raiderID int64, entries []Entry) error
	// DeleteExcept removes entries of every raider not in raiderIDs.
	DeleteExcept(ctx context.Context, raiderIDs []int64) error
}
