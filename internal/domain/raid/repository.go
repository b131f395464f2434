package raid

import "context"

type Repository interface {
	// Upsert stores the raid by external id and replaces its signups and encounters.
	Upsert(ctx context.Context, item Raid) error
}
