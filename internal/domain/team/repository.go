package team

import "context"

type Repository interface {
	// SaveMetadata upserts the team row and replaces its raid days.
	SaveMetadata(ctx context.Context, item Metadata) error
	SavePeriod(ctx context.Context, item Period) error
}
