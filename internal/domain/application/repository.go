package application

import "context"

type Repository interface {
	// Upsert stores the application by external id and replaces alts,
	// questions and question files.
	Upsert(ctx context.Context, item Application) error
}
