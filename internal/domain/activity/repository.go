package activity

import "context"

type Repository interface {
	ReplaceForPeriod(ctx context.Context, periodID int64, entries []Entry) error
	ReplaceForCharacter(ctx context.Context, characterExternalID int64, entries []Entry) error
}
