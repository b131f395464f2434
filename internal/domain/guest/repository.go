package guest

import "context"

type Repository interface {
	ReplaceAll(ctx context.Context, items []Guest) error
}
