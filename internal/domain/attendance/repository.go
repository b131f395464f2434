package attendance

import "context"

type Repository interface {
	ReplaceAll(ctx context.Context, stats []Stat) error
}
