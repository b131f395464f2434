package syncrun

import (
	"context"
	"errors"
)

// ErrAlreadyCompleted is returned when completing a run that is not RUNNING.
var ErrAlreadyCompleted = errors.New("sync run already completed")

type Repository interface {
	Create(ctx context.Context, run Run) error
	// Complete moves a RUNNING run to its terminal status.
	Complete(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
