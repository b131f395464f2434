package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run syncrun.Run) error {
	query, args, err := qb.InsertModel("sync_runs", syncRunInsertModel{
		ID:        run.ID,
		Kind:      string(run.Kind),
		Status:    string(run.Status),
		StartedAt: run.StartedAt,
		Message:   run.Message,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run id=%s: %w", run.ID, err)
	}
	return nil
}

func (r *SyncRunRepository) Complete(ctx context.Context, run syncrun.Run) error {
	query, args, err := qb.Update("sync_runs").
		Set("status", string(run.Status)).
		Set("completed_at", run.CompletedAt).
		Set("message", run.Message).
		Where(
			qb.Eq("id", run.ID),
			qb.Eq("status", string(syncrun.StatusRunning)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build complete sync run query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete sync run id=%s: %w", run.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete sync run id=%s rows affected: %w", run.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", syncrun.ErrAlreadyCompleted, run.ID)
	}
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	builder := qb.Select("*").From("sync_runs").OrderBy("started_at DESC", "id")
	if limit > 0 {
		builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sync runs: %w", err)
	}

	out := make([]syncrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncrun.Run{
			ID:          row.ID,
			Kind:        syncrun.Kind(row.Kind),
			Status:      syncrun.Status(row.Status),
			StartedAt:   row.StartedAt.UTC(),
			CompletedAt: nullTimeToPtr(row.CompletedAt),
			Message:     row.Message,
		})
	}
	return out, nil
}

type syncRunInsertModel struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Status    string    `db:"status"`
	StartedAt time.Time `db:"started_at"`
	Message   string    `db:"message"`
}

type syncRunTableModel struct {
	ID          string       `db:"id"`
	Kind        string       `db:"kind"`
	Status      string       `db:"status"`
	StartedAt   time.Time    `db:"started_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
	Message     string       `db:"message"`
}
