package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/snapshot"
	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

// SnapshotRepository only ever inserts.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Append(ctx context.Context, item snapshot.Snapshot) error {
	query, args, err := qb.InsertModel("snapshots", snapshotTableModel{
		ID:         item.ID,
		Endpoint:   item.Endpoint,
		RawPayload: item.RawPayload,
		SyncedAt:   item.SyncedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snapshot endpoint=%s: %w", item.Endpoint, err)
	}
	return nil
}

func (r *SnapshotRepository) ListByEndpoint(ctx context.Context, endpoint string, limit int) ([]snapshot.Snapshot, error) {
	builder := qb.Select("*").From("snapshots").
		Where(qb.Eq("endpoint", endpoint)).
		OrderBy("synced_at DESC")
	if limit > 0 {
		builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select snapshots query: %w", err)
	}

	var rows []snapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select snapshots endpoint=%s: %w", endpoint, err)
	}

	out := make([]snapshot.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshot.Snapshot{
			ID:         row.ID,
			Endpoint:   row.Endpoint,
			RawPayload: row.RawPayload,
			SyncedAt:   row.SyncedAt.UTC(),
		})
	}
	return out, nil
}

type snapshotTableModel struct {
	ID         string    `db:"id"`
	Endpoint   string    `db:"endpoint"`
	RawPayload string    `db:"raw_payload"`
	SyncedAt   time.Time `db:"synced_at"`
}
