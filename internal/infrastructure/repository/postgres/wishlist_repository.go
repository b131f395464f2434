package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/guildsync/internal/domain/wishlist"
	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

type WishlistRepository struct {
	db *sqlx.DB
}

func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) ReplaceForRaider(ctx context.Context, raiderID int64, entries []wishlist.Entry) error {
	rows := make([]wishlistEntryInsertModel, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, wishlistEntryInsertModel{
			RaiderID:       raiderID,
			Instance:       entry.Instance,
			Difficulty:     entry.Difficulty,
			Encounter:      entry.Encounter,
			ItemID:         entry.ItemID,
			ItemName:       entry.ItemName,
			Score:          entry.Score,
			Percentage:     entry.Percentage,
			Specialization: entry.Specialization,
			Comment:        entry.Comment,
			UpdatedAt:      entry.UpdatedAt,
		})
	}

	return withTx(ctx, r.db, "replace wishlist entries", func(tx *sqlx.Tx) error {
		if err := deleteWhere(ctx, tx, "wishlist_entries", qb.Eq("raider_id", raiderID)); err != nil {
			return err
		}
		return insertModels(ctx, tx, "wishlist_entries", rows)
	})
}

func (r *WishlistRepository) DeleteExcept(ctx context.Context, raiderIDs []int64) error {
	return withTx(ctx, r.db, "prune wishlist entries", func(tx *sqlx.Tx) error {
		if len(raiderIDs) == 0 {
			return deleteWhere(ctx, tx, "wishlist_entries")
		}
		return deleteWhere(ctx, tx, "wishlist_entries", wishlistOwnerNotIn(raiderIDs))
	})
}

func wishlistOwnerNotIn(raiderIDs []int64) qb.Condition {
	return qb.Expr("NOT (raider_id = ANY(?))", pq.Array(raiderIDs))
}

type wishlistEntryInsertModel struct {
	RaiderID       int64      `db:"raider_id"`
	Instance       string     `db:"instance"`
	Difficulty     string     `db:"difficulty"`
	Encounter      string     `db:"encounter"`
	ItemID         *int64     `db:"item_id"`
	ItemName       string     `db:"item_name"`
	Score          *float64   `db:"score"`
	Percentage     *float64   `db:"percentage"`
	Specialization string     `db:"specialization"`
	Comment        string     `db:"comment"`
	UpdatedAt      *time.Time `db:"updated_at"`
}
