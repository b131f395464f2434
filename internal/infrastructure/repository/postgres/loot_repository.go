package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/loot"
)

type LootRepository struct {
	db *sqlx.DB
}

func NewLootRepository(db *sqlx.DB) *LootRepository {
	return &LootRepository{db: db}
}

func (r *LootRepository) ReplaceAll(ctx context.Context, awards []loot.Award) error {
	return withTx(ctx, r.db, "replace loot awards", func(tx *sqlx.Tx) error {
		if err := deleteWhere(ctx, tx, "loot_awards"); err != nil {
			return err
		}

		for _, award := range awards {
			if award.RaiderID <= 0 {
				return fmt.Errorf("insert loot award item_id=%v: raider id is required", award.ItemID)
			}
			awardID, err := insertReturningID(ctx, tx, "loot_awards", lootAwardInsertModel{
				RaiderID:     award.RaiderID,
				SeasonID:     award.SeasonID,
				ExternalID:   award.ExternalID,
				ItemID:       award.ItemID,
				ItemName:     award.ItemName,
				AwardedAt:    award.AwardedAt,
				Difficulty:   award.Difficulty,
				ResponseType: award.ResponseType,
				Note:         award.Note,
			}, "")
			if err != nil {
				return err
			}

			bonusIDs := make([]lootBonusInsertModel, 0, len(award.BonusIDs))
			for idx, bonusID := range award.BonusIDs {
				bonusIDs = append(bonusIDs, lootBonusInsertModel{AwardID: awardID, Position: idx + 1, BonusID: bonusID})
			}
			if err := insertModels(ctx, tx, "loot_award_bonus_ids", bonusIDs); err != nil {
				return err
			}

			oldItems := make([]lootOldItemInsertModel, 0, len(award.OldItems))
			for _, item := range award.OldItems {
				oldItems = append(oldItems, lootOldItemInsertModel{AwardID: awardID, ItemID: item.ItemID, BonusID: item.BonusID})
			}
			if err := insertModels(ctx, tx, "loot_award_old_items", oldItems); err != nil {
				return err
			}

			if award.Wish != nil {
				if err := insertModels(ctx, tx, "loot_award_wishes", []lootWishInsertModel{{
					AwardID:        awardID,
					Specialization: award.Wish.Specialization,
					Value:          award.Wish.Value,
					Comment:        award.Wish.Comment,
				}}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

type lootAwardInsertModel struct {
	RaiderID     int64      `db:"raider_id"`
	SeasonID     int64      `db:"season_id"`
	ExternalID   *int64     `db:"external_id"`
	ItemID       *int64     `db:"item_id"`
	ItemName     string     `db:"item_name"`
	AwardedAt    *time.Time `db:"awarded_at"`
	Difficulty   string     `db:"difficulty"`
	ResponseType string     `db:"response_type"`
	Note         string     `db:"note"`
}

type lootBonusInsertModel struct {
	AwardID  int64 `db:"award_id"`
	Position int   `db:"position"`
	BonusID  int64 `db:"bonus_id"`
}

type lootOldItemInsertModel struct {
	AwardID int64  `db:"award_id"`
	ItemID  *int64 `db:"item_id"`
	BonusID *int64 `db:"bonus_id"`
}

type lootWishInsertModel struct {
	AwardID        int64    `db:"award_id"`
	Specialization string   `db:"specialization"`
	Value          *float64 `db:"value"`
	Comment        string   `db:"comment"`
}
