package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/raider"
	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

// raiderChildTables are cleared before a raider's children are reinserted.
var raiderChildTables = []string{
	"raider_gear",
	"raider_statistics",
	"raider_boss_scores",
	"raider_track_items",
	"raider_crests",
	"raider_vault_slots",
	"raider_renown",
	"raider_raid_progress",
	"raider_pvp",
}

type RaiderRepository struct {
	db *sqlx.DB
}

func NewRaiderRepository(db *sqlx.DB) *RaiderRepository {
	return &RaiderRepository{db: db}
}

func (r *RaiderRepository) FindByExternalID(ctx context.Context, externalID int64) (raider.Raider, bool, error) {
	query, args, err := qb.Select("*").From("raiders").
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return raider.Raider{}, false, fmt.Errorf("build select raider by external id query: %w", err)
	}
	return r.findOne(ctx, query, args)
}

func (r *RaiderRepository) FindByNaturalKey(ctx context.Context, key raider.NaturalKey) (raider.Raider, bool, error) {
	query, args, err := qb.Select("*").From("raiders").
		Where(
			qb.Expr("LOWER(name) = ?", key.Name),
			qb.Expr("LOWER(realm) = ?", key.Realm),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return raider.Raider{}, false, fmt.Errorf("build select raider by natural key query: %w", err)
	}
	return r.findOne(ctx, query, args)
}

func (r *RaiderRepository) findOne(ctx context.Context, query string, args []any) (raider.Raider, bool, error) {
	var row raiderTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return raider.Raider{}, false, nil
		}
		return raider.Raider{}, false, fmt.Errorf("select raider: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *RaiderRepository) Save(ctx context.Context, item raider.Raider) (raider.Raider, error) {
	model := newRaiderWriteModel(item)
	if item.ID == 0 {
		id, err := insertReturningID(ctx, r.db, "raiders", model, "")
		if err != nil {
			return raider.Raider{}, err
		}
		item.ID = id
		return item, nil
	}

	query, args, err := qb.Update("raiders").
		Set("external_id", model.ExternalID).
		Set("name", model.Name).
		Set("realm", model.Realm).
		Set("region", model.Region).
		Set("class", model.Class).
		Set("spec", model.Spec).
		Set("role", model.Role).
		Set("rank", model.Rank).
		Set("status", model.Status).
		Set("note", model.Note).
		Set("blizzard_id", model.BlizzardID).
		Set("tracking_since", model.TrackingSince).
		Set("join_date", model.JoinDate).
		Set("blizzard_last_modified", model.BlizzardLastModified).
		Set("last_sync", model.LastSync).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return raider.Raider{}, fmt.Errorf("build update raider query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return raider.Raider{}, fmt.Errorf("update raider id=%d: %w", item.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return raider.Raider{}, fmt.Errorf("update raider id=%d: no row", item.ID)
	}
	return item, nil
}

func (r *RaiderRepository) List(ctx context.Context) ([]raider.Raider, error) {
	query, args, err := qb.Select("*").From("raiders").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select raiders query: %w", err)
	}

	var rows []raiderTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select raiders: %w", err)
	}

	out := make([]raider.Raider, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *RaiderRepository) ReplaceChildren(ctx context.Context, raiderID int64, children raider.Children) error {
	return withTx(ctx, r.db, "replace raider children", func(tx *sqlx.Tx) error {
		for _, table := range raiderChildTables {
			if err := deleteWhere(ctx, tx, table, qb.Eq("raider_id", raiderID)); err != nil {
				return err
			}
		}

		gear := make([]gearInsertModel, 0, len(children.Gear))
		for _, item := range children.Gear {
			gear = append(gear, gearInsertModel{
				RaiderID:  raiderID,
				Variant:   string(item.Variant),
				Slot:      item.Slot,
				ItemID:    item.ItemID,
				ItemLevel: item.ItemLevel,
				Name:      item.Name,
				Quality:   item.Quality,
				Enchant:   item.Enchant,
				Sockets:   item.Sockets,
			})
		}
		if err := insertModels(ctx, tx, "raider_gear", gear); err != nil {
			return err
		}

		pvp := make([]pvpInsertModel, 0, len(children.Pvp))
		for _, item := range children.Pvp {
			pvp = append(pvp, pvpInsertModel{
				RaiderID:      raiderID,
				Bracket:       item.Bracket,
				Rating:        item.Rating,
				SeasonHighest: item.SeasonHighest,
				Played:        item.Played,
				Won:           item.Won,
			})
		}
		if err := insertModels(ctx, tx, "raider_pvp", pvp); err != nil {
			return err
		}

		if children.Statistics == nil {
			return nil
		}
		return insertStatistics(ctx, tx, raiderID, *children.Statistics)
	})
}

func insertStatistics(ctx context.Context, tx *sqlx.Tx, raiderID int64, stats raider.Statistics) error {
	if err := insertModels(ctx, tx, "raider_statistics", []statisticsInsertModel{{
		RaiderID:        raiderID,
		MythicPlusScore: stats.MythicPlusScore,
		ItemLevel:       stats.ItemLevel,
		WeeklyDungeons:  stats.WeeklyDungeons,
		WorldQuests:     stats.WorldQuests,
	}}); err != nil {
		return err
	}

	bossScores := make([]bossScoreInsertModel, 0, len(stats.BossScores))
	for _, item := range stats.BossScores {
		bossScores = append(bossScores, bossScoreInsertModel{RaiderID: raiderID, Encounter: item.Encounter, Difficulty: item.Difficulty, Percentile: item.Percentile})
	}
	if err := insertModels(ctx, tx, "raider_boss_scores", bossScores); err != nil {
		return err
	}

	tracks := make([]trackItemInsertModel, 0, len(stats.TrackItems))
	for _, item := range stats.TrackItems {
		tracks = append(tracks, trackItemInsertModel{RaiderID: raiderID, Track: item.Track, Count: item.Count})
	}
	if err := insertModels(ctx, tx, "raider_track_items", tracks); err != nil {
		return err
	}

	crests := make([]crestInsertModel, 0, len(stats.Crests))
	for _, item := range stats.Crests {
		crests = append(crests, crestInsertModel{RaiderID: raiderID, Crest: item.Crest, Count: item.Count})
	}
	if err := insertModels(ctx, tx, "raider_crests", crests); err != nil {
		return err
	}

	vault := make([]vaultSlotInsertModel, 0, len(stats.VaultSlots))
	for _, item := range stats.VaultSlots {
		vault = append(vault, vaultSlotInsertModel{RaiderID: raiderID, Category: item.Category, Slot: item.Slot, ItemLevel: item.ItemLevel})
	}
	if err := insertModels(ctx, tx, "raider_vault_slots", vault); err != nil {
		return err
	}

	renown := make([]renownInsertModel, 0, len(stats.Renown))
	for _, item := range stats.Renown {
		renown = append(renown, renownInsertModel{RaiderID: raiderID, Faction: item.Faction, Level: item.Level})
	}
	if err := insertModels(ctx, tx, "raider_renown", renown); err != nil {
		return err
	}

	progress := make([]raidProgressInsertModel, 0, len(stats.RaidProgress))
	for _, item := range stats.RaidProgress {
		progress = append(progress, raidProgressInsertModel{
			RaiderID:   raiderID,
			Instance:   item.Instance,
			Difficulty: item.Difficulty,
			Killed:     item.Killed,
			Total:      item.Total,
		})
	}
	return insertModels(ctx, tx, "raider_raid_progress", progress)
}
