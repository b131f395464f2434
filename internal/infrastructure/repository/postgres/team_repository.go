package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/team"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) SaveMetadata(ctx context.Context, item team.Metadata) error {
	days := make([]raidDayInsertModel, 0, len(item.RaidDays))
	for _, day := range item.RaidDays {
		days = append(days, raidDayInsertModel{
			DayOfWeek: day.DayOfWeek,
			StartTime: day.StartTime,
			EndTime:   day.EndTime,
			Active:    day.Active,
		})
	}

	return withTx(ctx, r.db, "save team metadata", func(tx *sqlx.Tx) error {
		if err := upsertModel(ctx, tx, "team_metadata", teamMetadataInsertModel{
			ID:         1,
			ExternalID: item.ExternalID,
			Name:       item.Name,
			GuildName:  item.GuildName,
			Realm:      item.Realm,
			Region:     item.Region,
			FetchedAt:  item.FetchedAt,
		}, `ON CONFLICT (id) DO UPDATE SET
    external_id = EXCLUDED.external_id,
    name = EXCLUDED.name,
    guild_name = EXCLUDED.guild_name,
    realm = EXCLUDED.realm,
    region = EXCLUDED.region,
    fetched_at = EXCLUDED.fetched_at`); err != nil {
			return err
		}

		if err := deleteWhere(ctx, tx, "team_raid_days"); err != nil {
			return err
		}
		return insertModels(ctx, tx, "team_raid_days", days)
	})
}

func (r *TeamRepository) SavePeriod(ctx context.Context, item team.Period) error {
	return upsertModel(ctx, r.db, "periods", periodUpsertModel{
		PeriodID:   item.PeriodID,
		SeasonID:   item.SeasonID,
		SeasonName: item.SeasonName,
		Expansion:  item.Expansion,
		FetchedAt:  item.FetchedAt,
	}, `ON CONFLICT (period_id) DO UPDATE SET
    season_id = EXCLUDED.season_id,
    season_name = EXCLUDED.season_name,
    expansion = EXCLUDED.expansion,
    fetched_at = EXCLUDED.fetched_at`)
}

type teamMetadataInsertModel struct {
	ID         int64     `db:"id"`
	ExternalID *int64    `db:"external_id"`
	Name       string    `db:"name"`
	GuildName  string    `db:"guild_name"`
	Realm      string    `db:"realm"`
	Region     string    `db:"region"`
	FetchedAt  time.Time `db:"fetched_at"`
}

type raidDayInsertModel struct {
	DayOfWeek string `db:"day_of_week"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
	Active    *bool  `db:"active"`
}

type periodUpsertModel struct {
	PeriodID   int64     `db:"period_id"`
	SeasonID   *int64    `db:"season_id"`
	SeasonName string    `db:"season_name"`
	Expansion  string    `db:"expansion"`
	FetchedAt  time.Time `db:"fetched_at"`
}
