package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/team"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// Team normalizes the team description. FetchedAt is left for the caller.
func (n *Normalizer) Team(ctx context.Context, raw []byte) (team.Metadata, bool) {
	root, ok := n.object(ctx, PayloadTeam, raw, "team")
	if !ok {
		return team.Metadata{}, false
	}
	meta := team.Metadata{
		ExternalID: root.IntAny(jsontree.Keys("id", "team_id")...),
		Name:       textAny(root, "name"),
		GuildName:  firstText(textAny(root, "guild_name"), label(root, "guild")),
		Realm:      textAny(root, "realm", "guild_realm"),
		Region:     textAny(root, "region"),
	}
	if meta.Realm == "" {
		meta.Realm = textAny(root.Get("guild"), "realm")
	}
	if meta.Region == "" {
		meta.Region = textAny(root.Get("guild"), "region")
	}

	for idx, day := range root.Lookup(jsontree.Keys("raid_days", "schedule")...).Items() {
		dayOfWeek := textAny(day, "day_of_week", "day", "weekday")
		if dayOfWeek == "" {
			n.skip(ctx, PayloadTeam, idx, "raid day has no weekday", nil)
			continue
		}
		meta.RaidDays = append(meta.RaidDays, team.RaidDay{
			DayOfWeek: dayOfWeek,
			StartTime: textAny(day, "start_time"),
			EndTime:   textAny(day, "end_time"),
			Active:    day.Bool("active"),
		})
	}
	return meta, true
}

type periodCheck struct {
	PeriodID *int64 `validate:"required,gt=0"`
}

// Period normalizes the current period payload. A payload without a positive
// period id is rejected.
func (n *Normalizer) Period(ctx context.Context, raw []byte) (team.Period, bool) {
	root, ok := n.object(ctx, PayloadPeriod, raw)
	if !ok {
		return team.Period{}, false
	}
	periodID := root.IntAny(jsontree.Keys("current_period", "period", "period_id", "id")...)
	if err := n.check(periodCheck{PeriodID: periodID}); err != nil {
		n.skip(ctx, PayloadPeriod, 0, "period id is required", err)
		return team.Period{}, false
	}

	season := root.Get("current_season")
	if !season.IsObject() {
		season = root.Get("season")
	}
	out := team.Period{
		PeriodID:   *periodID,
		SeasonID:   season.IntAny(jsontree.Keys("id", "season_id")...),
		SeasonName: textAny(season, "name"),
		Expansion:  firstText(textAny(season, "expansion"), textAny(root, "expansion")),
	}
	if out.SeasonID == nil {
		out.SeasonID = root.IntAny(jsontree.Keys("season_id", "current_season")...)
	}
	return out, true
}
