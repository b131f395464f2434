package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/guildsync/internal/domain/team"
	"github.com/riskibarqy/guildsync/internal/normalizer"
)

const (
	teamCacheKey   = "team"
	periodCacheKey = "period"
)

// syncContext carries the supporting data a stage may use. Either field may
// be nil when its fetch failed.
type syncContext struct {
	team     *team.Metadata
	period   *team.Period
	defaults normalizer.Defaults
}

func (sc syncContext) periodID() (int64, bool) {
	if sc.period == nil || sc.period.PeriodID <= 0 {
		return 0, false
	}
	return sc.period.PeriodID, true
}

func (sc syncContext) seasonID() (int64, bool) {
	if sc.period == nil || sc.period.SeasonID == nil || *sc.period.SeasonID <= 0 {
		return 0, false
	}
	return *sc.period.SeasonID, true
}

// loadContext fetches team and period on a best-effort basis.
func (s *GuildSyncService) loadContext(ctx context.Context) syncContext {
	var sc syncContext

	meta, err := s.teamCache.GetOrLoad(ctx, teamCacheKey, s.loadTeam)
	if err != nil {
		s.logger.WarnContext(ctx, "team metadata unavailable, continuing without it", "error", err)
	} else {
		sc.team = &meta
	}

	period, err := s.periodCache.GetOrLoad(ctx, periodCacheKey, s.loadPeriod)
	if err != nil {
		s.logger.WarnContext(ctx, "current period unavailable, continuing without it", "error", err)
	} else {
		sc.period = &period
	}

	sc.defaults = normalizer.DefaultsFromTeam(sc.team)
	return sc
}

func (s *GuildSyncService) loadTeam(ctx context.Context) (team.Metadata, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/team", s.source.FetchTeam)
	if err != nil {
		return team.Metadata{}, err
	}
	meta, ok := s.normalizer.Team(ctx, raw)
	if !ok {
		return team.Metadata{}, fmt.Errorf("%w: team payload could not be parsed", ErrContextUnavailable)
	}
	meta.FetchedAt = s.now()
	if err := s.repos.Team.SaveMetadata(ctx, meta); err != nil {
		return team.Metadata{}, fmt.Errorf("save team metadata: %w", err)
	}
	return meta, nil
}

func (s *GuildSyncService) loadPeriod(ctx context.Context) (team.Period, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/period", s.source.FetchPeriod)
	if err != nil {
		return team.Period{}, err
	}
	period, ok := s.normalizer.Period(ctx, raw)
	if !ok {
		return team.Period{}, fmt.Errorf("%w: period payload could not be parsed", ErrContextUnavailable)
	}
	period.FetchedAt = s.now()
	if err := s.repos.Team.SavePeriod(ctx, period); err != nil {
		return team.Period{}, fmt.Errorf("save period: %w", err)
	}
	return period, nil
}
