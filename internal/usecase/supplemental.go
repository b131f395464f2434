package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
)

func (s *GuildSyncService) syncAttendance(ctx context.Context, sc syncContext) (string, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/attendance", s.source.FetchAttendance)
	if err != nil {
		return "", err
	}
	stats, ok := s.normalizer.Attendance(ctx, raw, sc.defaults)
	if !ok {
		return "", fmt.Errorf("%w: attendance", ErrPayloadUnparsable)
	}
	if err := s.repos.Attendance.ReplaceAll(ctx, stats); err != nil {
		return "", fmt.Errorf("replace attendance: %w", err)
	}
	return fmt.Sprintf("%d attendance rows", len(stats)), nil
}

func (s *GuildSyncService) syncRaids(ctx context.Context, sc syncContext) (string, error) {
	endpoint := "/raids"
	if s.cfg.IncludePastRaids {
		endpoint = "/raids?include_past=true"
	}
	raw, err := s.fetchAndSnapshot(ctx, endpoint, func(ctx context.Context) ([]byte, error) {
		return s.source.FetchRaids(ctx, s.cfg.IncludePastRaids)
	})
	if err != nil {
		return "", err
	}

	ids := s.normalizer.RaidList(ctx, raw)
	var stored atomic.Int64
	err = fanOut(ctx, s.cfg.DetailConcurrency, ids, func(ctx context.Context, raidID int64) error {
		body, err := s.fetchAndSnapshot(ctx, fmt.Sprintf("/raids/%d", raidID), func(ctx context.Context) ([]byte, error) {
			return s.source.FetchRaid(ctx, raidID)
		})
		if err != nil {
			return err
		}
		item, ok := s.normalizer.RaidDetail(ctx, body, raidID, sc.defaults)
		if !ok {
			return nil
		}
		if err := s.repos.Raids.Upsert(ctx, item); err != nil {
			return fmt.Errorf("upsert raid id=%d: %w", item.ExternalID, err)
		}
		stored.Add(1)
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d raids", stored.Load(), len(ids)), nil
}

// syncHistoricalActivity replaces the current period's activity. Without a
// known period it falls back to per-character history of stored raiders.
func (s *GuildSyncService) syncHistoricalActivity(ctx context.Context, sc syncContext) (string, error) {
	if periodID, ok := sc.periodID(); ok {
		raw, err := s.fetchAndSnapshot(ctx, fmt.Sprintf("/historical_data?period=%d", periodID), func(ctx context.Context) ([]byte, error) {
			return s.source.FetchHistoricalData(ctx, periodID)
		})
		if err != nil {
			return "", err
		}
		entries, ok := s.normalizer.HistoricalActivity(ctx, raw, &periodID, sc.defaults)
		if !ok {
			return "", fmt.Errorf("%w: historical activity period=%d", ErrPayloadUnparsable, periodID)
		}
		if err := s.repos.Activity.ReplaceForPeriod(ctx, periodID, entries); err != nil {
			return "", fmt.Errorf("replace historical activity period=%d: %w", periodID, err)
		}
		return fmt.Sprintf("%d historical activity rows for period %d", len(entries), periodID), nil
	}

	raiders, err := s.repos.Raiders.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list raiders for character history: %w", err)
	}
	characterIDs := make([]int64, 0, len(raiders))
	for _, item := range raiders {
		if item.ExternalID != nil {
			characterIDs = append(characterIDs, *item.ExternalID)
		}
	}
	s.logger.InfoContext(ctx, "current period unavailable, syncing per-character history",
		"characters", len(characterIDs),
	)

	var rows atomic.Int64
	err = fanOut(ctx, s.cfg.DetailConcurrency, characterIDs, func(ctx context.Context, characterID int64) error {
		body, err := s.fetchAndSnapshot(ctx, fmt.Sprintf("/historical_data/%d", characterID), func(ctx context.Context) ([]byte, error) {
			return s.source.FetchCharacterHistory(ctx, characterID)
		})
		if err != nil {
			return err
		}
		entries, ok := s.normalizer.CharacterHistory(ctx, body, characterID, sc.defaults)
		if !ok {
			return fmt.Errorf("%w: character history character_id=%d", ErrPayloadUnparsable, characterID)
		}
		if err := s.repos.Activity.ReplaceForCharacter(ctx, characterID, entries); err != nil {
			return fmt.Errorf("replace character history character_id=%d: %w", characterID, err)
		}
		rows.Add(int64(len(entries)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d historical activity rows for %d characters", rows.Load(), len(characterIDs)), nil
}

func (s *GuildSyncService) syncGuests(ctx context.Context, sc syncContext) (string, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/guests", s.source.FetchGuests)
	if err != nil {
		return "", err
	}
	guests, ok := s.normalizer.Guests(ctx, raw, sc.defaults)
	if !ok {
		return "", fmt.Errorf("%w: guests", ErrPayloadUnparsable)
	}
	if err := s.repos.Guests.ReplaceAll(ctx, guests); err != nil {
		return "", fmt.Errorf("replace guests: %w", err)
	}
	return fmt.Sprintf("%d guests", len(guests)), nil
}

func (s *GuildSyncService) syncApplications(ctx context.Context, sc syncContext) (string, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/applications", s.source.FetchApplications)
	if err != nil {
		return "", err
	}

	ids := s.normalizer.ApplicationList(ctx, raw)
	var stored atomic.Int64
	err = fanOut(ctx, s.cfg.DetailConcurrency, ids, func(ctx context.Context, applicationID int64) error {
		body, err := s.fetchAndSnapshot(ctx, fmt.Sprintf("/applications/%d", applicationID), func(ctx context.Context) ([]byte, error) {
			return s.source.FetchApplication(ctx, applicationID)
		})
		if err != nil {
			return err
		}
		item, ok := s.normalizer.ApplicationDetail(ctx, body, applicationID, sc.defaults)
		if !ok {
			return nil
		}
		if err := s.repos.Applications.Upsert(ctx, item); err != nil {
			return fmt.Errorf("upsert application id=%d: %w", item.ExternalID, err)
		}
		stored.Add(1)
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d applications", stored.Load(), len(ids)), nil
}
