package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/activity"
	"github.com/riskibarqy/guildsync/internal/domain/application"
	"github.com/riskibarqy/guildsync/internal/domain/attendance"
	"github.com/riskibarqy/guildsync/internal/domain/guest"
	"github.com/riskibarqy/guildsync/internal/domain/loot"
	"github.com/riskibarqy/guildsync/internal/domain/raid"
	"github.com/riskibarqy/guildsync/internal/domain/raider"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/riskibarqy/guildsync/internal/domain/team"
	"github.com/riskibarqy/guildsync/internal/domain/wishlist"
	"github.com/riskibarqy/guildsync/internal/normalizer"
	"github.com/riskibarqy/guildsync/internal/platform/cache"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
)

const defaultContextCacheTTL = time.Minute

type GuildSyncConfig struct {
	DetailConcurrency int
	IncludePastRaids  bool
	FallbackSeasonID  int64
	ContextCacheTTL   time.Duration
}

// GuildSyncRepositories groups the persistence targets of every sync kind.
type GuildSyncRepositories struct {
	Raiders      raider.Repository
	Loot         loot.Repository
	Wishlists    wishlist.Repository
	Attendance   attendance.Repository
	Raids        raid.Repository
	Activity     activity.Repository
	Guests       guest.Repository
	Applications application.Repository
	Team         team.Repository
}

type GuildSyncService struct {
	source      GuildDataSource
	normalizer  *normalizer.Normalizer
	repos       GuildSyncRepositories
	upserter    *RaiderUpserter
	runs        *RunTracker
	snapshots   *SnapshotStore
	cfg         GuildSyncConfig
	teamCache   *cache.Store[team.Metadata]
	periodCache *cache.Store[team.Period]
	now         func() time.Time
	logger      *logging.Logger
}

func NewGuildSyncService(
	source GuildDataSource,
	norm *normalizer.Normalizer,
	repos GuildSyncRepositories,
	runs *RunTracker,
	snapshots *SnapshotStore,
	cfg GuildSyncConfig,
	logger *logging.Logger,
) *GuildSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if norm == nil {
		norm = normalizer.New(logger)
	}
	cfg.DetailConcurrency = normalizeDetailConcurrency(cfg.DetailConcurrency, 0)
	if cfg.ContextCacheTTL <= 0 {
		cfg.ContextCacheTTL = defaultContextCacheTTL
	}

	return &GuildSyncService{
		source:      source,
		normalizer:  norm,
		repos:       repos,
		upserter:    NewRaiderUpserter(repos.Raiders),
		runs:        runs,
		snapshots:   snapshots,
		cfg:         cfg,
		teamCache:   cache.NewStore[team.Metadata](cfg.ContextCacheTTL),
		periodCache: cache.NewStore[team.Period](cfg.ContextCacheTTL),
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.Named("guild_sync"),
	}
}

// RunAll runs the four syncs in sequence. A failed sync never prevents the
// next one from running.
func (s *GuildSyncService) RunAll(ctx context.Context) []SyncOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuildSyncService.RunAll")
	defer span.End()

	outcomes := make([]SyncOutcome, 0, len(syncrun.Kinds))
	for _, kind := range syncrun.Kinds {
		outcomes = append(outcomes, s.Run(ctx, kind))
	}
	return outcomes
}

// Run dispatches one sync kind.
func (s *GuildSyncService) Run(ctx context.Context, kind syncrun.Kind) SyncOutcome {
	switch kind {
	case syncrun.KindRoster:
		return s.SyncRoster(ctx)
	case syncrun.KindLootHistory:
		return s.SyncLootHistory(ctx)
	case syncrun.KindWishlists:
		return s.SyncWishlists(ctx)
	case syncrun.KindSupplemental:
		return s.SyncSupplementalData(ctx)
	default:
		return SyncOutcome{
			Kind:    kind,
			Status:  syncrun.StatusFailed,
			Message: fmt.Sprintf("%v: unknown sync kind %q", ErrInvalidInput, kind),
		}
	}
}

func (s *GuildSyncService) SyncRoster(ctx context.Context) SyncOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuildSyncService.SyncRoster")
	defer span.End()

	return s.runStage(ctx, syncrun.KindRoster, s.syncRoster)
}

func (s *GuildSyncService) syncRoster(ctx context.Context, sc syncContext) (string, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/characters", s.source.FetchRoster)
	if err != nil {
		return "", err
	}

	members := s.normalizer.Roster(ctx, raw, sc.defaults)
	for _, member := range members {
		stored, err := s.upserter.Upsert(ctx, member.Raider)
		if err != nil {
			return "", err
		}
		if err := s.upserter.ReplaceChildren(ctx, stored.ID, member.Children); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("synced %d raiders", len(members)), nil
}

func (s *GuildSyncService) SyncLootHistory(ctx context.Context) SyncOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuildSyncService.SyncLootHistory")
	defer span.End()

	return s.runStage(ctx, syncrun.KindLootHistory, s.syncLootHistory)
}

func (s *GuildSyncService) syncLootHistory(ctx context.Context, sc syncContext) (string, error) {
	seasonID, ok := sc.seasonID()
	if !ok {
		seasonID = s.cfg.FallbackSeasonID
	}
	if seasonID <= 0 {
		return "", fmt.Errorf("%w: no current season and no fallback season configured", ErrContextUnavailable)
	}

	raw, err := s.fetchAndSnapshot(ctx, fmt.Sprintf("/loot_history/%d", seasonID), func(ctx context.Context) ([]byte, error) {
		return s.source.FetchLootHistory(ctx, seasonID)
	})
	if err != nil {
		return "", err
	}

	awards, ok := s.normalizer.LootHistory(ctx, raw, seasonID, sc.defaults)
	if !ok {
		return "", fmt.Errorf("%w: loot history season_id=%d", ErrPayloadUnparsable, seasonID)
	}
	resolved := make([]loot.Award, 0, len(awards))
	skipped := 0
	for _, award := range awards {
		owner, err := s.upserter.EnsureRef(ctx, award.Owner)
		if errors.Is(err, ErrNotFound) {
			skipped++
			s.logger.WarnContext(ctx, "skipping loot award for unknown character",
				"season_id", seasonID,
				"error", err,
			)
			continue
		}
		if err != nil {
			return "", err
		}
		award.RaiderID = owner.ID
		resolved = append(resolved, award)
	}

	if err := s.repos.Loot.ReplaceAll(ctx, resolved); err != nil {
		return "", fmt.Errorf("replace loot awards season_id=%d: %w", seasonID, err)
	}
	return fmt.Sprintf("synced %d loot awards for season %d (skipped %d)", len(resolved), seasonID, skipped), nil
}

func (s *GuildSyncService) SyncWishlists(ctx context.Context) SyncOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuildSyncService.SyncWishlists")
	defer span.End()

	return s.runStage(ctx, syncrun.KindWishlists, s.syncWishlists)
}

func (s *GuildSyncService) syncWishlists(ctx context.Context, sc syncContext) (string, error) {
	raw, err := s.fetchAndSnapshot(ctx, "/wishlists", s.source.FetchWishlists)
	if err != nil {
		return "", err
	}
	summaries, ok := s.normalizer.WishlistSummaries(ctx, raw, sc.defaults)
	if !ok {
		return "", fmt.Errorf("%w: wishlist listing", ErrPayloadUnparsable)
	}

	var (
		characters, entries atomic.Int64
		keptMu              sync.Mutex
		kept                = make([]int64, 0, len(summaries))
	)
	err = fanOut(ctx, s.cfg.DetailConcurrency, summaries, func(ctx context.Context, summary wishlist.Summary) error {
		characterID := *summary.Owner.ExternalID
		body, err := s.fetchAndSnapshot(ctx, fmt.Sprintf("/wishlists/%d", characterID), func(ctx context.Context) ([]byte, error) {
			return s.source.FetchWishlist(ctx, characterID)
		})
		if err != nil {
			return err
		}

		detail, ok := s.normalizer.WishlistDetail(ctx, body, summary, sc.defaults)
		if !ok {
			detail = wishlist.Detail{Owner: summary.Owner}
		}
		owner, err := s.upserter.EnsureRef(ctx, detail.Owner)
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "skipping wishlist for unknown character", "character_id", characterID)
			return nil
		}
		if err != nil {
			return err
		}

		for i := range detail.Entries {
			detail.Entries[i].RaiderID = owner.ID
		}
		if err := s.repos.Wishlists.ReplaceForRaider(ctx, owner.ID, detail.Entries); err != nil {
			return fmt.Errorf("replace wishlist raider_id=%d: %w", owner.ID, err)
		}
		keptMu.Lock()
		kept = append(kept, owner.ID)
		keptMu.Unlock()
		characters.Add(1)
		entries.Add(int64(len(detail.Entries)))
		return nil
	})
	if err != nil {
		return "", err
	}
	// Characters gone from the listing lose their stored wishlist.
	if err := s.repos.Wishlists.DeleteExcept(ctx, kept); err != nil {
		return "", fmt.Errorf("prune wishlists: %w", err)
	}
	return fmt.Sprintf("synced %d wishlist entries for %d characters", entries.Load(), characters.Load()), nil
}

func (s *GuildSyncService) SyncSupplementalData(ctx context.Context) SyncOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuildSyncService.SyncSupplementalData")
	defer span.End()

	return s.runStage(ctx, syncrun.KindSupplemental, func(ctx context.Context, sc syncContext) (string, error) {
		return runChained(ctx, sc, []chainStep{
			{name: "attendance", run: s.syncAttendance},
			{name: "raids", run: s.syncRaids},
			{name: "historical activity", run: s.syncHistoricalActivity},
			{name: "guests", run: s.syncGuests},
			{name: "applications", run: s.syncApplications},
		})
	})
}
