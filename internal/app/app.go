package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/external/guildapi"
	"github.com/riskibarqy/guildsync/internal/config"
	"github.com/riskibarqy/guildsync/internal/normalizer"
	idgen "github.com/riskibarqy/guildsync/internal/platform/id"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
	"github.com/riskibarqy/guildsync/internal/platform/resilience"
	"github.com/riskibarqy/guildsync/internal/usecase"
)

// App holds the wired sync pipeline and the resources it owns.
type App struct {
	Config config.Config
	Logger *logging.Logger
	Sync   *usecase.GuildSyncService
	Runs   *usecase.RunTracker

	db *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db    *sqlx.DB
		repos storageRepositories
		err   error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repos = postgresRepositories(db)
	case config.StorageMemory:
		repos = memoryRepositories()
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	client := guildapi.NewClient(guildapi.ClientConfig{
		BaseURL:       cfg.GuildAPIBaseURL,
		APIKey:        cfg.GuildAPIKey,
		Timeout:       cfg.GuildAPITimeout,
		MaxRetries:    cfg.GuildAPIMaxRetries,
		RetryBackoff:  cfg.GuildAPIRetryBackoff,
		RatePerSecond: cfg.GuildAPIRatePerSecond,
		RateBurst:     cfg.GuildAPIRateBurst,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GuildAPICircuitEnabled,
			FailureThreshold: cfg.GuildAPICircuitFailureCount,
			OpenTimeout:      cfg.GuildAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GuildAPICircuitHalfOpenMaxReq,
		},
	})

	ids := idgen.NewUUIDGenerator()
	runs := usecase.NewRunTracker(repos.runs, ids, logger)
	syncSvc := usecase.NewGuildSyncService(
		client,
		normalizer.New(logger),
		repos.sync,
		runs,
		usecase.NewSnapshotStore(repos.snapshots, ids),
		usecase.GuildSyncConfig{
			DetailConcurrency: cfg.SyncDetailConcurrency,
			IncludePastRaids:  cfg.SyncIncludePastRaids,
			FallbackSeasonID:  cfg.SyncFallbackSeasonID,
			ContextCacheTTL:   cfg.SyncContextCacheTTL,
		},
		logger,
	)

	logger.Info("app wired",
		"storage", cfg.StorageDriver,
		"guild_api", cfg.GuildAPIBaseURL,
		"detail_concurrency", cfg.SyncDetailConcurrency,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Sync:   syncSvc,
		Runs:   runs,
		db:     db,
	}, nil
}

// Health pings the database when one is configured.
func (a *App) Health(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
