package usecase

import "context"

// GuildDataSource fetches raw response bodies from the guild API. Bodies are
// returned untouched so they can be snapshotted before parsing.
type GuildDataSource interface {
	FetchRoster(ctx context.Context) ([]byte, error)
	FetchTeam(ctx context.Context) ([]byte, error)
	FetchPeriod(ctx context.Context) ([]byte, error)
	FetchLootHistory(ctx context.Context, seasonID int64) ([]byte, error)
	FetchWishlists(ctx context.Context) ([]byte, error)
	FetchWishlist(ctx context.Context, characterID int64) ([]byte, error)
	FetchAttendance(ctx context.Context) ([]byte, error)
	FetchRaids(ctx context.Context, includePast bool) ([]byte, error)
	FetchRaid(ctx context.Context, raidID int64) ([]byte, error)
	FetchHistoricalData(ctx context.Context, periodID int64) ([]byte, error)
	FetchCharacterHistory(ctx context.Context, characterID int64) ([]byte, error)
	FetchGuests(ctx context.Context) ([]byte, error)
	FetchApplications(ctx context.Context) ([]byte, error)
	FetchApplication(ctx context.Context, applicationID int64) ([]byte, error)
}
