package app

import (
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guildsync/internal/domain/snapshot"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/riskibarqy/guildsync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/guildsync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/guildsync/internal/usecase"
)

type storageRepositories struct {
	sync      usecase.GuildSyncRepositories
	runs      syncrun.Repository
	snapshots snapshot.Repository
}

func postgresRepositories(db *sqlx.DB) storageRepositories {
	return storageRepositories{
		sync: usecase.GuildSyncRepositories{
			Raiders:      postgres.NewRaiderRepository(db),
			Loot:         postgres.NewLootRepository(db),
			Wishlists:    postgres.NewWishlistRepository(db),
			Attendance:   postgres.NewAttendanceRepository(db),
			Raids:        postgres.NewRaidRepository(db),
			Activity:     postgres.NewActivityRepository(db),
			Guests:       postgres.NewGuestRepository(db),
			Applications: postgres.NewApplicationRepository(db),
			Team:         postgres.NewTeamRepository(db),
		},
		runs:      postgres.NewSyncRunRepository(db),
		snapshots: postgres.NewSnapshotRepository(db),
	}
}

func memoryRepositories() storageRepositories {
	return storageRepositories{
		sync: usecase.GuildSyncRepositories{
			Raiders:      memory.NewRaiderRepository(),
			Loot:         memory.NewLootRepository(),
			Wishlists:    memory.NewWishlistRepository(),
			Attendance:   memory.NewAttendanceRepository(),
			Raids:        memory.NewRaidRepository(),
			Activity:     memory.NewActivityRepository(),
			Guests:       memory.NewGuestRepository(),
			Applications: memory.NewApplicationRepository(),
			Team:         memory.NewTeamRepository(),
		},
		runs:      memory.NewSyncRunRepository(),
		snapshots: memory.NewSnapshotRepository(),
	}
}
