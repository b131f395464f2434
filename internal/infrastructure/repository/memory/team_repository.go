package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/guildsync/internal/domain/team"
)

type TeamRepository struct {
	mu       sync.RWMutex
	metadata *team.Metadata
	periods  map[int64]team.Period
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{periods: make(map[int64]team.Period)}
}

func (r *TeamRepository) SaveMetadata(_ context.Context, item team.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.RaidDays = append([]team.RaidDay(nil), item.RaidDays...)
	r.metadata = &item
	return nil
}

func (r *TeamRepository) SavePeriod(_ context.Context, item team.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.periods[item.PeriodID] = item
	return nil
}

func (r *TeamRepository) Metadata() (team.Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.metadata == nil {
		return team.Metadata{}, false
	}
	return *r.metadata, true
}

func (r *TeamRepository) Period(periodID int64) (team.Period, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.periods[periodID]
	return item, ok
}
