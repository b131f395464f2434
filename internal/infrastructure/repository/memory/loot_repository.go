package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/guildsync/internal/domain/loot"
)

type LootRepository struct {
	mu     sync.RWMutex
	nextID int64
	awards []loot.Award
}

func NewLootRepository() *LootRepository {
	return &LootRepository{}
}

func (r *LootRepository) ReplaceAll(_ context.Context, awards []loot.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]loot.Award, 0, len(awards))
	for _, award := range awards {
		r.nextID++
		award.ID = r.nextID
		award.BonusIDs = append([]int64(nil), award.BonusIDs...)
		award.OldItems = append([]loot.OldItem(nil), award.OldItems...)
		next = append(next, award)
	}
	r.awards = next
	return nil
}

func (r *LootRepository) List() []loot.Award {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]loot.Award(nil), r.awards...)
}

// CountByRaider returns the number of stored awards owned by raiderID.
func (r *LootRepository) CountByRaider(raiderID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, award := range r.awards {
		if award.RaiderID == raiderID {
			count++
		}
	}
	return count
}
