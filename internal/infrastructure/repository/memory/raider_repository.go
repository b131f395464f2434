package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
)

type RaiderRepository struct {
	mu       sync.RWMutex
	nextID   int64
	items    map[int64]raider.Raider
	children map[int64]raider.Children
}

func NewRaiderRepository() *RaiderRepository {
	return &RaiderRepository{
		items:    make(map[int64]raider.Raider),
		children: make(map[int64]raider.Children),
	}
}

func (r *RaiderRepository) FindByExternalID(_ context.Context, externalID int64) (raider.Raider, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ExternalID != nil && *item.ExternalID == externalID {
			return item, true, nil
		}
	}
	return raider.Raider{}, false, nil
}

func (r *RaiderRepository) FindByNaturalKey(_ context.Context, key raider.NaturalKey) (raider.Raider, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.NaturalKey() == key {
			return item, true, nil
		}
	}
	return raider.Raider{}, false, nil
}

func (r *RaiderRepository) Save(_ context.Context, item raider.Raider) (raider.Raider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		r.nextID++
		item.ID = r.nextID
	}
	r.items[item.ID] = item
	return item, nil
}

func (r *RaiderRepository) List(_ context.Context) ([]raider.Raider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]raider.Raider, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RaiderRepository) ReplaceChildren(_ context.Context, raiderID int64, children raider.Children) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.children[raiderID] = cloneChildren(children)
	return nil
}

// Children returns the stored collections of one raider.
func (r *RaiderRepository) Children(raiderID int64) (raider.Children, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	children, ok := r.children[raiderID]
	if !ok {
		return raider.Children{}, false
	}
	return cloneChildren(children), true
}

func cloneChildren(c raider.Children) raider.Children {
	out := raider.Children{
		Gear: append([]raider.GearItem(nil), c.Gear...),
		Pvp:  append([]raider.PvpBracket(nil), c.Pvp...),
	}
	if c.Statistics != nil {
		stats := *c.Statistics
		stats.BossScores = append([]raider.BossScore(nil), c.Statistics.BossScores...)
		stats.TrackItems = append([]raider.TrackItem(nil), c.Statistics.TrackItems...)
		stats.Crests = append([]raider.CrestCount(nil), c.Statistics.Crests...)
		stats.VaultSlots = append([]raider.VaultSlot(nil), c.Statistics.VaultSlots...)
		stats.Renown = append([]raider.Renown(nil), c.Statistics.Renown...)
		stats.RaidProgress = append([]raider.RaidProgress(nil), c.Statistics.RaidProgress...)
		out.Statistics = &stats
	}
	return out
}
