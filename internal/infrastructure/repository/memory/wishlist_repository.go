package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/guildsync/internal/domain/wishlist"
)

type WishlistRepository struct {
	mu       sync.RWMutex
	byRaider map[int64][]wishlist.Entry
}

func NewWishlistRepository() *WishlistRepository {
	return &WishlistRepository{byRaider: make(map[int64][]wishlist.Entry)}
}

func (r *WishlistRepository) ReplaceForRaider(_ context.Context, raiderID int64, entries []wishlist.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRaider[raiderID] = append([]wishlist.Entry(nil), entries...)
	return nil
}

func (r *WishlistRepository) DeleteExcept(_ context.Context, raiderIDs []int64) error {
	keep := make(map[int64]struct{}, len(raiderIDs))
	for _, id := range raiderIDs {
		keep[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for raiderID := range r.byRaider {
		if _, ok := keep[raiderID]; !ok {
			delete(r.byRaider, raiderID)
		}
	}
	return nil
}

func (r *WishlistRepository) ListByRaider(raiderID int64) []wishlist.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]wishlist.Entry(nil), r.byRaider[raiderID]...)
}
