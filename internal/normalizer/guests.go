package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/guest"
)

func (n *Normalizer) Guests(ctx context.Context, raw []byte, defaults Defaults) ([]guest.Guest, bool) {
	items, ok := n.records(ctx, PayloadGuests, raw, "guests", "characters", "data")
	if !ok {
		return nil, false
	}
	out := make([]guest.Guest, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			n.skip(ctx, PayloadGuests, idx, "record is not an object", nil)
			continue
		}
		ref := characterRef(item, defaults, "id", "character_id")
		if err := n.check(namedCheck{Name: ref.Name}); err != nil {
			n.skip(ctx, PayloadGuests, idx, "guest name is required", err)
			continue
		}
		out = append(out, guest.Guest{
			ExternalID: ref.ExternalID,
			Name:       ref.Name,
			Realm:      ref.Realm,
			Class:      label(item, "class"),
			Role:       label(item, "role"),
			Note:       textAny(item, "note", "comment"),
		})
	}
	return out, true
}
