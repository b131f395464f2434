package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/wishlist"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// WishlistSummaries normalizes the wishlist listing. Rows need a character id
// because details are fetched by it.
func (n *Normalizer) WishlistSummaries(ctx context.Context, raw []byte, defaults Defaults) ([]wishlist.Summary, bool) {
	items, ok := n.records(ctx, PayloadWishlists, raw, "characters", "wishlists", "data")
	if !ok {
		return nil, false
	}
	out := make([]wishlist.Summary, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			n.skip(ctx, PayloadWishlists, idx, "record is not an object", nil)
			continue
		}
		owner := characterRef(item, defaults, "id", "character_id")
		if err := n.check(idCheck{ID: owner.ExternalID}); err != nil {
			n.skip(ctx, PayloadWishlists, idx, "wishlist has no character id", err)
			continue
		}
		out = append(out, wishlist.Summary{
			Owner:     owner,
			UpdatedAt: item.TimeAny(jsontree.Keys("updated_at", "last_updated")...),
		})
	}
	return out, true
}

// WishlistDetail normalizes one character wishlist. It accepts a flat entry
// list or the nested instances > difficulties > encounters > items layout.
func (n *Normalizer) WishlistDetail(ctx context.Context, raw []byte, fallback wishlist.Summary, defaults Defaults) (wishlist.Detail, bool) {
	root, ok := n.document(ctx, PayloadWishlist, raw)
	if !ok {
		return wishlist.Detail{}, false
	}
	if wrapped := root.Get("wishlist"); wrapped.IsObject() {
		root = wrapped
	}

	detail := wishlist.Detail{Owner: fallback.Owner}
	if root.IsObject() {
		owner := characterRef(root, defaults, "id", "character_id")
		if owner.ExternalID != nil {
			detail.Owner.ExternalID = owner.ExternalID
		}
		if owner.Name != "" {
			detail.Owner.Name = owner.Name
			detail.Owner.Realm = owner.Realm
			detail.Owner.Region = owner.Region
		}
	}

	if flat, ok := root.Collection("wishes", "entries", "items"); ok {
		for idx, item := range flat {
			entry, ok := parseWishlistEntry(item, wishlistScope{
				Instance:   textAny(item, "instance", "raid"),
				Difficulty: textAny(item, "difficulty"),
				Encounter:  textAny(item, "encounter", "boss"),
			})
			if !ok {
				n.skip(ctx, PayloadWishlist, idx, "wish has no item", nil)
				continue
			}
			detail.Entries = append(detail.Entries, entry)
		}
		return detail, true
	}

	idx := 0
	for _, instance := range root.Get("instances").Items() {
		instanceName := textAny(instance, "name", "instance")
		for _, difficulty := range instance.Get("difficulties").Items() {
			difficultyName := textAny(difficulty, "difficulty", "name")
			encounters := difficulty.Path("wishlist", "encounters")
			if !encounters.IsArray() {
				encounters = difficulty.Get("encounters")
			}
			for _, encounter := range encounters.Items() {
				scope := wishlistScope{
					Instance:   instanceName,
					Difficulty: difficultyName,
					Encounter:  textAny(encounter, "name", "encounter"),
				}
				for _, item := range encounter.Get("items").Items() {
					entry, ok := parseWishlistEntry(item, scope)
					if !ok {
						n.skip(ctx, PayloadWishlist, idx, "wish has no item", nil)
					} else {
						detail.Entries = append(detail.Entries, entry)
					}
					idx++
				}
			}
		}
	}
	return detail, true
}

type wishlistScope struct {
	Instance   string
	Difficulty string
	Encounter  string
}

// parseWishlistEntry reads one wished item. When the item lists several wish
// entries only the first is kept.
func parseWishlistEntry(item jsontree.Node, scope wishlistScope) (wishlist.Entry, bool) {
	if !item.IsObject() {
		return wishlist.Entry{}, false
	}
	itemNode := item
	if nested := item.Get("item"); nested.IsObject() {
		itemNode = nested
	}
	itemID := itemNode.IntAny(jsontree.Keys("id", "item_id")...)
	itemName := textAny(itemNode, "name", "item_name")
	if itemID == nil && itemName == "" {
		return wishlist.Entry{}, false
	}

	wish := item
	if wishes := item.Get("wishes"); wishes.IsArray() {
		if first := wishes.Items(); len(first) > 0 {
			wish = first[0]
		}
	}

	return wishlist.Entry{
		Instance:       scope.Instance,
		Difficulty:     scope.Difficulty,
		Encounter:      scope.Encounter,
		ItemID:         itemID,
		ItemName:       itemName,
		Score:          wish.FloatAny(jsontree.Keys("score", "value")...),
		Percentage:     wish.FloatAny(jsontree.Keys("percentage", "percent")...),
		Specialization: textAny(wish, "specialization", "spec"),
		Comment:        textAny(wish, "comment", "note"),
		UpdatedAt:      wish.TimeAny(jsontree.Keys("updated_at", "timestamp")...),
	}, true
}
