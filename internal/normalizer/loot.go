package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/loot"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// LootHistory normalizes a season loot export. Awards that do not identify
// their character are skipped. ok is false when the export is unparsable.
func (n *Normalizer) LootHistory(ctx context.Context, raw []byte, seasonID int64, defaults Defaults) ([]loot.Award, bool) {
	items, ok := n.records(ctx, PayloadLootHistory, raw, "history_items", "loot_history", "history", "items", "data")
	if !ok {
		return nil, false
	}
	out := make([]loot.Award, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			n.skip(ctx, PayloadLootHistory, idx, "record is not an object", nil)
			continue
		}
		award := parseAward(item, defaults)
		award.SeasonID = seasonID
		if err := n.check(characterCheck{ExternalID: award.Owner.ExternalID, Name: award.Owner.Name}); err != nil {
			n.skip(ctx, PayloadLootHistory, idx, "award has no character", err)
			continue
		}
		out = append(out, award)
	}
	return out, true
}

func parseAward(item jsontree.Node, defaults Defaults) loot.Award {
	itemNode := item.Get("item")

	award := loot.Award{
		ExternalID:   item.IntAny(jsontree.Keys("id", "award_id")...),
		Owner:        characterRef(item, defaults, "character_id"),
		ItemID:       itemNode.IntAny(jsontree.Keys("id", "item_id")...),
		ItemName:     textAny(itemNode, "name"),
		AwardedAt:    item.TimeAny(jsontree.Keys("awarded_at", "date", "created_at")...),
		Difficulty:   label(item, "difficulty"),
		ResponseType: label(item, "response_type"),
		Note:         textAny(item, "note", "comment"),
		BonusIDs:     unionIDs(idList(item.Get("bonus_ids")), idList(itemNode.Get("bonus_ids"))),
		OldItems:     parseOldItems(item.Lookup(jsontree.Keys("old_items", "replaced_items")...)),
		Wish:         firstWish(item.Lookup(jsontree.Keys("wish_data", "wishes", "wish")...)),
	}
	if award.ItemID == nil {
		award.ItemID = item.Int("item_id")
	}
	if award.ItemName == "" {
		award.ItemName = item.Text("item_name")
	}
	return award
}

// parseOldItems expands each replaced item into one row per bonus id, or a
// single row with a nil bonus id when it has none.
func parseOldItems(node jsontree.Node) []loot.OldItem {
	items := node.Items()
	if len(items) == 0 && node.IsObject() {
		items = []jsontree.Node{node}
	}
	out := make([]loot.OldItem, 0, len(items))
	for _, old := range items {
		var itemID *int64
		var bonusIDs []int64
		switch {
		case old.IsObject():
			itemID = old.IntAny(jsontree.Keys("item_id", "id")...)
			bonusIDs = unionIDs(idList(old.Get("bonus_ids")), idList(old.Get("item").Get("bonus_ids")))
			if itemID == nil {
				itemID = old.Get("item").IntAny(jsontree.Keys("id", "item_id")...)
			}
		default:
			itemID = old.AsInt()
		}
		if itemID == nil {
			continue
		}
		if len(bonusIDs) == 0 {
			out = append(out, loot.OldItem{ItemID: itemID})
			continue
		}
		for _, bonusID := range bonusIDs {
			out = append(out, loot.OldItem{ItemID: itemID, BonusID: int64Ptr(bonusID)})
		}
	}
	return out
}

// firstWish keeps only the first wish entry of an award, as exported, without
// ranking entries by value.
func firstWish(node jsontree.Node) *loot.Wish {
	wish := node
	if node.IsArray() {
		items := node.Items()
		if len(items) == 0 {
			return nil
		}
		wish = items[0]
	}
	if !wish.IsObject() {
		return nil
	}
	return &loot.Wish{
		Specialization: textAny(wish, "specialization", "spec", "name"),
		Value:          wish.FloatAny(jsontree.Keys("value", "score", "percentage")...),
		Comment:        textAny(wish, "comment", "note"),
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
