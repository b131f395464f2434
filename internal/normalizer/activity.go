package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/activity"
	"github.com/riskibarqy/guildsync/internal/domain/raider"
	"github.com/riskibarqy/guildsync/internal/metrics"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// HistoricalActivity normalizes the per-period activity export. periodID
// stamps entries that do not carry their own period.
func (n *Normalizer) HistoricalActivity(ctx context.Context, raw []byte, periodID *int64, defaults Defaults) ([]activity.Entry, bool) {
	items, ok := n.records(ctx, PayloadHistoricalData, raw, "characters", "historical_data", "data")
	if !ok {
		return nil, false
	}
	return n.activityEntries(ctx, PayloadHistoricalData, items, periodID, nil, defaults), true
}

// CharacterHistory normalizes one character's activity across periods.
func (n *Normalizer) CharacterHistory(ctx context.Context, raw []byte, characterExternalID int64, defaults Defaults) ([]activity.Entry, bool) {
	root, ok := n.document(ctx, PayloadCharacterHistory, raw)
	if !ok {
		return nil, false
	}
	items, ok := root.Collection("history", "periods", "data")
	if !ok {
		if !root.IsObject() {
			metrics.PayloadRejected(PayloadCharacterHistory)
			n.logger.ErrorContext(ctx, "payload has no recognised record list", "payload", PayloadCharacterHistory)
			return nil, false
		}
		items = []jsontree.Node{root}
	}
	owner := characterRef(root, defaults, "character_id")
	if owner.ExternalID == nil {
		owner.ExternalID = &characterExternalID
	}
	return n.activityEntries(ctx, PayloadCharacterHistory, items, nil, &owner, defaults), true
}

func (n *Normalizer) activityEntries(ctx context.Context, payload string, items []jsontree.Node, periodID *int64, owner *raider.Ref, defaults Defaults) []activity.Entry {
	out := make([]activity.Entry, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			n.skip(ctx, payload, idx, "record is not an object", nil)
			continue
		}
		ref := characterRef(item, defaults, "character_id", "id")
		if owner != nil {
			ref = *owner
		}
		if err := n.check(characterCheck{ExternalID: ref.ExternalID, Name: ref.Name}); err != nil {
			n.skip(ctx, payload, idx, "activity has no character", err)
			continue
		}

		data := item.Get("data")
		if !data.IsObject() {
			data = item
		}
		encoded, err := data.JSON()
		if err != nil {
			n.skip(ctx, payload, idx, "activity data is not encodable", err)
			continue
		}

		entry := activity.Entry{
			PeriodID:            item.IntAny(jsontree.Keys("period", "period_id")...),
			CharacterExternalID: ref.ExternalID,
			Name:                ref.Name,
			Realm:               ref.Realm,
			DungeonsDone:        dungeonsDone(data),
			WorldQuests:         data.IntAny(jsontree.Keys("world_quests_done", "world_quests")...),
			VaultSlots:          vaultSlotCount(data),
			DataJSON:            encoded,
		}
		if entry.PeriodID == nil {
			entry.PeriodID = periodID
		}
		out = append(out, entry)
	}
	return out
}

// dungeonsDone accepts a count or the list of completed runs.
func dungeonsDone(data jsontree.Node) *int64 {
	node := data.Lookup(jsontree.Keys("dungeons_done", "dungeons")...)
	if node.IsArray() {
		v := int64(len(node.Items()))
		return &v
	}
	return node.AsInt()
}

// vaultSlotCount counts unlocked vault options across categories, or reads a
// plain count.
func vaultSlotCount(data jsontree.Node) *int64 {
	node := data.Lookup(jsontree.Keys("vault_options", "vault")...)
	if v := node.AsInt(); v != nil {
		return v
	}
	if !node.IsObject() {
		return nil
	}
	var total int64
	for _, category := range namedEntries(node) {
		for _, option := range namedEntries(category.Node) {
			if !option.Node.IsNull() {
				total++
			}
		}
		for _, option := range category.Node.Items() {
			if !option.IsNull() {
				total++
			}
		}
	}
	return &total
}
