package normalizer

import (
	"context"

	"github.com/riskibarqy/guildsync/internal/domain/raid"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// RaidList returns the external ids from the raid listing in payload order.
func (n *Normalizer) RaidList(ctx context.Context, raw []byte) []int64 {
	return n.ids(ctx, PayloadRaids, raw, []string{"id", "raid_id"}, "raids", "data")
}

// ApplicationList returns the external ids from the application listing.
func (n *Normalizer) ApplicationList(ctx context.Context, raw []byte) []int64 {
	return n.ids(ctx, PayloadApplications, raw, []string{"id", "application_id"}, "applications", "data")
}

func (n *Normalizer) ids(ctx context.Context, payload string, raw []byte, idKeys []string, keys ...string) []int64 {
	items, _ := n.records(ctx, payload, raw, keys...)
	out := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for idx, item := range items {
		id := item.AsInt()
		if item.IsObject() {
			id = item.IntAny(jsontree.Keys(idKeys...)...)
		}
		if err := n.check(idCheck{ID: id}); err != nil {
			n.skip(ctx, payload, idx, "record has no id", err)
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		out = append(out, *id)
	}
	return out
}

// RaidDetail normalizes one raid. fallbackID is used when the body omits its id.
func (n *Normalizer) RaidDetail(ctx context.Context, raw []byte, fallbackID int64, defaults Defaults) (raid.Raid, bool) {
	root, ok := n.object(ctx, PayloadRaid, raw, "raid")
	if !ok {
		return raid.Raid{}, false
	}

	item := raid.Raid{
		ExternalID:  fallbackID,
		Date:        root.TimeAny(jsontree.Keys("date", "raid_date")...),
		StartTime:   textAny(root, "start_time"),
		EndTime:     textAny(root, "end_time"),
		Instance:    label(root, "instance"),
		Difficulty:  label(root, "difficulty"),
		Status:      label(root, "status"),
		Optional:    root.Bool("optional"),
		PresentSize: root.IntAny(jsontree.Keys("present_size", "present")...),
		TotalSize:   root.IntAny(jsontree.Keys("total_size", "size")...),
		Notes:       textAny(root, "notes", "note"),
	}
	if id := root.Int("id"); id != nil {
		item.ExternalID = *id
	}

	for idx, signup := range root.Lookup(jsontree.Keys("signups", "attendees")...).Items() {
		if !signup.IsObject() {
			n.skip(ctx, PayloadRaid, idx, "signup is not an object", nil)
			continue
		}
		ref := characterRef(signup, defaults, "character_id")
		if err := n.check(characterCheck{ExternalID: ref.ExternalID, Name: ref.Name}); err != nil {
			n.skip(ctx, PayloadRaid, idx, "signup has no character", err)
			continue
		}
		character := signup.Get("character")
		item.Signups = append(item.Signups, raid.Signup{
			CharacterExternalID: ref.ExternalID,
			Name:                ref.Name,
			Realm:               ref.Realm,
			Class:               firstText(label(signup, "class"), label(character, "class")),
			Role:                firstText(label(signup, "role"), label(character, "role")),
			Status:              label(signup, "status"),
			Comment:             textAny(signup, "comment", "note"),
			Selected:            signup.Bool("selected"),
		})
	}

	for idx, encounter := range root.Lookup(jsontree.Keys("encounters", "bosses")...).Items() {
		name := textAny(encounter, "name", "encounter")
		if name == "" {
			n.skip(ctx, PayloadRaid, idx, "encounter has no name", nil)
			continue
		}
		item.Encounters = append(item.Encounters, raid.Encounter{
			Name:     name,
			Enabled:  encounter.Bool("enabled"),
			Extra:    encounter.Bool("extra"),
			Notes:    textAny(encounter, "notes", "note"),
			Position: len(item.Encounters) + 1,
		})
	}
	return item, true
}

func firstText(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
