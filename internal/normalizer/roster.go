package normalizer

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
)

// RosterMember is one roster character with the collections it owns.
type RosterMember struct {
	Raider   raider.Raider
	Children raider.Children
}

// Roster normalizes the character list. Members without a name are skipped.
func (n *Normalizer) Roster(ctx context.Context, raw []byte, defaults Defaults) []RosterMember {
	items, _ := n.records(ctx, PayloadRoster, raw, "characters", "roster", "members", "data")
	out := make([]RosterMember, 0, len(items))
	for idx, item := range items {
		if !item.IsObject() {
			n.skip(ctx, PayloadRoster, idx, "record is not an object", nil)
			continue
		}
		member := parseRosterMember(item, defaults)
		if err := n.check(namedCheck{Name: member.Raider.Name}); err != nil {
			n.skip(ctx, PayloadRoster, idx, "character name is required", err)
			continue
		}
		out = append(out, member)
	}
	return out
}

func parseRosterMember(item jsontree.Node, defaults Defaults) RosterMember {
	ref := characterRef(item, defaults, "id")
	timestamps := item.Get("timestamps")

	r := raider.Raider{
		ExternalID:    ref.ExternalID,
		Name:          ref.Name,
		Realm:         ref.Realm,
		Region:        ref.Region,
		Class:         label(item, "class"),
		Spec:          label(item, "spec"),
		Role:          label(item, "role"),
		Rank:          label(item, "rank"),
		Status:        label(item, "status"),
		Note:          item.Text("note"),
		BlizzardID:    item.Int("blizzard_id"),
		TrackingSince: item.Time("tracking_since"),
		JoinDate:      timestamps.Time("join_date"),
		BlizzardLastModified: firstTime(
			timestamps.Time("blizzard_last_modified"),
			item.Time("blizzard_last_modified"),
		),
	}
	if r.JoinDate == nil {
		r.JoinDate = item.Time("join_date")
	}

	return RosterMember{
		Raider: r,
		Children: raider.Children{
			Gear:       parseGear(item.Get("gear")),
			Statistics: parseStatistics(item.Get("statistics")),
			Pvp:        parsePvp(item.Get("pvp")),
		},
	}
}

func parseGear(gear jsontree.Node) []raider.GearItem {
	if !gear.IsObject() {
		return nil
	}
	out := make([]raider.GearItem, 0, len(raider.GearVariants)*len(raider.GearSlots))
	for _, variant := range raider.GearVariants {
		set := gear.Get(string(variant))
		if !set.IsObject() {
			continue
		}
		for _, slot := range raider.GearSlots {
			piece := set.Get(slot)
			if !piece.IsObject() {
				continue
			}
			out = append(out, raider.GearItem{
				Variant:   variant,
				Slot:      slot,
				ItemID:    piece.IntAny(jsontree.Keys("id", "item_id")...),
				ItemLevel: piece.FloatAny(jsontree.Keys("ilvl", "item_level")...),
				Name:      textAny(piece, "name"),
				Quality:   piece.Int("quality"),
				Enchant:   piece.IntAny(jsontree.Keys("enchant", "enchant_id")...),
				Sockets:   piece.Int("sockets"),
			})
		}
	}
	return out
}

func parseStatistics(stats jsontree.Node) *raider.Statistics {
	if !stats.IsObject() {
		return nil
	}
	return &raider.Statistics{
		MythicPlusScore: mythicPlusScore(stats),
		ItemLevel:       stats.FloatAny(jsontree.Keys("item_level", "ilvl", "average_item_level")...),
		WeeklyDungeons:  stats.IntAny(jsontree.Keys("dungeons_done_this_week", "weekly_dungeons", "dungeons_this_week")...),
		WorldQuests:     stats.IntAny(jsontree.Keys("world_quests_done", "world_quests_total", "world_quests")...),
		BossScores:      parseBossScores(stats.Lookup(jsontree.Keys("boss_log_scores", "raid_boss_scores", "warcraftlogs")...)),
		TrackItems:      parseTrackItems(stats.Lookup(jsontree.Keys("track_items", "upgrade_tracks")...)),
		Crests:          parseCrests(stats.Lookup(jsontree.Keys("crests", "crest_counts")...)),
		VaultSlots:      parseVaultSlots(stats.Lookup(jsontree.Keys("vault", "great_vault", "vault_options")...)),
		Renown:          parseRenown(stats.Get("renown")),
		RaidProgress:    parseRaidProgress(stats.Lookup(jsontree.Keys("raid_progress", "raids")...)),
	}
}

var mythicPlusScoreKeys = jsontree.Keys("mplus_score", "mythic_plus_score", "m+_score", "current_mythic_plus_score", "score")

// mythicPlusScore reads the score from any known spelling, including object
// forms such as {"all": {"score": 2875.4}}.
func mythicPlusScore(stats jsontree.Node) *float64 {
	if v := stats.FloatAny(mythicPlusScoreKeys...); v != nil {
		return v
	}
	nested := stats.Lookup(mythicPlusScoreKeys...)
	if !nested.IsObject() {
		return nil
	}
	if v := nested.FloatAny(jsontree.Keys("all", "overall", "score", "value")...); v != nil {
		return v
	}
	for _, key := range []string{"all", "overall"} {
		if v := nested.Get(key).FloatAny(jsontree.Keys("score", "value")...); v != nil {
			return v
		}
	}
	return nil
}

func parseBossScores(node jsontree.Node) []raider.BossScore {
	if node.IsArray() {
		out := make([]raider.BossScore, 0, len(node.Items()))
		for _, item := range node.Items() {
			encounter := textAny(item, "encounter", "boss", "name")
			if encounter == "" {
				continue
			}
			out = append(out, raider.BossScore{
				Encounter:  encounter,
				Difficulty: textAny(item, "difficulty"),
				Percentile: item.FloatAny(jsontree.Keys("percentile", "score", "parse")...),
			})
		}
		return out
	}

	// {"heroic": {"Boss A": 88.1}, "mythic": {...}}
	out := make([]raider.BossScore, 0)
	for _, difficulty := range namedEntries(node) {
		for _, boss := range namedEntries(difficulty.Node) {
			percentile := boss.Node.AsFloat()
			if percentile == nil {
				percentile = boss.Node.FloatAny(jsontree.Keys("percentile", "score")...)
			}
			out = append(out, raider.BossScore{
				Encounter:  boss.Name,
				Difficulty: difficulty.Name,
				Percentile: percentile,
			})
		}
	}
	return out
}

func parseTrackItems(node jsontree.Node) []raider.TrackItem {
	entries := namedEntries(node, "track", "name")
	out := make([]raider.TrackItem, 0, len(entries))
	for _, entry := range entries {
		out = append(out, raider.TrackItem{
			Track: entry.Name,
			Count: scalarOrField(entry.Node, "count", "amount", "items"),
		})
	}
	return out
}

func parseCrests(node jsontree.Node) []raider.CrestCount {
	entries := namedEntries(node, "crest", "name")
	out := make([]raider.CrestCount, 0, len(entries))
	for _, entry := range entries {
		out = append(out, raider.CrestCount{
			Crest: entry.Name,
			Count: scalarOrField(entry.Node, "count", "amount", "quantity"),
		})
	}
	return out
}

// parseVaultSlots accepts {"raids": [616, null, 610]} or
// {"raids": {"option_1": 616, "option_2": 610}}.
func parseVaultSlots(node jsontree.Node) []raider.VaultSlot {
	out := make([]raider.VaultSlot, 0)
	for _, category := range namedEntries(node, "category", "name") {
		if category.Node.IsArray() {
			for idx, slot := range category.Node.Items() {
				out = append(out, raider.VaultSlot{
					Category:  category.Name,
					Slot:      idx + 1,
					ItemLevel: scalarOrField(slot, "item_level", "ilvl", "level"),
				})
			}
			continue
		}
		options := namedEntries(category.Node)
		if len(options) == 0 {
			continue
		}
		slots := make([]raider.VaultSlot, 0, len(options))
		for idx, option := range options {
			slot := optionIndex(option.Name)
			if slot == 0 {
				slot = idx + 1
			}
			slots = append(slots, raider.VaultSlot{
				Category:  category.Name,
				Slot:      slot,
				ItemLevel: scalarOrField(option.Node, "item_level", "ilvl", "level"),
			})
		}
		sort.SliceStable(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
		out = append(out, slots...)
	}
	return out
}

func optionIndex(name string) int {
	idx := strings.LastIndexAny(name, "_-")
	if idx < 0 || idx == len(name)-1 {
		return 0
	}
	v, err := strconv.Atoi(name[idx+1:])
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseRenown(node jsontree.Node) []raider.Renown {
	entries := namedEntries(node, "faction", "name")
	out := make([]raider.Renown, 0, len(entries))
	for _, entry := range entries {
		out = append(out, raider.Renown{
			Faction: entry.Name,
			Level:   scalarOrField(entry.Node, "level", "renown"),
		})
	}
	return out
}

// parseRaidProgress accepts an array of {instance, difficulty, killed, total}
// or {"Instance": {"heroic": {"killed": 6, "total": 8}}}.
func parseRaidProgress(node jsontree.Node) []raider.RaidProgress {
	if node.IsArray() {
		out := make([]raider.RaidProgress, 0, len(node.Items()))
		for _, item := range node.Items() {
			instance := textAny(item, "instance", "raid", "name")
			if instance == "" {
				continue
			}
			out = append(out, raider.RaidProgress{
				Instance:   instance,
				Difficulty: textAny(item, "difficulty"),
				Killed:     item.IntAny(jsontree.Keys("killed", "kills", "bosses_killed")...),
				Total:      item.IntAny(jsontree.Keys("total", "total_bosses", "bosses")...),
			})
		}
		return out
	}

	out := make([]raider.RaidProgress, 0)
	for _, instance := range namedEntries(node) {
		for _, difficulty := range namedEntries(instance.Node) {
			if !difficulty.Node.IsObject() {
				continue
			}
			out = append(out, raider.RaidProgress{
				Instance:   instance.Name,
				Difficulty: difficulty.Name,
				Killed:     difficulty.Node.IntAny(jsontree.Keys("killed", "kills", "bosses_killed")...),
				Total:      difficulty.Node.IntAny(jsontree.Keys("total", "total_bosses", "bosses")...),
			})
		}
	}
	return out
}

func parsePvp(node jsontree.Node) []raider.PvpBracket {
	entries := namedEntries(node, "bracket", "name")
	out := make([]raider.PvpBracket, 0, len(entries))
	for _, entry := range entries {
		if !entry.Node.IsObject() {
			continue
		}
		out = append(out, raider.PvpBracket{
			Bracket:       entry.Name,
			Rating:        entry.Node.IntAny(jsontree.Keys("rating", "current_rating")...),
			SeasonHighest: entry.Node.IntAny(jsontree.Keys("season_highest", "highest_rating", "max_rating")...),
			Played:        entry.Node.IntAny(jsontree.Keys("played", "season_played", "games_played")...),
			Won:           entry.Node.IntAny(jsontree.Keys("won", "season_won", "games_won")...),
		})
	}
	return out
}
