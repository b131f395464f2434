package normalizer

import (
	"context"
	"strings"
	"testing"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
	"github.com/riskibarqy/guildsync/internal/domain/wishlist"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestNormalizer() (*Normalizer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(logging.FromZap(zap.New(core))), logs
}

var usDefaults = Defaults{Realm: "Area 52", Region: "US"}

func TestRoster_SkipsRecordWithoutName(t *testing.T) {
	t.Parallel()

	n, logs := newTestNormalizer()
	raw := []byte(`[
		{"name":"Thrall","realm":"Area 52","region":"US","class":"Shaman","spec":"Elemental","role":"DPS","id":42},
		{"realm":"Area 52"}
	]`)

	members := n.Roster(context.Background(), raw, usDefaults)
	if len(members) != 1 {
		t.Fatalf("expected one member, got=%d", len(members))
	}
	got := members[0].Raider
	if got.Name != "Thrall" || got.Spec != "Elemental" || got.Class != "Shaman" {
		t.Fatalf("unexpected raider: %+v", got)
	}
	if got.ExternalID == nil || *got.ExternalID != 42 {
		t.Fatalf("unexpected external id: %v", got.ExternalID)
	}

	skips := logs.FilterMessage("skipping malformed record").All()
	if len(skips) != 1 {
		t.Fatalf("expected one skip log, got=%d", len(skips))
	}
	if skips[0].ContextMap()["index"] != int64(1) {
		t.Fatalf("unexpected skip index: %v", skips[0].ContextMap()["index"])
	}
}

func TestRoster_WrappedCollectionAndDefaults(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"characters":[{"name":"Jaina","class":{"name":"Mage"}}]}`)

	members := n.Roster(context.Background(), raw, usDefaults)
	if len(members) != 1 {
		t.Fatalf("expected one member, got=%d", len(members))
	}
	got := members[0].Raider
	if got.Realm != "Area 52" || got.Region != "US" {
		t.Fatalf("expected team defaults, got realm=%q region=%q", got.Realm, got.Region)
	}
	if got.Class != "Mage" {
		t.Fatalf("expected class from object label, got=%q", got.Class)
	}
	if got.ExternalID != nil {
		t.Fatalf("expected nil external id, got=%d", *got.ExternalID)
	}
}

func TestRoster_AbsentValuesStayNil(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`[{"name":"Thrall","statistics":{"mythic_plus_score":0,"renown":{"Council":12}}}]`)

	members := n.Roster(context.Background(), raw, usDefaults)
	if len(members) != 1 {
		t.Fatalf("expected one member, got=%d", len(members))
	}
	stats := members[0].Children.Statistics
	if stats == nil {
		t.Fatalf("expected statistics")
	}
	if stats.MythicPlusScore == nil || *stats.MythicPlusScore != 0 {
		t.Fatalf("expected explicit zero score, got=%v", stats.MythicPlusScore)
	}
	if stats.ItemLevel != nil {
		t.Fatalf("expected nil item level, got=%v", *stats.ItemLevel)
	}
	if len(stats.Renown) != 1 || stats.Renown[0].Faction != "Council" || *stats.Renown[0].Level != 12 {
		t.Fatalf("unexpected renown: %+v", stats.Renown)
	}
}

func TestRoster_GearVariants(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`[{"name":"Thrall","gear":{
		"equipped":{"head":{"id":1,"ilvl":639.5,"name":"Helm"},"neck":{"itemId":2,"itemLevel":636}},
		"best":{"head":{"id":3,"ilvl":645}}
	}}]`)

	members := n.Roster(context.Background(), raw, usDefaults)
	gear := members[0].Children.Gear
	if len(gear) != 3 {
		t.Fatalf("expected three gear rows, got=%d", len(gear))
	}
	if gear[0].Variant != raider.GearEquipped || gear[0].Slot != "head" || *gear[0].ItemLevel != 639.5 {
		t.Fatalf("unexpected first gear row: %+v", gear[0])
	}
	if *gear[1].ItemID != 2 || *gear[1].ItemLevel != 636 {
		t.Fatalf("expected camelCase gear fields, got=%+v", gear[1])
	}
	if gear[2].Variant != raider.GearBest {
		t.Fatalf("unexpected variant: %s", gear[2].Variant)
	}
}

func TestLootHistory_BonusUnionOldItemsAndFirstWish(t *testing.T) {
	t.Parallel()

	n, logs := newTestNormalizer()
	raw := []byte(`{"history_items":[
		{
			"id":7,
			"character":{"id":42,"name":"Thrall","realm":"Area 52"},
			"item":{"id":1001,"name":"Blade","bonus_ids":[2,3]},
			"bonus_ids":[1,2],
			"old_items":[{"item_id":99}],
			"response_type":{"name":"BiS"},
			"wish_data":[{"specialization":"Elemental","value":12.5},{"specialization":"Enhancement","value":40}]
		},
		{"id":8,"item":{"id":5}}
	]}`)

	awards, _ := n.LootHistory(context.Background(), raw, 13, usDefaults)
	if len(awards) != 1 {
		t.Fatalf("expected one award, got=%d", len(awards))
	}
	got := awards[0]
	if got.SeasonID != 13 || *got.ExternalID != 7 || *got.ItemID != 1001 || got.ItemName != "Blade" {
		t.Fatalf("unexpected award: %+v", got)
	}
	if len(got.BonusIDs) != 3 || got.BonusIDs[0] != 1 || got.BonusIDs[1] != 2 || got.BonusIDs[2] != 3 {
		t.Fatalf("unexpected bonus ids: %v", got.BonusIDs)
	}
	if len(got.OldItems) != 1 || *got.OldItems[0].ItemID != 99 || got.OldItems[0].BonusID != nil {
		t.Fatalf("unexpected old items: %+v", got.OldItems)
	}
	if got.Wish == nil || got.Wish.Specialization != "Elemental" || *got.Wish.Value != 12.5 {
		t.Fatalf("expected first wish, got=%+v", got.Wish)
	}
	if got.ResponseType != "BiS" {
		t.Fatalf("unexpected response type: %q", got.ResponseType)
	}
	if got.Owner.Region != "US" || got.Owner.Realm != "Area 52" {
		t.Fatalf("unexpected owner: %+v", got.Owner)
	}
	if logs.FilterMessage("skipping malformed record").Len() != 1 {
		t.Fatalf("expected a skip log for the award without character")
	}
}

func TestLootHistory_OldItemBonusExpansion(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`[{"character_id":42,"item_id":5,"old_items":[{"item_id":77,"bonus_ids":[10,11]},88]}]`)

	awards, _ := n.LootHistory(context.Background(), raw, 1, usDefaults)
	if len(awards) != 1 {
		t.Fatalf("expected one award, got=%d", len(awards))
	}
	old := awards[0].OldItems
	if len(old) != 3 {
		t.Fatalf("expected three old item rows, got=%d", len(old))
	}
	if *old[0].ItemID != 77 || *old[0].BonusID != 10 || *old[1].BonusID != 11 {
		t.Fatalf("unexpected expanded rows: %+v %+v", old[0], old[1])
	}
	if *old[2].ItemID != 88 || old[2].BonusID != nil {
		t.Fatalf("unexpected bare old item row: %+v", old[2])
	}
}

func TestLootHistory_CamelCaseBeforeSnakeCase(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"historyItems":[{"characterId":42,"characterName":"Jaina","character_name":"Ignored","itemId":5,"bonusIds":"10:11"}]}`)

	awards, _ := n.LootHistory(context.Background(), raw, 1, usDefaults)
	if len(awards) != 1 {
		t.Fatalf("expected one award, got=%d", len(awards))
	}
	got := awards[0]
	if got.Owner.Name != "Jaina" || *got.Owner.ExternalID != 42 {
		t.Fatalf("unexpected owner: %+v", got.Owner)
	}
	if *got.ItemID != 5 {
		t.Fatalf("unexpected item id: %d", *got.ItemID)
	}
	if len(got.BonusIDs) != 2 || got.BonusIDs[0] != 10 || got.BonusIDs[1] != 11 {
		t.Fatalf("unexpected bonus ids: %v", got.BonusIDs)
	}
}

func TestLootHistory_InvalidJSONNotOK(t *testing.T) {
	t.Parallel()

	n, logs := newTestNormalizer()
	awards, ok := n.LootHistory(context.Background(), []byte(`{not json`), 1, usDefaults)
	if ok || len(awards) != 0 {
		t.Fatalf("expected unparsable export, got ok=%v awards=%d", ok, len(awards))
	}
	errs := logs.FilterMessage("payload is not valid json").All()
	if len(errs) != 1 || errs[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error log, got=%d", len(errs))
	}
}

func TestLootHistory_UnknownShapeNotOK(t *testing.T) {
	t.Parallel()

	n, logs := newTestNormalizer()
	awards, ok := n.LootHistory(context.Background(), []byte(`{"unexpected":{"a":1}}`), 1, usDefaults)
	if ok || len(awards) != 0 {
		t.Fatalf("expected unparsable export, got ok=%v awards=%d", ok, len(awards))
	}
	if logs.FilterMessage("payload has no recognised record list").Len() != 1 {
		t.Fatalf("expected shape error log")
	}
}

func TestWishlistSummaries_RequireCharacterID(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"characters":[{"id":42,"name":"Thrall"},{"name":"NoID"}]}`)

	summaries, _ := n.WishlistSummaries(context.Background(), raw, usDefaults)
	if len(summaries) != 1 || *summaries[0].Owner.ExternalID != 42 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}

func TestWishlistDetail_NestedLayoutKeepsFirstWish(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"instances":[{"name":"Liberation","difficulties":[{"difficulty":"mythic","wishlist":{"encounters":[
		{"name":"Vexie","items":[{"id":212,"name":"Ring","wishes":[{"score":3.5,"specialization":"Frost"},{"score":9}]}]}
	]}}]}]}`)
	id := int64(42)
	fallback := wishlist.Summary{Owner: raider.Ref{ExternalID: &id, Name: "Thrall", Realm: "Area 52"}}

	detail, ok := n.WishlistDetail(context.Background(), raw, fallback, usDefaults)
	if !ok {
		t.Fatalf("expected detail")
	}
	if *detail.Owner.ExternalID != 42 || detail.Owner.Name != "Thrall" {
		t.Fatalf("expected fallback owner, got=%+v", detail.Owner)
	}
	if len(detail.Entries) != 1 {
		t.Fatalf("expected one entry, got=%d", len(detail.Entries))
	}
	entry := detail.Entries[0]
	if entry.Instance != "Liberation" || entry.Difficulty != "mythic" || entry.Encounter != "Vexie" {
		t.Fatalf("unexpected scope: %+v", entry)
	}
	if *entry.ItemID != 212 || *entry.Score != 3.5 || entry.Specialization != "Frost" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestAttendance(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"characters":[{"id":42,"name":"Thrall","attendance_percentage":87.5,"raids_attended":7,"raids_total":8},{"attendance":10}]}`)

	stats, _ := n.Attendance(context.Background(), raw, usDefaults)
	if len(stats) != 1 {
		t.Fatalf("expected one stat, got=%d", len(stats))
	}
	if *stats[0].Percentage != 87.5 || *stats[0].Attended != 7 || *stats[0].Total != 8 {
		t.Fatalf("unexpected stat: %+v", stats[0])
	}
}

func TestRaidList_DeduplicatesAndSkips(t *testing.T) {
	t.Parallel()

	n, logs := newTestNormalizer()
	raw := []byte(`{"raids":[{"id":3},{"id":3},{"name":"missing"},4]}`)

	ids := n.RaidList(context.Background(), raw)
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if logs.FilterMessage("skipping malformed record").Len() != 1 {
		t.Fatalf("expected one skip log")
	}
}

func TestRaidDetail(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"id":55,"date":"2026-10-01","instance":"Liberation","difficulty":"Heroic",
		"signups":[{"character":{"id":42,"name":"Thrall","class":"Shaman"},"status":"Present","selected":true},{"status":"Absent"}],
		"encounters":[{"name":"Vexie","enabled":true},{"name":"Cauldron","enabled":false}]}`)

	got, ok := n.RaidDetail(context.Background(), raw, 1, usDefaults)
	if !ok {
		t.Fatalf("expected raid")
	}
	if got.ExternalID != 55 || got.Instance != "Liberation" || got.Date == nil {
		t.Fatalf("unexpected raid: %+v", got)
	}
	if len(got.Signups) != 1 || got.Signups[0].Class != "Shaman" || !*got.Signups[0].Selected {
		t.Fatalf("unexpected signups: %+v", got.Signups)
	}
	if len(got.Encounters) != 2 || got.Encounters[1].Position != 2 || *got.Encounters[1].Enabled {
		t.Fatalf("unexpected encounters: %+v", got.Encounters)
	}
}

func TestHistoricalActivity(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"characters":[{"id":42,"name":"Thrall","data":{"dungeons_done":[{"level":10},{"level":12}],"world_quests_done":5}}]}`)
	period := int64(977)

	entries, _ := n.HistoricalActivity(context.Background(), raw, &period, usDefaults)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got=%d", len(entries))
	}
	got := entries[0]
	if *got.PeriodID != 977 || *got.DungeonsDone != 2 || *got.WorldQuests != 5 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if !strings.Contains(got.DataJSON, "dungeons_done") {
		t.Fatalf("expected raw data json, got=%s", got.DataJSON)
	}
}

func TestCharacterHistory_StampsCharacter(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"history":[{"period":970,"data":{"dungeons_done":3}},{"period":971,"data":{"dungeons_done":1}}]}`)

	entries, _ := n.CharacterHistory(context.Background(), raw, 42, usDefaults)
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got=%d", len(entries))
	}
	for _, entry := range entries {
		if entry.CharacterExternalID == nil || *entry.CharacterExternalID != 42 {
			t.Fatalf("expected character 42, got=%v", entry.CharacterExternalID)
		}
	}
	if *entries[1].PeriodID != 971 || *entries[1].DungeonsDone != 1 {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}
}

func TestGuests(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`[{"name":"Anduin","class":"Priest"},{"class":"Rogue"}]`)

	guests, _ := n.Guests(context.Background(), raw, usDefaults)
	if len(guests) != 1 || guests[0].Name != "Anduin" || guests[0].Realm != "Area 52" {
		t.Fatalf("unexpected guests: %+v", guests)
	}
}

func TestApplicationDetail(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	raw := []byte(`{"application":{"id":9,"character":{"name":"Sylvanas","realm":"Silvermoon","class":"Hunter"},
		"status":"pending","alts":[{"name":"Nathanos"}],
		"questions":[{"question":"Logs?","answer":"yes","files":[{"name":"log.png","url":"https://cdn/x.png"},"https://cdn/y.png"]}]}}`)

	got, ok := n.ApplicationDetail(context.Background(), raw, 1, usDefaults)
	if !ok {
		t.Fatalf("expected application")
	}
	if got.ExternalID != 9 || got.Name != "Sylvanas" || got.Realm != "Silvermoon" || got.Class != "Hunter" {
		t.Fatalf("unexpected application: %+v", got)
	}
	if len(got.Alts) != 1 || got.Alts[0].Realm != "Area 52" {
		t.Fatalf("unexpected alts: %+v", got.Alts)
	}
	if len(got.Questions) != 1 || len(got.Questions[0].Files) != 2 || got.Questions[0].Files[1].URL != "https://cdn/y.png" {
		t.Fatalf("unexpected questions: %+v", got.Questions)
	}
}

func TestTeamAndPeriod(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	meta, ok := n.Team(context.Background(), []byte(`{"id":5,"name":"Main","guild_name":"Horde Guild","realm":"Area 52","region":"us",
		"raid_days":[{"day_of_week":"Wednesday","start_time":"20:00","end_time":"23:00","active":true}]}`))
	if !ok {
		t.Fatalf("expected team")
	}
	if meta.Realm != "Area 52" || meta.Region != "us" || len(meta.RaidDays) != 1 {
		t.Fatalf("unexpected team: %+v", meta)
	}
	if d := DefaultsFromTeam(&meta); d.Realm != "Area 52" || d.Region != "us" {
		t.Fatalf("unexpected defaults: %+v", d)
	}

	period, ok := n.Period(context.Background(), []byte(`{"current_period":977,"current_season":{"id":13,"name":"Season 2"}}`))
	if !ok {
		t.Fatalf("expected period")
	}
	if period.PeriodID != 977 || period.SeasonID == nil || *period.SeasonID != 13 {
		t.Fatalf("unexpected period: %+v", period)
	}

	if _, ok := n.Period(context.Background(), []byte(`{"current_season":{"id":13}}`)); ok {
		t.Fatalf("expected period without id to be rejected")
	}
}

func TestFullSetReaders_EmptyListIsOK(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	ctx := context.Background()
	if awards, ok := n.LootHistory(ctx, []byte(`{"history_items":[]}`), 1, usDefaults); !ok || len(awards) != 0 {
		t.Fatalf("expected empty loot export to be ok, got ok=%v awards=%d", ok, len(awards))
	}
	if stats, ok := n.Attendance(ctx, []byte(`[]`), usDefaults); !ok || len(stats) != 0 {
		t.Fatalf("expected empty attendance to be ok, got ok=%v stats=%d", ok, len(stats))
	}
	if guests, ok := n.Guests(ctx, []byte(`{"guests":[]}`), usDefaults); !ok || len(guests) != 0 {
		t.Fatalf("expected empty guests to be ok, got ok=%v guests=%d", ok, len(guests))
	}
	if summaries, ok := n.WishlistSummaries(ctx, []byte(`{"characters":[]}`), usDefaults); !ok || len(summaries) != 0 {
		t.Fatalf("expected empty wishlist listing to be ok, got ok=%v summaries=%d", ok, len(summaries))
	}
}

func TestFullSetReaders_TruncatedBodyNotOK(t *testing.T) {
	t.Parallel()

	n, _ := newTestNormalizer()
	ctx := context.Background()
	truncated := []byte(`[{"name":"Thrall","realm":"Area 52"},{"name":"Ja`)
	if _, ok := n.Attendance(ctx, truncated, usDefaults); ok {
		t.Fatalf("expected truncated attendance to be not ok")
	}
	if _, ok := n.Guests(ctx, truncated, usDefaults); ok {
		t.Fatalf("expected truncated guests to be not ok")
	}
	if _, ok := n.WishlistSummaries(ctx, truncated, usDefaults); ok {
		t.Fatalf("expected truncated wishlist listing to be not ok")
	}
	period := int64(977)
	if _, ok := n.HistoricalActivity(ctx, truncated, &period, usDefaults); ok {
		t.Fatalf("expected truncated activity to be not ok")
	}
	if _, ok := n.CharacterHistory(ctx, truncated, 42, usDefaults); ok {
		t.Fatalf("expected truncated character history to be not ok")
	}
}
