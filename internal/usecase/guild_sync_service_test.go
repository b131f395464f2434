package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/riskibarqy/guildsync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/guildsync/internal/normalizer"
	"github.com/riskibarqy/guildsync/internal/platform/id"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
)

type testRepos struct {
	raiders      *memory.RaiderRepository
	loot         *memory.LootRepository
	wishlists    *memory.WishlistRepository
	attendance   *memory.AttendanceRepository
	raids        *memory.RaidRepository
	activity     *memory.ActivityRepository
	guests       *memory.GuestRepository
	applications *memory.ApplicationRepository
	team         *memory.TeamRepository
	runs         *memory.SyncRunRepository
	snapshots    *memory.SnapshotRepository
}

func newTestGuildSync(source GuildDataSource, cfg GuildSyncConfig) (*GuildSyncService, testRepos) {
	repos := testRepos{
		raiders:      memory.NewRaiderRepository(),
		loot:         memory.NewLootRepository(),
		wishlists:    memory.NewWishlistRepository(),
		attendance:   memory.NewAttendanceRepository(),
		raids:        memory.NewRaidRepository(),
		activity:     memory.NewActivityRepository(),
		guests:       memory.NewGuestRepository(),
		applications: memory.NewApplicationRepository(),
		team:         memory.NewTeamRepository(),
		runs:         memory.NewSyncRunRepository(),
		snapshots:    memory.NewSnapshotRepository(),
	}
	logger := logging.NewNop()
	service := NewGuildSyncService(
		source,
		normalizer.New(logger),
		GuildSyncRepositories{
			Raiders:      repos.raiders,
			Loot:         repos.loot,
			Wishlists:    repos.wishlists,
			Attendance:   repos.attendance,
			Raids:        repos.raids,
			Activity:     repos.activity,
			Guests:       repos.guests,
			Applications: repos.applications,
			Team:         repos.team,
		},
		NewRunTracker(repos.runs, &id.SequenceGenerator{Prefix: "run-"}, logger),
		NewSnapshotStore(repos.snapshots, &id.SequenceGenerator{Prefix: "snap-"}),
		cfg,
		logger,
	)
	return service, repos
}

const (
	teamBody    = `{"id":5,"name":"Main","realm":"Area 52","region":"US"}`
	periodBody  = `{"current_period":977,"current_season":{"id":13,"name":"Season 2"}}`
	thrallBody  = `[{"name":"Thrall","realm":"Area 52","region":"US","class":"Shaman","spec":"Elemental","role":"DPS","id":42},{"realm":"Area 52"}]`
	twoLootBody = `{"history_items":[
		{"id":1,"character":{"id":42,"name":"Thrall"},"item":{"id":100},"bonus_ids":[1]},
		{"id":2,"character":{"id":42,"name":"Thrall"},"item":{"id":101}}
	]}`
	oneLootBody = `{"history_items":[{"id":2,"character":{"id":42,"name":"Thrall"},"item":{"id":101}}]}`
)

func newContextSource() *fakeGuildSource {
	source := newFakeGuildSource()
	source.set("team", teamBody)
	source.set("period", periodBody)
	return source
}

func TestGuildSyncService_SyncRoster_SkipsMalformedRecord(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("roster", thrallBody)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcome := service.SyncRoster(context.Background())
	if outcome.Status != syncrun.StatusSuccess {
		t.Fatalf("expected success, got=%s message=%s", outcome.Status, outcome.Message)
	}
	if outcome.Message != "synced 1 raiders" {
		t.Fatalf("unexpected message: %s", outcome.Message)
	}

	raiders, _ := repos.raiders.List(context.Background())
	if len(raiders) != 1 || raiders[0].Name != "Thrall" {
		t.Fatalf("expected only Thrall, got=%+v", raiders)
	}

	runs, _ := repos.runs.ListRecent(context.Background(), 10)
	if len(runs) != 1 || runs[0].Status != syncrun.StatusSuccess || runs[0].CompletedAt == nil {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestGuildSyncService_SyncRoster_Idempotent(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("roster", thrallBody)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	first := service.SyncRoster(context.Background())
	second := service.SyncRoster(context.Background())
	if first.Failed() || second.Failed() {
		t.Fatalf("expected both runs to succeed: %+v %+v", first, second)
	}

	raiders, _ := repos.raiders.List(context.Background())
	if len(raiders) != 1 {
		t.Fatalf("expected one raider after two syncs, got=%d", len(raiders))
	}
	if raiders[0].Spec != "Elemental" || raiders[0].Realm != "Area 52" {
		t.Fatalf("unexpected raider after resync: %+v", raiders[0])
	}
}

func TestGuildSyncService_SyncRoster_ReplacesChildren(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("roster", `[{"name":"Thrall","id":42,"gear":{"equipped":{"head":{"id":1},"neck":{"id":2}}}}]`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	service.SyncRoster(context.Background())
	source.set("roster", `[{"name":"Thrall","id":42,"gear":{"equipped":{"head":{"id":3}}}}]`)
	service.SyncRoster(context.Background())

	raiders, _ := repos.raiders.List(context.Background())
	children, ok := repos.raiders.Children(raiders[0].ID)
	if !ok {
		t.Fatalf("expected stored children")
	}
	if len(children.Gear) != 1 || *children.Gear[0].ItemID != 3 {
		t.Fatalf("expected gear to be replaced, got=%+v", children.Gear)
	}
}

func TestGuildSyncService_SyncRoster_InvalidJSONStillSnapshotted(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("roster", `{"characters": [`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcome := service.SyncRoster(context.Background())
	if outcome.Status != syncrun.StatusSuccess || outcome.Message != "synced 0 raiders" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	items, err := repos.snapshots.ListByEndpoint(context.Background(), "/characters", 10)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(items) != 1 || items[0].RawPayload != `{"characters": [` {
		t.Fatalf("expected raw body snapshot, got=%+v", items)
	}
}

func TestGuildSyncService_SyncLootHistory_FullReplace(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("loot/13", twoLootBody)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	if outcome := service.SyncLootHistory(context.Background()); outcome.Failed() {
		t.Fatalf("first loot sync failed: %s", outcome.Message)
	}
	source.set("loot/13", oneLootBody)
	if outcome := service.SyncLootHistory(context.Background()); outcome.Failed() {
		t.Fatalf("second loot sync failed: %s", outcome.Message)
	}

	owner, ok, _ := repos.raiders.FindByExternalID(context.Background(), 42)
	if !ok {
		t.Fatalf("expected loot owner to be created")
	}
	if got := repos.loot.CountByRaider(owner.ID); got != 1 {
		t.Fatalf("expected one award after second export, got=%d", got)
	}
	if owner.Realm != "Area 52" || owner.Region != "US" {
		t.Fatalf("expected team defaults on created owner, got=%+v", owner)
	}
}

func TestGuildSyncService_SyncLootHistory_SeasonResolution(t *testing.T) {
	t.Parallel()

	source := newFakeGuildSource()
	source.set("loot/7", oneLootBody)

	service, _ := newTestGuildSync(source, GuildSyncConfig{})
	outcome := service.SyncLootHistory(context.Background())
	if outcome.Status != syncrun.StatusFailed || !strings.Contains(outcome.Message, ErrContextUnavailable.Error()) {
		t.Fatalf("expected context failure, got=%+v", outcome)
	}

	fallback, _ := newTestGuildSync(source, GuildSyncConfig{FallbackSeasonID: 7})
	outcome = fallback.SyncLootHistory(context.Background())
	if outcome.Failed() {
		t.Fatalf("expected fallback season to be used, got=%s", outcome.Message)
	}
	if source.callCount("loot/7") != 1 {
		t.Fatalf("expected one fetch of fallback season")
	}
}

func TestGuildSyncService_RunAll_IsolatesFailures(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.fail("roster", errors.New("upstream status 502"))
	source.set("loot/13", oneLootBody)
	source.set("wishlists", `[]`)
	source.set("attendance", `[]`)
	source.set("raids", `[]`)
	source.set("historical/977", `[]`)
	source.set("guests", `[]`)
	source.set("applications", `[]`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcomes := service.RunAll(context.Background())
	if len(outcomes) != 4 {
		t.Fatalf("expected four outcomes, got=%d", len(outcomes))
	}
	if outcomes[0].Kind != syncrun.KindRoster || !outcomes[0].Failed() {
		t.Fatalf("expected roster to fail, got=%+v", outcomes[0])
	}
	if !strings.Contains(outcomes[0].Message, "upstream status 502") {
		t.Fatalf("expected failure message, got=%s", outcomes[0].Message)
	}
	for _, outcome := range outcomes[1:] {
		if outcome.Failed() {
			t.Fatalf("expected %s to succeed, got=%s", outcome.Kind, outcome.Message)
		}
	}
	if source.callCount("team") != 1 || source.callCount("period") != 1 {
		t.Fatalf("expected supporting context to be fetched once, team=%d period=%d",
			source.callCount("team"), source.callCount("period"))
	}

	runs, _ := repos.runs.ListRecent(context.Background(), 10)
	if len(runs) != 4 {
		t.Fatalf("expected four runs, got=%d", len(runs))
	}
	for _, run := range runs {
		if !run.Status.Terminal() {
			t.Fatalf("run %s left in status %s", run.ID, run.Status)
		}
	}
}

func TestGuildSyncService_SyncWishlists_FanOut(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("wishlists", `{"characters":[{"id":42,"name":"Thrall"},{"id":43,"name":"Jaina"}]}`)
	source.set("wishlist/42", `{"wishes":[{"item":{"id":1},"score":2.5},{"item":{"id":2}}]}`)
	source.set("wishlist/43", `{"wishes":[{"item":{"id":3}}]}`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{DetailConcurrency: 2})

	outcome := service.SyncWishlists(context.Background())
	if outcome.Failed() {
		t.Fatalf("expected success, got=%s", outcome.Message)
	}
	if outcome.Message != "synced 3 wishlist entries for 2 characters" {
		t.Fatalf("unexpected message: %s", outcome.Message)
	}

	thrall, ok, _ := repos.raiders.FindByExternalID(context.Background(), 42)
	if !ok {
		t.Fatalf("expected wishlist owner to exist")
	}
	entries := repos.wishlists.ListByRaider(thrall.ID)
	if len(entries) != 2 || entries[0].RaiderID != thrall.ID {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestGuildSyncService_SyncWishlists_DetailFailureFailsRun(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("wishlists", `[{"id":42,"name":"Thrall"},{"id":43,"name":"Jaina"}]`)
	source.set("wishlist/42", `{"wishes":[]}`)
	source.fail("wishlist/43", errors.New("timeout"))
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcome := service.SyncWishlists(context.Background())
	if !outcome.Failed() || !strings.Contains(outcome.Message, "1 of 2 detail requests failed") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if _, ok, _ := repos.raiders.FindByExternalID(context.Background(), 42); !ok {
		t.Fatalf("expected completed detail to be persisted")
	}
}

func supplementalSource() *fakeGuildSource {
	source := newContextSource()
	source.set("attendance", `{"characters":[{"id":42,"name":"Thrall","percentage":90}]}`)
	source.set("raids", `{"raids":[{"id":1},{"id":2}]}`)
	source.set("raid/1", `{"id":1,"instance":"Liberation"}`)
	source.set("raid/2", `{"id":2,"instance":"Liberation"}`)
	source.set("historical/977", `{"characters":[{"id":42,"name":"Thrall","data":{"dungeons_done":4}}]}`)
	source.set("guests", `[{"name":"Anduin"}]`)
	source.set("applications", `[{"id":9}]`)
	source.set("application/9", `{"id":9,"name":"Sylvanas"}`)
	return source
}

func TestGuildSyncService_SyncSupplementalData(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcome := service.SyncSupplementalData(context.Background())
	if outcome.Failed() {
		t.Fatalf("expected success, got=%s", outcome.Message)
	}
	if len(repos.attendance.List()) != 1 || repos.raids.Len() != 2 || len(repos.guests.List()) != 1 {
		t.Fatalf("unexpected stored rows")
	}
	if apps := repos.applications.List(); len(apps) != 1 || apps[0].Name != "Sylvanas" {
		t.Fatalf("unexpected applications: %+v", apps)
	}
	entries := repos.activity.List()
	if len(entries) != 1 || *entries[0].PeriodID != 977 {
		t.Fatalf("unexpected activity: %+v", entries)
	}
	if _, ok := repos.team.Period(977); !ok {
		t.Fatalf("expected period to be persisted")
	}
}

func TestGuildSyncService_SyncSupplementalData_AbortsAfterFailedStep(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	source.fail("raids", errors.New("upstream status 500"))
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcome := service.SyncSupplementalData(context.Background())
	if !outcome.Failed() || !strings.HasPrefix(outcome.Message, "raids step") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(repos.attendance.List()) != 1 {
		t.Fatalf("expected attendance from the earlier step to be kept")
	}
	if source.callCount("historical/977") != 0 || source.callCount("guests") != 0 || source.callCount("applications") != 0 {
		t.Fatalf("expected later steps to be skipped")
	}
}

func TestGuildSyncService_SyncSupplementalData_PanicFailsRun(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	source.panics["guests"] = true
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	outcome := service.SyncSupplementalData(context.Background())
	if !outcome.Failed() || !strings.Contains(outcome.Message, "panicked") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	runs, _ := repos.runs.ListRecent(context.Background(), 1)
	if len(runs) != 1 || runs[0].Status != syncrun.StatusFailed {
		t.Fatalf("expected failed run, got=%+v", runs)
	}
}

func TestGuildSyncService_SyncSupplementalData_CharacterHistoryFallback(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	source.fail("period", errors.New("upstream status 503"))
	source.set("character_history/42", `{"history":[{"period":975,"data":{"dungeons_done":2}},{"period":976,"data":{"dungeons_done":1}}]}`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	externalID := int64(42)
	if _, err := repos.raiders.Save(context.Background(), raider.Raider{ExternalID: &externalID, Name: "Thrall", Realm: "Area 52"}); err != nil {
		t.Fatalf("seed raider: %v", err)
	}

	outcome := service.SyncSupplementalData(context.Background())
	if outcome.Failed() {
		t.Fatalf("expected success, got=%s", outcome.Message)
	}
	entries := repos.activity.List()
	if len(entries) != 2 {
		t.Fatalf("expected two history rows, got=%d", len(entries))
	}
	for _, entry := range entries {
		if *entry.CharacterExternalID != 42 {
			t.Fatalf("unexpected character: %d", *entry.CharacterExternalID)
		}
	}
}

func TestGuildSyncService_RaidFanOutIsBounded(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	ids := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		ids = append(ids, fmt.Sprintf(`{"id":%d}`, i))
		source.set(fmt.Sprintf("raid/%d", i), fmt.Sprintf(`{"id":%d}`, i))
	}
	source.set("raids", "["+strings.Join(ids, ",")+"]")
	source.detailDelay = 10 * time.Millisecond
	service, repos := newTestGuildSync(source, GuildSyncConfig{DetailConcurrency: 3})

	outcome := service.SyncSupplementalData(context.Background())
	if outcome.Failed() {
		t.Fatalf("expected success, got=%s", outcome.Message)
	}
	if repos.raids.Len() != 10 {
		t.Fatalf("expected ten raids, got=%d", repos.raids.Len())
	}
	if got := source.maxInFlight.Load(); got > 3 {
		t.Fatalf("expected at most 3 concurrent detail requests, got=%d", got)
	}
}

func TestGuildSyncService_SyncLootHistory_TruncatedExportKeepsStoredAwards(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("loot/13", twoLootBody)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	if outcome := service.SyncLootHistory(context.Background()); outcome.Failed() {
		t.Fatalf("first loot sync failed: %s", outcome.Message)
	}
	source.set("loot/13", twoLootBody[:len(twoLootBody)/2])
	outcome := service.SyncLootHistory(context.Background())
	if !outcome.Failed() || !strings.Contains(outcome.Message, ErrPayloadUnparsable.Error()) {
		t.Fatalf("expected unparsable export to fail the run, got=%+v", outcome)
	}

	owner, _, _ := repos.raiders.FindByExternalID(context.Background(), 42)
	if got := repos.loot.CountByRaider(owner.ID); got != 2 {
		t.Fatalf("expected stored awards to survive, got=%d", got)
	}
}

func TestGuildSyncService_SyncLootHistory_EmptyExportClearsAwards(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("loot/13", twoLootBody)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	service.SyncLootHistory(context.Background())
	source.set("loot/13", `{"history_items":[]}`)
	if outcome := service.SyncLootHistory(context.Background()); outcome.Failed() {
		t.Fatalf("expected empty export to succeed, got=%s", outcome.Message)
	}

	owner, _, _ := repos.raiders.FindByExternalID(context.Background(), 42)
	if got := repos.loot.CountByRaider(owner.ID); got != 0 {
		t.Fatalf("expected awards to be cleared, got=%d", got)
	}
}

func TestGuildSyncService_SyncSupplementalData_UnparsableAttendanceKeepsRows(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	service, repos := newTestGuildSync(source, GuildSyncConfig{})
	if outcome := service.SyncSupplementalData(context.Background()); outcome.Failed() {
		t.Fatalf("first sync failed: %s", outcome.Message)
	}

	source.set("attendance", `{"characters":[{"id":42,"name":"Thr`)
	outcome := service.SyncSupplementalData(context.Background())
	if !outcome.Failed() || !strings.HasPrefix(outcome.Message, "attendance step") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(repos.attendance.List()) != 1 {
		t.Fatalf("expected stored attendance to survive")
	}
}

func TestGuildSyncService_SyncSupplementalData_UnparsableGuestsKeepsRows(t *testing.T) {
	t.Parallel()

	source := supplementalSource()
	service, repos := newTestGuildSync(source, GuildSyncConfig{})
	if outcome := service.SyncSupplementalData(context.Background()); outcome.Failed() {
		t.Fatalf("first sync failed: %s", outcome.Message)
	}

	source.set("guests", `{"unexpected":true}`)
	outcome := service.SyncSupplementalData(context.Background())
	if !outcome.Failed() || !strings.HasPrefix(outcome.Message, "guests step") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(repos.guests.List()) != 1 {
		t.Fatalf("expected stored guests to survive")
	}
}

func TestGuildSyncService_SyncWishlists_DropsCharactersLeftOutOfListing(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("wishlists", `[{"id":42,"name":"Thrall"},{"id":43,"name":"Jaina"}]`)
	source.set("wishlist/42", `{"wishes":[{"item":{"id":1}}]}`)
	source.set("wishlist/43", `{"wishes":[{"item":{"id":3}}]}`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})

	if outcome := service.SyncWishlists(context.Background()); outcome.Failed() {
		t.Fatalf("first wishlist sync failed: %s", outcome.Message)
	}
	source.set("wishlists", `[{"id":42,"name":"Thrall"}]`)
	if outcome := service.SyncWishlists(context.Background()); outcome.Failed() {
		t.Fatalf("second wishlist sync failed: %s", outcome.Message)
	}

	thrall, _, _ := repos.raiders.FindByExternalID(context.Background(), 42)
	jaina, _, _ := repos.raiders.FindByExternalID(context.Background(), 43)
	if got := len(repos.wishlists.ListByRaider(thrall.ID)); got != 1 {
		t.Fatalf("expected Thrall's wishlist to stay, got=%d", got)
	}
	if got := len(repos.wishlists.ListByRaider(jaina.ID)); got != 0 {
		t.Fatalf("expected Jaina's wishlist to be removed, got=%d", got)
	}
}

func TestGuildSyncService_SyncWishlists_UnparsableListingKeepsEntries(t *testing.T) {
	t.Parallel()

	source := newContextSource()
	source.set("wishlists", `[{"id":42,"name":"Thrall"}]`)
	source.set("wishlist/42", `{"wishes":[{"item":{"id":1}}]}`)
	service, repos := newTestGuildSync(source, GuildSyncConfig{})
	service.SyncWishlists(context.Background())

	source.set("wishlists", `[{"id":42,"na`)
	outcome := service.SyncWishlists(context.Background())
	if !outcome.Failed() || !strings.Contains(outcome.Message, ErrPayloadUnparsable.Error()) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	thrall, _, _ := repos.raiders.FindByExternalID(context.Background(), 42)
	if got := len(repos.wishlists.ListByRaider(thrall.ID)); got != 1 {
		t.Fatalf("expected stored wishlist to survive, got=%d", got)
	}
}

func TestNewGuildSyncService_DefaultsContextCacheTTL(t *testing.T) {
	t.Parallel()

	service, _ := newTestGuildSync(newContextSource(), GuildSyncConfig{})
	if service.cfg.ContextCacheTTL != defaultContextCacheTTL {
		t.Fatalf("expected default cache ttl, got=%s", service.cfg.ContextCacheTTL)
	}

	custom, _ := newTestGuildSync(newContextSource(), GuildSyncConfig{ContextCacheTTL: 5 * time.Second})
	if custom.cfg.ContextCacheTTL != 5*time.Second {
		t.Fatalf("expected configured cache ttl, got=%s", custom.cfg.ContextCacheTTL)
	}
}
