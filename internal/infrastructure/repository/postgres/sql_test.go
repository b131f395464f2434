package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(fmt.Errorf("select raider: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("pq: relation raiders does not exist")) {
		t.Fatalf("expected unrelated error to be found")
	}
}

func TestNullableString(t *testing.T) {
	t.Parallel()

	if got := nullableString(""); got != nil {
		t.Fatalf("expected nil for blank string, got %q", *got)
	}
	got := nullableString(`{"k":1}`)
	if got == nil || *got != `{"k":1}` {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestNullConversions(t *testing.T) {
	t.Parallel()

	if nullTimeToPtr(sql.NullTime{}) != nil || nullInt64ToPtr(sql.NullInt64{}) != nil || nullFloat64ToPtr(sql.NullFloat64{}) != nil {
		t.Fatalf("expected invalid values to map to nil")
	}

	loc := time.FixedZone("UTC+7", 7*60*60)
	ts := nullTimeToPtr(sql.NullTime{Time: time.Date(2026, 3, 1, 10, 0, 0, 0, loc), Valid: true})
	if ts == nil || ts.Location() != time.UTC || ts.Hour() != 3 {
		t.Fatalf("expected UTC time, got %v", ts)
	}
	if v := nullInt64ToPtr(sql.NullInt64{Int64: 42, Valid: true}); v == nil || *v != 42 {
		t.Fatalf("unexpected int64: %v", v)
	}
	if v := nullFloat64ToPtr(sql.NullFloat64{Float64: 99.5, Valid: true}); v == nil || *v != 99.5 {
		t.Fatalf("unexpected float64: %v", v)
	}
}

func TestRaiderTableModelToDomain(t *testing.T) {
	t.Parallel()

	row := raiderTableModel{
		ID:         7,
		ExternalID: sql.NullInt64{Int64: 42, Valid: true},
		Name:       "Thrall",
		Realm:      "Draenor",
		LastSync:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	got := row.toDomain()
	if got.ID != 7 || got.ExternalID == nil || *got.ExternalID != 42 {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.BlizzardID != nil || got.JoinDate != nil {
		t.Fatalf("expected null columns to stay nil: %+v", got)
	}
}

func TestRaidUpsertQueryShape(t *testing.T) {
	t.Parallel()

	query, args, err := qb.InsertModel("raids", raidInsertModel{ExternalID: 9, Instance: "Nerub-ar Palace"}, "ON CONFLICT (external_id) DO NOTHING RETURNING id")
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO raids (external_id, raid_date, start_time") {
		t.Fatalf("unexpected column order: %s", query)
	}
	if !strings.HasSuffix(query, "ON CONFLICT (external_id) DO NOTHING RETURNING id") {
		t.Fatalf("expected suffix to be kept: %s", query)
	}
	if len(args) != 11 {
		t.Fatalf("expected 11 args, got %d", len(args))
	}
}

func TestActivityDataStoredAsNull(t *testing.T) {
	t.Parallel()

	_, args, err := qb.InsertModels("historical_activity", []activityInsertModel{{Name: "Jaina", Data: nullableString("")}}, "")
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	last := args[len(args)-1]
	if ptr, ok := last.(*string); !ok || ptr != nil {
		t.Fatalf("expected nil *string for empty data, got %#v", last)
	}
}

func TestWishlistPruneQueryShape(t *testing.T) {
	t.Parallel()

	query, args, err := qb.DeleteFrom("wishlist_entries").Where(wishlistOwnerNotIn([]int64{1, 2})).ToSQL()
	if err != nil {
		t.Fatalf("build prune query: %v", err)
	}
	if query != "DELETE FROM wishlist_entries WHERE NOT (raider_id = ANY($1))" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 1 {
		t.Fatalf("expected the id list as one array arg, got=%d", len(args))
	}
}
