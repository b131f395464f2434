package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("expected embedded migrations")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file name: %s", name)
		}
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("missing down migration for %s", version)
		}
	}
	if len(ups) != len(downs) {
		t.Fatalf("unpaired migrations: up=%d down=%d", len(ups), len(downs))
	}
}

func TestInitMigrationCreatesCoreTables(t *testing.T) {
	t.Parallel()

	raw, err := FS.ReadFile("000001_init.up.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	for _, table := range []string{"raiders", "loot_awards", "wishlist_entries", "sync_runs", "snapshots"} {
		if !strings.Contains(string(raw), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("expected %s table in init migration", table)
		}
	}
}
