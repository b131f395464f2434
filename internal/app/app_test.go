package app

import (
	"context"
	"strings"
	"testing"

	"github.com/riskibarqy/guildsync/internal/config"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                config.EnvDev,
		ServiceName:           "guildsync",
		StorageDriver:         config.StorageMemory,
		GuildAPIBaseURL:       "http://127.0.0.1:1/v1",
		SyncDetailConcurrency: 3,
	}
}

func TestNew_MemoryStorage(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			t.Fatalf("close app: %v", err)
		}
	}()

	if a.Sync == nil || a.Runs == nil {
		t.Fatalf("expected sync service and run tracker to be wired")
	}
	if err := a.Health(context.Background()); err != nil {
		t.Fatalf("expected memory storage to be healthy, got %v", err)
	}

	runs, err := a.Runs.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

func TestNew_UnsupportedStorage(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.StorageDriver = "sqlite"
	if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported storage driver")
	}
}

func TestFormatDBQueryForTrace_Truncates(t *testing.T) {
	t.Parallel()

	got := formatDBQueryForTrace("SELECT " + strings.Repeat("a, ", 400) + "b FROM raiders")
	if len(got) != maxTracedQueryLength+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated query, got len=%d", len(got))
	}
}
