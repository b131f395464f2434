package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// fakeGuildSource serves canned bodies keyed by endpoint name, e.g. "roster",
// "loot/13" or "raid/7". Unknown keys fail like an upstream 404.
type fakeGuildSource struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	panics map[string]bool
	calls  map[string]int

	detailDelay time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeGuildSource() *fakeGuildSource {
	return &fakeGuildSource{
		bodies: make(map[string]string),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (f *fakeGuildSource) set(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[key] = body
}

func (f *fakeGuildSource) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

func (f *fakeGuildSource) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeGuildSource) respond(key string) ([]byte, error) {
	f.mu.Lock()
	f.calls[key]++
	body, ok := f.bodies[key]
	err := f.errs[key]
	shouldPanic := f.panics[key]
	f.mu.Unlock()

	if shouldPanic {
		panic("fake source panic for " + key)
	}
	if strings.Contains(key, "/") && f.detailDelay > 0 {
		current := f.inFlight.Add(1)
		for {
			seen := f.maxInFlight.Load()
			if current <= seen || f.maxInFlight.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(f.detailDelay)
		f.inFlight.Add(-1)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", key)
	}
	return []byte(body), nil
}

func (f *fakeGuildSource) FetchRoster(context.Context) ([]byte, error) {
	return f.respond("roster")
}

func (f *fakeGuildSource) FetchTeam(context.Context) ([]byte, error) {
	return f.respond("team")
}

func (f *fakeGuildSource) FetchPeriod(context.Context) ([]byte, error) {
	return f.respond("period")
}

func (f *fakeGuildSource) FetchLootHistory(_ context.Context, seasonID int64) ([]byte, error) {
	return f.respond(fmt.Sprintf("loot/%d", seasonID))
}

func (f *fakeGuildSource) FetchWishlists(context.Context) ([]byte, error) {
	return f.respond("wishlists")
}

func (f *fakeGuildSource) FetchWishlist(_ context.Context, characterID int64) ([]byte, error) {
	return f.respond(fmt.Sprintf("wishlist/%d", characterID))
}

func (f *fakeGuildSource) FetchAttendance(context.Context) ([]byte, error) {
	return f.respond("attendance")
}

func (f *fakeGuildSource) FetchRaids(context.Context, bool) ([]byte, error) {
	return f.respond("raids")
}

func (f *fakeGuildSource) FetchRaid(_ context.Context, raidID int64) ([]byte, error) {
	return f.respond(fmt.Sprintf("raid/%d", raidID))
}

func (f *fakeGuildSource) FetchHistoricalData(_ context.Context, periodID int64) ([]byte, error) {
	return f.respond(fmt.Sprintf("historical/%d", periodID))
}

func (f *fakeGuildSource) FetchCharacterHistory(_ context.Context, characterID int64) ([]byte, error) {
	return f.respond(fmt.Sprintf("character_history/%d", characterID))
}

func (f *fakeGuildSource) FetchGuests(context.Context) ([]byte, error) {
	return f.respond("guests")
}

func (f *fakeGuildSource) FetchApplications(context.Context) ([]byte, error) {
	return f.respond("applications")
}

func (f *fakeGuildSource) FetchApplication(_ context.Context, applicationID int64) ([]byte, error) {
	return f.respond(fmt.Sprintf("application/%d", applicationID))
}
