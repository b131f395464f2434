package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/guildsync/internal/domain/activity"
	"github.com/riskibarqy/guildsync/internal/domain/application"
	"github.com/riskibarqy/guildsync/internal/domain/attendance"
	"github.com/riskibarqy/guildsync/internal/domain/guest"
	"github.com/riskibarqy/guildsync/internal/domain/raid"
)

type AttendanceRepository struct {
	mu    sync.RWMutex
	stats []attendance.Stat
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{}
}

func (r *AttendanceRepository) ReplaceAll(_ context.Context, stats []attendance.Stat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats = append([]attendance.Stat(nil), stats...)
	return nil
}

func (r *AttendanceRepository) List() []attendance.Stat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]attendance.Stat(nil), r.stats...)
}

type RaidRepository struct {
	mu    sync.RWMutex
	items map[int64]raid.Raid
}

func NewRaidRepository() *RaidRepository {
	return &RaidRepository{items: make(map[int64]raid.Raid)}
}

func (r *RaidRepository) Upsert(_ context.Context, item raid.Raid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Signups = append([]raid.Signup(nil), item.Signups...)
	item.Encounters = append([]raid.Encounter(nil), item.Encounters...)
	r.items[item.ExternalID] = item
	return nil
}

func (r *RaidRepository) Get(externalID int64) (raid.Raid, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[externalID]
	return item, ok
}

func (r *RaidRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

type ActivityRepository struct {
	mu      sync.RWMutex
	entries []activity.Entry
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) ReplaceForPeriod(_ context.Context, periodID int64, entries []activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = r.without(func(e activity.Entry) bool {
		return e.PeriodID != nil && *e.PeriodID == periodID
	})
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *ActivityRepository) ReplaceForCharacter(_ context.Context, characterExternalID int64, entries []activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = r.without(func(e activity.Entry) bool {
		return e.CharacterExternalID != nil && *e.CharacterExternalID == characterExternalID
	})
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *ActivityRepository) List() []activity.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]activity.Entry(nil), r.entries...)
}

func (r *ActivityRepository) without(drop func(activity.Entry) bool) []activity.Entry {
	kept := make([]activity.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if !drop(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

type GuestRepository struct {
	mu     sync.RWMutex
	guests []guest.Guest
}

func NewGuestRepository() *GuestRepository {
	return &GuestRepository{}
}

func (r *GuestRepository) ReplaceAll(_ context.Context, items []guest.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.guests = append([]guest.Guest(nil), items...)
	return nil
}

func (r *GuestRepository) List() []guest.Guest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]guest.Guest(nil), r.guests...)
}

type ApplicationRepository struct {
	mu    sync.RWMutex
	items map[int64]application.Application
}

func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{items: make(map[int64]application.Application)}
}

func (r *ApplicationRepository) Upsert(_ context.Context, item application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Alts = append([]application.Alt(nil), item.Alts...)
	item.Questions = append([]application.Question(nil), item.Questions...)
	r.items[item.ExternalID] = item
	return nil
}

func (r *ApplicationRepository) List() []application.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]application.Application, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}
