package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
)

// RaiderUpserter resolves and merges raiders. Calls are serialized so two
// detail workers that see the same new character do not both insert it.
type RaiderUpserter struct {
	repo raider.Repository
	now  func() time.Time
	mu   sync.Mutex
}

func NewRaiderUpserter(repo raider.Repository) *RaiderUpserter {
	return &RaiderUpserter{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Resolve finds the stored raider by external id, then by name and realm.
func (u *RaiderUpserter) Resolve(ctx context.Context, ref raider.Ref) (raider.Raider, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RaiderUpserter.Resolve")
	defer span.End()

	if ref.ExternalID != nil {
		item, ok, err := u.repo.FindByExternalID(ctx, *ref.ExternalID)
		if err != nil {
			return raider.Raider{}, false, fmt.Errorf("find raider by external id=%d: %w", *ref.ExternalID, err)
		}
		if ok {
			return item, true, nil
		}
	}
	if strings.TrimSpace(ref.Name) == "" {
		return raider.Raider{}, false, nil
	}
	key := raider.NewNaturalKey(ref.Name, ref.Realm)
	item, ok, err := u.repo.FindByNaturalKey(ctx, key)
	if err != nil {
		return raider.Raider{}, false, fmt.Errorf("find raider by name=%s realm=%s: %w", key.Name, key.Realm, err)
	}
	return item, ok, nil
}

// Upsert inserts incoming or merges it into the stored raider. Blank incoming
// fields never overwrite stored ones. LastSync is always refreshed.
func (u *RaiderUpserter) Upsert(ctx context.Context, incoming raider.Raider) (raider.Raider, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RaiderUpserter.Upsert")
	defer span.End()

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.upsertLocked(ctx, incoming)
}

// EnsureRef returns the raider a non-roster payload points at, creating it
// when the character has not been seen yet. Existing raiders are untouched.
func (u *RaiderUpserter) EnsureRef(ctx context.Context, ref raider.Ref) (raider.Raider, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RaiderUpserter.EnsureRef")
	defer span.End()

	u.mu.Lock()
	defer u.mu.Unlock()

	existing, ok, err := u.Resolve(ctx, ref)
	if err != nil {
		return raider.Raider{}, err
	}
	if ok {
		return existing, nil
	}
	if strings.TrimSpace(ref.Name) == "" {
		return raider.Raider{}, fmt.Errorf("%w: unknown character without name external_id=%s", ErrNotFound, formatOptionalID(ref.ExternalID))
	}
	return u.upsertLocked(ctx, raider.Raider{
		ExternalID: ref.ExternalID,
		Name:       strings.TrimSpace(ref.Name),
		Realm:      strings.TrimSpace(ref.Realm),
		Region:     strings.TrimSpace(ref.Region),
	})
}

func (u *RaiderUpserter) ReplaceChildren(ctx context.Context, raiderID int64, children raider.Children) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RaiderUpserter.ReplaceChildren")
	defer span.End()

	if raiderID <= 0 {
		return fmt.Errorf("%w: raider id must be > 0", ErrInvalidInput)
	}
	if err := u.repo.ReplaceChildren(ctx, raiderID, children); err != nil {
		return fmt.Errorf("replace children raider_id=%d: %w", raiderID, err)
	}
	return nil
}

func (u *RaiderUpserter) upsertLocked(ctx context.Context, incoming raider.Raider) (raider.Raider, error) {
	if strings.TrimSpace(incoming.Name) == "" && incoming.ExternalID == nil {
		return raider.Raider{}, fmt.Errorf("%w: raider needs a name or external id", ErrInvalidInput)
	}

	existing, found, err := u.Resolve(ctx, incoming.Ref())
	if err != nil {
		return raider.Raider{}, err
	}

	next := incoming
	next.ID = 0
	if found {
		next = mergeRaider(existing, incoming)
	}
	next.LastSync = u.now()

	saved, err := u.repo.Save(ctx, next)
	if err != nil {
		return raider.Raider{}, fmt.Errorf("save raider name=%s realm=%s: %w", next.Name, next.Realm, err)
	}
	return saved, nil
}

func mergeRaider(existing, incoming raider.Raider) raider.Raider {
	out := existing
	out.ExternalID = preferInt(incoming.ExternalID, existing.ExternalID)
	out.Name = preferText(incoming.Name, existing.Name)
	out.Realm = preferText(incoming.Realm, existing.Realm)
	out.Region = preferText(incoming.Region, existing.Region)
	out.Class = preferText(incoming.Class, existing.Class)
	out.Spec = preferText(incoming.Spec, existing.Spec)
	out.Role = preferText(incoming.Role, existing.Role)
	out.Rank = preferText(incoming.Rank, existing.Rank)
	out.Status = preferText(incoming.Status, existing.Status)
	out.Note = preferText(incoming.Note, existing.Note)
	out.BlizzardID = preferInt(incoming.BlizzardID, existing.BlizzardID)
	out.TrackingSince = preferTime(incoming.TrackingSince, existing.TrackingSince)
	out.JoinDate = preferTime(incoming.JoinDate, existing.JoinDate)
	out.BlizzardLastModified = preferTime(incoming.BlizzardLastModified, existing.BlizzardLastModified)
	return out
}

func preferText(incoming, existing string) string {
	if v := strings.TrimSpace(incoming); v != "" {
		return v
	}
	return existing
}

func preferInt(incoming, existing *int64) *int64 {
	if incoming != nil {
		return incoming
	}
	return existing
}

func preferTime(incoming, existing *time.Time) *time.Time {
	if incoming != nil {
		return incoming
	}
	return existing
}

func formatOptionalID(v *int64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
