package syncrun

import "time"

type Kind string

const (
	KindRoster       Kind = "roster"
	KindLootHistory  Kind = "loot_history"
	KindWishlists    Kind = "wishlists"
	KindSupplemental Kind = "supplemental"
)

// Kinds lists every sync kind in trigger order.
var Kinds = []Kind{KindRoster, KindLootHistory, KindWishlists, KindSupplemental}

func ParseKind(v string) (Kind, bool) {
	for _, kind := range Kinds {
		if string(kind) == v {
			return kind, true
		}
	}
	return "", false
}

type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Run is one execution of a sync kind. It is created RUNNING and completed
// exactly once.
type Run struct {
	ID          string
	Kind        Kind
	Status      Status
	StartedAt   time.Time
	CompletedAt *time.Time
	Message     string
}
