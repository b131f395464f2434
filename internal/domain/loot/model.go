package loot

import (
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
)

// Award is one historical loot grant.
type Award struct {
	ID           int64
	RaiderID     int64
	SeasonID     int64
	ExternalID   *int64
	Owner        raider.Ref
	ItemID       *int64
	ItemName     string
	AwardedAt    *time.Time
	Difficulty   string
	ResponseType string
	Note         string
	BonusIDs     []int64
	OldItems     []OldItem
	Wish         *Wish
}

// OldItem is an item replaced by the award. A nil BonusID means the replaced
// item carried no bonus ids.
type OldItem struct {
	ItemID  *int64
	BonusID *int64
}

type Wish struct {
	Specialization string
	Value          *float64
	Comment        string
}
