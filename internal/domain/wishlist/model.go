package wishlist

import (
	"time"

	"github.com/riskibarqy/guildsync/internal/domain/raider"
)

// Entry is one desired item on a raider's wishlist.
type Entry struct {
	RaiderID       int64
	Instance       string
	Difficulty     string
	Encounter      string
	ItemID         *int64
	ItemName       string
	Score          *float64
	Percentage     *float64
	Specialization string
	Comment        string
	UpdatedAt      *time.Time
}

// Summary is a wishlist listing row used to fetch the detail.
type Summary struct {
	Owner     raider.Ref
	UpdatedAt *time.Time
}

// Detail is a fetched wishlist for one character.
type Detail struct {
	Owner   raider.Ref
	Entries []Entry
}
