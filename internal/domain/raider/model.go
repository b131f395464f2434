package raider

import (
	"strings"
	"time"
)

// Raider is a tracked guild character and the root of the roster aggregate.
type Raider struct {
	ID                   int64
	ExternalID           *int64
	Name                 string
	Realm                string
	Region               string
	Class                string
	Spec                 string
	Role                 string
	Rank                 string
	Status               string
	Note                 string
	BlizzardID           *int64
	TrackingSince        *time.Time
	JoinDate             *time.Time
	BlizzardLastModified *time.Time
	LastSync             time.Time
}

// Ref identifies a character as seen in a payload that is not the roster.
type Ref struct {
	ExternalID *int64
	Name       string
	Realm      string
	Region     string
}

// NaturalKey is the fallback identity of a raider when no external id is known.
type NaturalKey struct {
	Name  string
	Realm string
}

func NewNaturalKey(name, realm string) NaturalKey {
	return NaturalKey{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Realm: strings.ToLower(strings.TrimSpace(realm)),
	}
}

func (r Raider) NaturalKey() NaturalKey {
	return NewNaturalKey(r.Name, r.Realm)
}

func (r Raider) Ref() Ref {
	return Ref{ExternalID: r.ExternalID, Name: r.Name, Realm: r.Realm, Region: r.Region}
}

type GearVariant string

const (
	GearEquipped GearVariant = "equipped"
	GearBest     GearVariant = "best"
	GearSpark    GearVariant = "spark"
)

var GearVariants = []GearVariant{GearEquipped, GearBest, GearSpark}

// GearSlots lists the sixteen equipment slots in display order.
var GearSlots = []string{
	"head", "neck", "shoulder", "back", "chest", "wrist", "hands", "waist",
	"legs", "feet", "finger_1", "finger_2", "trinket_1", "trinket_2",
	"main_hand", "off_hand",
}

type GearItem struct {
	Variant   GearVariant
	Slot      string
	ItemID    *int64
	ItemLevel *float64
	Name      string
	Quality   *int64
	Enchant   *int64
	Sockets   *int64
}

type Statistics struct {
	MythicPlusScore *float64
	ItemLevel       *float64
	WeeklyDungeons  *int64
	WorldQuests     *int64
	BossScores      []BossScore
	TrackItems      []TrackItem
	Crests          []CrestCount
	VaultSlots      []VaultSlot
	Renown          []Renown
	RaidProgress    []RaidProgress
}

type BossScore struct {
	Encounter  string
	Difficulty string
	Percentile *float64
}

type TrackItem struct {
	Track string
	Count *int64
}

type CrestCount struct {
	Crest string
	Count *int64
}

type VaultSlot struct {
	Category  string
	Slot      int
	ItemLevel *int64
}

type Renown struct {
	Faction string
	Level   *int64
}

type RaidProgress struct {
	Instance   string
	Difficulty string
	Killed     *int64
	Total      *int64
}

type PvpBracket struct {
	Bracket       string
	Rating        *int64
	SeasonHighest *int64
	Played        *int64
	Won           *int64
}

// Children is the full set of raider-owned collections replaced on each sync.
type Children struct {
	Gear       []GearItem
	Statistics *Statistics
	Pvp        []PvpBracket
}
