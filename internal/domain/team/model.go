package team

import "time"

// Metadata describes the guild team the roster belongs to. Realm and Region
// act as defaults for characters that omit them.
type Metadata struct {
	ExternalID *int64
	Name       string
	GuildName  string
	Realm      string
	Region     string
	RaidDays   []RaidDay
	FetchedAt  time.Time
}

type RaidDay struct {
	DayOfWeek string
	StartTime string
	EndTime   string
	Active    *bool
}

// Period is the current reset period and season.
type Period struct {
	PeriodID   int64
	SeasonID   *int64
	SeasonName string
	Expansion  string
	FetchedAt  time.Time
}
