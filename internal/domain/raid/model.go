package raid

import "time"

type Raid struct {
	ExternalID  int64
	Date        *time.Time
	StartTime   string
	EndTime     string
	Instance    string
	Difficulty  string
	Status      string
	Optional    *bool
	PresentSize *int64
	TotalSize   *int64
	Notes       string
	Signups     []Signup
	Encounters  []Encounter
}

type Signup struct {
	CharacterExternalID *int64
	Name                string
	Realm               string
	Class               string
	Role                string
	Status              string
	Comment             string
	Selected            *bool
}

type Encounter struct {
	Name     string
	Enabled  *bool
	Extra    *bool
	Notes    string
	Position int
}
