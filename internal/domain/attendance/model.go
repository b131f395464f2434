package attendance

// Stat is a character's attendance over the tracked window.
type Stat struct {
	CharacterExternalID *int64
	Name                string
	Realm               string
	Percentage          *float64
	Attended            *int64
	Total               *int64
}
