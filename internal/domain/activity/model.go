package activity

// Entry is one character's historical activity for a period.
type Entry struct {
	PeriodID            *int64
	CharacterExternalID *int64
	Name                string
	Realm               string
	DungeonsDone        *int64
	WorldQuests         *int64
	VaultSlots          *int64
	DataJSON            string
}
