package application

import "time"

// Application is a recruitment application with its alts and answers.
type Application struct {
	ExternalID int64
	Name       string
	Realm      string
	Region     string
	Class      string
	Role       string
	Status     string
	Message    string
	DiscordID  string
	BattleTag  string
	AppliedAt  *time.Time
	Alts       []Alt
	Questions  []Question
}

type Alt struct {
	Name  string
	Realm string
	Class string
}

type Question struct {
	Position int
	Question string
	Answer   string
	Files    []File
}

type File struct {
	Name string
	URL  string
}
