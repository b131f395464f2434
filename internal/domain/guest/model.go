package guest

type Guest struct {
	ExternalID *int64
	Name       string
	Realm      string
	Class      string
	Role       string
	Note       string
}
