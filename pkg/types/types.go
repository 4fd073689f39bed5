package types

// Mode represents the current interaction mode
type Mode int

const (
	ModeBrowsing Mode = iota
	ModePickingKind
	ModeViewingDetail
	ModeError
)

func (m Mode) String() string {
	switch m {
	case ModeBrowsing:
		return "browsing"
	case ModePickingKind:
		return "picking-kind"
	case ModeViewingDetail:
		return "viewing-detail"
	case ModeError:
		return "error"
	default:
		return "unknown"
	}
}

// ListItem represents an item that can be selected from a list
type ListItem struct {
	Title       string
	Description string
	Metadata    map[string]string
}

func (i ListItem) FilterValue() string {
	return i.Title
}

// UID returns the object identity the item was built from, if any
func (i ListItem) UID() string {
	return i.Metadata["uid"]
}
