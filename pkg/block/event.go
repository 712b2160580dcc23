package block

type EventKind int

const (
	EventCreate EventKind = iota
	EventMove
	EventChange
	EventDelete
	EventVarCreate
)

var eventNames = map[EventKind]string{
	EventCreate:    "create",
	EventMove:      "move",
	EventChange:    "change",
	EventDelete:    "delete",
	EventVarCreate: "var_create",
}

func (k EventKind) String() string { return eventNames[k] }

// Element values of a change event.
const (
	ElementField    = "field"
	ElementComment  = "comment"
	ElementDisabled = "disabled"
	ElementCheck    = "check"
)

// Event is a mutation notification. Only the members relevant to Kind are
// set: Element/Name/OldValue/NewValue for changes, the parent IDs and
// InputName for moves, IDs (the whole removed subtree) for deletes. A
// var_create event carries the symbol ID in BlockID and its stored name.
type Event struct {
	Kind    EventKind
	BlockID string

	Element  string
	Name     string
	OldValue string
	NewValue string

	OldParentID string
	NewParentID string
	InputName   string

	IDs []string
}
