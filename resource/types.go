package resource

// Index addresses a slot in the reference table.
type Index uint32

// Sentinel is one of the fixed host values the guest references by index.
type Sentinel uint8

const (
	Undefined Sentinel = iota
	Null
	True
	False
)

func (s Sentinel) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "sentinel(?)"
	}
}

// Event types for table change notifications.
type EventType uint8

const (
	EventGrown EventType = iota
	EventSet
)

// Event represents a table change.
type Event struct {
	Value any
	Index Index
	Delta uint32
	Type  EventType
}

// Observer receives notifications about table changes.
type Observer interface {
	OnTableEvent(Event)
}

// Seeder installs the values a guest expects in its reference table.
// It runs once, during the guest's start routine.
type Seeder func(t *Table) error
