package types

// Attribute is one key/value pair of an Event, optionally flagged for
// ABCI indexing.
type Attribute struct {
	Key     string
	Value   string
	Indexed bool
}

// Event is appended to the active Context and returned, in push order, in
// ABCI responses.
type Event struct {
	Type       string
	Attributes []Attribute
}

func NewEvent(eventType string, attrs ...Attribute) Event {
	return Event{Type: eventType, Attributes: attrs}
}

func NewAttribute(key, value string) Attribute {
	return Attribute{Key: key, Value: value, Indexed: true}
}

// EventManager buffers events for the lifetime of one Context. It never
// reorders or drops what's pushed; a fresh manager is created whenever a
// fresh tx or block context is opened.
type EventManager struct {
	events []Event
}

func NewEventManager() *EventManager { return &EventManager{} }

func (em *EventManager) EmitEvent(e Event) { em.events = append(em.events, e) }

func (em *EventManager) EmitEvents(es ...Event) { em.events = append(em.events, es...) }

func (em *EventManager) Events() []Event { return em.events }
