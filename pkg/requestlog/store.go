package requestlog

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines request history storage.
type Store interface {
	Logger

	// Get retrieves an entry by ID.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of entries.
	Count() int
}

// Filter defines criteria for List. Zero fields match everything.
type Filter struct {
	Method     string
	URLPrefix  string
	Outcome    Outcome
	EndpointID string
	StatusCode int
	HasError   *bool
	Limit      int
	Offset     int
}

// Subscriber receives new entries.
type Subscriber chan *Entry
