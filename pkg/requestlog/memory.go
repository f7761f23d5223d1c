package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/getmockd/netmock/internal/id"
)

// DefaultMaxEntries is the capacity used when NewMemoryStore gets a
// non-positive size.
const DefaultMaxEntries = 1000

// MemoryStore is a bounded in-memory Store. When full, the oldest entry is
// evicted.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     []*Entry
	maxEntries  int
	subMu       sync.RWMutex
	subscribers map[Subscriber]struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:     make([]*Entry, 0, maxEntries),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log records an entry, filling ID and Timestamp when unset.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}

	if entry.ID == "" {
		entry.ID = id.Sortable()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.mu.Lock()
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	// Notify subscribers without blocking; slow subscribers miss entries.
	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
		}
	}
	s.subMu.RUnlock()
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List returns entries newest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter != nil && !matchesFilter(e, filter) {
			continue
		}
		result = append(result, e)
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

func matchesFilter(e *Entry, f *Filter) bool {
	if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
		return false
	}
	if f.URLPrefix != "" && !strings.HasPrefix(e.URL, f.URLPrefix) {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.EndpointID != "" && e.EndpointID != f.EndpointID {
		return false
	}
	if f.StatusCode != 0 && e.ResponseStatus != f.StatusCode {
		return false
	}
	if f.HasError != nil && *f.HasError != (e.Error != "") {
		return false
	}
	return true
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.entries = make([]*Entry, 0, s.maxEntries)
	s.mu.Unlock()
}

// Count returns the number of entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers a buffered subscriber. Call the returned function to
// unsubscribe; it closes the channel.
func (s *MemoryStore) Subscribe() (Subscriber, func()) {
	sub := make(Subscriber, 64)
	s.subMu.Lock()
	s.subscribers[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, sub)
			s.subMu.Unlock()
			close(sub)
		})
	}
}
