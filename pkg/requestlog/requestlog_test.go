package requestlog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LogFillsDefaults(t *testing.T) {
	s := NewMemoryStore(10)
	e := &Entry{Method: "GET", URL: "https://api.test/a", Outcome: OutcomeMocked}
	s.Log(e)

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Same(t, e, s.Get(e.ID))
	assert.Nil(t, s.Get("missing"))
	assert.Equal(t, 1, s.Count())

	s.Log(nil)
	assert.Equal(t, 1, s.Count())
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		s.Log(&Entry{URL: fmt.Sprintf("u%d", i)})
	}

	entries := s.List(nil)
	require.Len(t, entries, 3)
	assert.Equal(t, "u4", entries[0].URL)
	assert.Equal(t, "u2", entries[2].URL)
}

func TestNewMemoryStore_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultMaxEntries, NewMemoryStore(0).maxEntries)
}

func TestMemoryStore_ListFilter(t *testing.T) {
	s := NewMemoryStore(0)
	s.Log(&Entry{Method: "GET", URL: "https://api.test/a", Outcome: OutcomeMocked, EndpointID: "ep1", ResponseStatus: 200})
	s.Log(&Entry{Method: "POST", URL: "https://api.test/b", Outcome: OutcomeMocked, EndpointID: "ep2", ResponseStatus: 201})
	s.Log(&Entry{Method: "GET", URL: "https://other.test/", Outcome: OutcomeUnmatched, Error: "not mocked"})
	s.Log(&Entry{Method: "GET", URL: "http://127.0.0.1/", Outcome: OutcomePassthrough, ResponseStatus: 200})

	hasErr := true
	noErr := false

	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{"method case-insensitive", &Filter{Method: "get"}, []string{"http://127.0.0.1/", "https://other.test/", "https://api.test/a"}},
		{"url prefix", &Filter{URLPrefix: "https://api.test/"}, []string{"https://api.test/b", "https://api.test/a"}},
		{"outcome", &Filter{Outcome: OutcomeUnmatched}, []string{"https://other.test/"}},
		{"endpoint", &Filter{EndpointID: "ep2"}, []string{"https://api.test/b"}},
		{"status", &Filter{StatusCode: 200}, []string{"http://127.0.0.1/", "https://api.test/a"}},
		{"has error", &Filter{HasError: &hasErr}, []string{"https://other.test/"}},
		{"no error", &Filter{HasError: &noErr, Limit: 1}, []string{"http://127.0.0.1/"}},
		{"offset", &Filter{Offset: 3}, []string{"https://api.test/a"}},
		{"offset past end", &Filter{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, e := range s.List(tt.filter) {
				got = append(got, e.URL)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore(5)
	s.Log(&Entry{})
	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List(nil))
}

func TestMemoryStore_Subscribe(t *testing.T) {
	s := NewMemoryStore(5)
	sub, unsubscribe := s.Subscribe()

	s.Log(&Entry{URL: "first"})
	select {
	case e := <-sub:
		assert.Equal(t, "first", e.URL)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive entry")
	}

	unsubscribe()
	unsubscribe()
	_, open := <-sub
	assert.False(t, open)

	// Logging after unsubscribe must not panic.
	s.Log(&Entry{URL: "second"})
}

func TestMemoryStore_ConcurrentLog(t *testing.T) {
	s := NewMemoryStore(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Log(&Entry{Method: "GET"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, s.Count())
}
