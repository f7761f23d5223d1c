package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/netmock/internal/id"
	"github.com/getmockd/netmock/pkg/logging"
	"github.com/getmockd/netmock/pkg/mock"
)

// Errors returned by Register.
var (
	ErrNilHandler   = errors.New("handler cannot be nil")
	ErrEmptyPattern = errors.New("url pattern cannot be empty")
	ErrBadPattern   = errors.New("invalid url pattern")
)

// Call records one handler invocation.
type Call struct {
	// Index equals the CallCount the handler was given.
	Index int

	Method  string
	URL     string
	Context *mock.Context
	At      time.Time
}

// Endpoint is a registered (method, pattern, handler) triple.
type Endpoint struct {
	ID      string
	Method  string
	Pattern *regexp.Regexp
	Source  string
	Handler mock.Handler

	mu       sync.Mutex
	reserved int
	calls    []Call
}

// Reserve claims the next invocation slot and returns the call metadata for
// it. Counts are strictly increasing in the order Reserve is called.
func (e *Endpoint) Reserve() mock.Meta {
	e.mu.Lock()
	defer e.mu.Unlock()
	meta := mock.Meta{CallCount: e.reserved}
	e.reserved++
	return meta
}

// Record appends a call to the history.
func (e *Endpoint) Record(call Call) {
	if call.At.IsZero() {
		call.At = time.Now()
	}
	e.mu.Lock()
	e.calls = append(e.calls, call)
	e.mu.Unlock()
}

// Calls returns a copy of the call history in recording order.
func (e *Endpoint) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// CallCount returns the number of recorded calls.
func (e *Endpoint) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// String returns "METHOD pattern".
func (e *Endpoint) String() string {
	return e.Method + " " + e.Source
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.Component(logger, "registry")
	}
}

// Registry holds endpoints in registration order.
type Registry struct {
	mu        sync.RWMutex
	endpoints []*Endpoint
	logger    *slog.Logger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{logger: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CompilePattern compiles a URL pattern so that it only matches whole URLs.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	inner := strings.TrimPrefix(pattern, "^")
	if strings.HasSuffix(inner, "$") && !strings.HasSuffix(inner, `\$`) {
		inner = inner[:len(inner)-1]
	}
	re, err := regexp.Compile("^(?:" + inner + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrBadPattern, pattern, err)
	}
	return re, nil
}

// Register adds an endpoint. The method is stored upper-cased.
func (r *Registry) Register(method, pattern string, handler mock.Handler) (*Endpoint, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = "GET"
	}

	ep := &Endpoint{
		ID:      id.UUID(),
		Method:  strings.ToUpper(method),
		Pattern: re,
		Source:  pattern,
		Handler: handler,
	}

	r.mu.Lock()
	for _, existing := range r.endpoints {
		if existing.Method == ep.Method && existing.Source == ep.Source {
			r.logger.Debug("endpoint shadowed by earlier registration",
				"endpoint", ep.String(), "shadowedBy", existing.ID)
			break
		}
	}
	r.endpoints = append(r.endpoints, ep)
	r.mu.Unlock()

	r.logger.Debug("endpoint registered", "id", ep.ID, "endpoint", ep.String())
	return ep, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(method, pattern string, handler mock.Handler) *Endpoint {
	ep, err := r.Register(method, pattern, handler)
	if err != nil {
		panic(err)
	}
	return ep
}

// Endpoints returns a snapshot of all endpoints in registration order.
func (r *Registry) Endpoints() []*Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Lookup returns the first endpoint registered with the given method and
// pattern source, or nil.
func (r *Registry) Lookup(method, pattern string) *Endpoint {
	method = strings.ToUpper(method)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ep := range r.endpoints {
		if ep.Method == method && ep.Source == pattern {
			return ep
		}
	}
	return nil
}

// Get returns the endpoint with the given ID, or nil.
func (r *Registry) Get(endpointID string) *Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ep := range r.endpoints {
		if ep.ID == endpointID {
			return ep
		}
	}
	return nil
}

// ForURL returns every endpoint whose pattern matches url, regardless of
// method, in registration order.
func (r *Registry) ForURL(url string) []*Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Endpoint
	for _, ep := range r.endpoints {
		if ep.Pattern.MatchString(url) {
			out = append(out, ep)
		}
	}
	return out
}

// Remove deletes the endpoint with the given ID. Its call history goes with it.
func (r *Registry) Remove(endpointID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ep := range r.endpoints {
		if ep.ID == endpointID {
			r.endpoints = append(r.endpoints[:i], r.endpoints[i+1:]...)
			return true
		}
	}
	return false
}

// Reset removes every endpoint.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.endpoints = nil
	r.mu.Unlock()
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}
