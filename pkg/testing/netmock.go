package testing

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/netmock/pkg/config"
	"github.com/getmockd/netmock/pkg/intercept"
	"github.com/getmockd/netmock/pkg/logging"
	"github.com/getmockd/netmock/pkg/mock"
	"github.com/getmockd/netmock/pkg/passthrough"
	"github.com/getmockd/netmock/pkg/registry"
	"github.com/getmockd/netmock/pkg/requestlog"
)

// Option configures a Netmock.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	logger    *slog.Logger
	settings  []string
}

// WithTransport sets the real transport used for passthrough requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithLogger sets the interceptor logger. By default warnings, such as
// unmatched requests, are written to the test log.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSettings loads settings files (doublestar globs allowed) and applies
// their mocks and passthrough rules.
func WithSettings(patterns ...string) Option {
	return func(o *options) { o.settings = append(o.settings, patterns...) }
}

// Netmock is a per-test interception harness.
type Netmock struct {
	t           testing.TB
	registry    *registry.Registry
	allowlist   *passthrough.Allowlist
	requests    *requestlog.MemoryStore
	interceptor *intercept.Interceptor

	mu      sync.Mutex
	sources map[string]string
}

// New creates a harness bound to t. It is reset when the test ends.
func New(t testing.TB, opts ...Option) *Netmock {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.ForTest(t, logging.LevelWarn)
	}

	nm := &Netmock{
		t:         t,
		registry:  registry.New(registry.WithLogger(o.logger)),
		allowlist: passthrough.New(),
		requests:  requestlog.NewMemoryStore(requestlog.DefaultMaxEntries),
		sources:   make(map[string]string),
	}
	if len(o.settings) > 0 {
		nm.loadSettings(o.settings)
	}
	nm.interceptor = intercept.New(intercept.Config{
		Registry:   nm.registry,
		Allowlist:  nm.allowlist,
		Transport:  o.transport,
		RequestLog: nm.requests,
		Logger:     o.logger,
	})

	t.Cleanup(nm.Reset)
	return nm
}

func (nm *Netmock) loadSettings(patterns []string) {
	nm.t.Helper()

	s, err := config.LoadGlob(patterns...)
	if err != nil {
		nm.t.Fatalf("netmock: loading settings: %v", err)
		return
	}
	allowlist, err := s.Allowlist()
	if err != nil {
		nm.t.Fatalf("netmock: %v", err)
		return
	}
	if _, err := s.Apply(nm.registry); err != nil {
		nm.t.Fatalf("netmock: applying settings: %v", err)
		return
	}

	nm.allowlist = allowlist
	for i := range s.Mocks {
		m := &s.Mocks[i]
		given := m.URL
		if given == "" {
			given = m.Path
		}
		nm.remember(m.MethodName(), given, m.Pattern())
	}
}

// Mock starts building a mock for a URL template.
func (nm *Netmock) Mock(method, template string) *MockBuilder {
	return nm.newBuilder(method, template, registry.FromTemplate(template))
}

// MockRegexp starts building a mock for a URL regular expression.
func (nm *Netmock) MockRegexp(method, pattern string) *MockBuilder {
	return nm.newBuilder(method, pattern, pattern)
}

func (nm *Netmock) newBuilder(method, given, source string) *MockBuilder {
	if method == "" {
		method = http.MethodGet
	}
	return &MockBuilder{nm: nm, method: strings.ToUpper(method), given: given, source: source}
}

func (nm *Netmock) register(method, given, source string, h mock.Handler) *registry.Endpoint {
	nm.t.Helper()

	ep, err := nm.registry.Register(method, source, h)
	if err != nil {
		nm.t.Fatalf("netmock: registering %s %s: %v", method, given, err)
		return nil
	}
	nm.remember(method, given, source)
	return ep
}

func (nm *Netmock) remember(method, given, source string) {
	nm.mu.Lock()
	nm.sources[strings.ToUpper(method)+" "+given] = source
	nm.mu.Unlock()
}

// AllowRealNetwork lets unmatched requests through to the real transport.
// Without arguments every URL is allowed. Arguments containing "://" are
// URL globs; anything else is a host glob.
func (nm *Netmock) AllowRealNetwork(patterns ...string) {
	nm.t.Helper()

	if len(patterns) == 0 {
		nm.allowlist.AllowAll()
		return
	}
	for _, p := range patterns {
		if strings.Contains(p, "://") {
			if err := nm.allowlist.AllowURL(p); err != nil {
				nm.t.Fatalf("netmock: %v", err)
			}
			continue
		}
		nm.allowlist.AllowHost(p)
	}
}

// Client returns an http.Client that routes through the interceptor.
func (nm *Netmock) Client() *http.Client {
	return nm.interceptor.Client()
}

// Transport returns the interceptor for use in an existing client.
func (nm *Netmock) Transport() http.RoundTripper {
	return nm.interceptor
}

// Interceptor returns the underlying interceptor.
func (nm *Netmock) Interceptor() *intercept.Interceptor {
	return nm.interceptor
}

// Request issues a request through the event/callback API.
func (nm *Netmock) Request(desc *mock.Request, cb intercept.Callback) (*intercept.ClientRequest, error) {
	return nm.interceptor.Request(desc, cb)
}

// Requests returns every intercepted request, oldest first.
func (nm *Netmock) Requests() []*requestlog.Entry {
	entries := nm.requests.List(nil)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// Calls returns the recorded calls of the mocks registered for method and
// pattern, in call order. The pattern is the one given to Mock or
// MockRegexp.
func (nm *Netmock) Calls(method, pattern string) []registry.Call {
	method = strings.ToUpper(method)

	nm.mu.Lock()
	source, ok := nm.sources[method+" "+pattern]
	nm.mu.Unlock()
	if !ok {
		source = pattern
	}

	var calls []registry.Call
	for _, ep := range nm.registry.Endpoints() {
		if ep.Method == method && ep.Source == source {
			calls = append(calls, ep.Calls()...)
		}
	}
	return calls
}

// Reset removes every mock, passthrough rule and logged request.
func (nm *Netmock) Reset() {
	nm.registry.Reset()
	nm.allowlist.Reset()
	nm.requests.Clear()

	nm.mu.Lock()
	nm.sources = make(map[string]string)
	nm.mu.Unlock()
}
