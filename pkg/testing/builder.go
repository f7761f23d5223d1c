package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/netmock/pkg/mock"
	"github.com/getmockd/netmock/pkg/registry"
)

// MockBuilder builds a mock using a fluent API. Nothing is registered until
// Reply, ReplyFunc or Respond is called.
type MockBuilder struct {
	nm     *Netmock
	method string
	given  string
	source string

	resp       mock.Response
	configured bool
	err        error // First error encountered during building
}

// setError records the first error encountered during building.
func (b *MockBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *MockBuilder) Err() error {
	return b.err
}

// WithStatus sets the HTTP response status code.
// Default is 200 (OK).
func (b *MockBuilder) WithStatus(status int) *MockBuilder {
	b.resp.Status = status
	b.configured = true
	return b
}

// WithStatusText overrides the reason phrase.
func (b *MockBuilder) WithStatusText(text string) *MockBuilder {
	b.resp.StatusText = text
	b.configured = true
	return b
}

// WithHeader adds a response header.
func (b *MockBuilder) WithHeader(key, value string) *MockBuilder {
	if b.resp.Headers == nil {
		b.resp.Headers = make(map[string]string)
	}
	b.resp.Headers[key] = value
	b.configured = true
	return b
}

// WithHeaders sets multiple response headers at once.
func (b *MockBuilder) WithHeaders(headers map[string]string) *MockBuilder {
	for k, v := range headers {
		b.WithHeader(k, v)
	}
	return b
}

// WithDelay adds a response delay.
// Accepts duration strings like "100ms", "1s", "500ms".
func (b *MockBuilder) WithDelay(delay string) *MockBuilder {
	d, err := time.ParseDuration(delay)
	if err != nil {
		b.setError(fmt.Errorf("WithDelay: invalid duration %q: %w", delay, err))
		return b
	}
	b.resp.Delay = d
	b.configured = true
	return b
}

// WithDelayMs adds a response delay in milliseconds.
func (b *MockBuilder) WithDelayMs(delayMs int) *MockBuilder {
	b.resp.Delay = time.Duration(delayMs) * time.Millisecond
	b.configured = true
	return b
}

// WithBody sets the response body. Strings and byte slices are sent as-is;
// other values are encoded as JSON when the reply is produced.
func (b *MockBuilder) WithBody(body any) *MockBuilder {
	b.resp.Body = body
	b.configured = true
	return b
}

// WithJSON sets the response body as JSON.
// Automatically sets Content-Type to application/json.
func (b *MockBuilder) WithJSON(body any) *MockBuilder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.resp.Body = json.RawMessage(data)
	return b.WithHeader("Content-Type", "application/json")
}

// Reply registers a mock that always replies with v. Settings made on the
// builder are kept and v becomes the body; without any, v is classified
// with mock.AsReply, so a mock.Response or mock.Reply works as well.
func (b *MockBuilder) Reply(v any) *registry.Endpoint {
	b.nm.t.Helper()
	if !b.configured {
		return b.register(mock.Static(v))
	}
	b.resp.Body = v
	return b.Respond()
}

// ReplyFunc registers a mock that computes its reply per request.
func (b *MockBuilder) ReplyFunc(h mock.Handler) *registry.Endpoint {
	b.nm.t.Helper()
	if h == nil {
		b.setError(fmt.Errorf("ReplyFunc: handler cannot be nil"))
	}
	return b.register(h)
}

// Respond registers a mock that replies with the configured response.
func (b *MockBuilder) Respond() *registry.Endpoint {
	b.nm.t.Helper()
	reply := mock.Typed{Response: b.resp}
	return b.register(func(*mock.Context, mock.Meta) (mock.Reply, error) {
		return reply, nil
	})
}

func (b *MockBuilder) register(h mock.Handler) *registry.Endpoint {
	b.nm.t.Helper()
	if b.err != nil {
		b.nm.t.Fatalf("netmock: %s %s: %v", b.method, b.given, b.err)
		return nil
	}
	return b.nm.register(b.method, b.given, b.source, h)
}

// RespondWith is a shorthand for setting status and body together.
func (b *MockBuilder) RespondWith(status int, body any) *registry.Endpoint {
	return b.WithStatus(status).WithBody(body).Respond()
}

// RespondNotFound registers a 404 Not Found response.
func (b *MockBuilder) RespondNotFound() *registry.Endpoint {
	return b.WithStatus(http.StatusNotFound).WithJSON(map[string]string{
		"error": "not_found",
	}).Respond()
}

// RespondServerError registers a 500 Internal Server Error response.
func (b *MockBuilder) RespondServerError(message string) *registry.Endpoint {
	return b.WithStatus(http.StatusInternalServerError).WithJSON(map[string]string{
		"error": message,
	}).Respond()
}

// RespondNoContent registers a 204 No Content response.
func (b *MockBuilder) RespondNoContent() *registry.Endpoint {
	return b.WithStatus(http.StatusNoContent).Respond()
}
