package intercept

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/netmock/pkg/mock"
)

// Errors delivered through the completion path.
var (
	ErrSerialize    = errors.New("failed to serialize reply body")
	ErrInvalidReply = errors.New("invalid reply")
	ErrHandlerPanic = errors.New("handler panicked")
)

// Events emitted by a ClientRequest, in order.
const (
	EventResponse = "response"
	EventData     = "data"
	EventEnd      = "end"
)

// Callback receives the final projection or error exactly once.
type Callback func(*Projection, error)

// Listener receives an event payload: *Projection for "response", []byte
// for "data" and nil for "end".
type Listener func(any)

// Projection is the response as observed by the caller.
type Projection struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	Body       []byte

	// Raw is the real response for passthrough requests.
	Raw *http.Response
}

// HTTPResponse renders the projection as an *http.Response for req.
func (p *Projection) HTTPResponse(req *http.Request) *http.Response {
	if p.Raw != nil {
		return p.Raw
	}
	return &http.Response{
		Status:        strconv.Itoa(p.StatusCode) + " " + p.Status,
		StatusCode:    p.StatusCode,
		Proto:         p.Proto,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        p.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(p.Body)),
		ContentLength: int64(len(p.Body)),
		Request:       req,
	}
}

type state int

const (
	statePending state = iota
	stateSettled
	stateProjected
	stateEmitted
)

func (s state) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateSettled:
		return "settled"
	case stateProjected:
		return "projected"
	case stateEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// resolver produces the projection and the delay to wait before emitting it.
type resolver func() (*Projection, time.Duration, error)

// ClientRequest is an in-flight emulated request. It resolves on its own
// goroutine; observers attach with On, the completion callback, Wait or
// Done. All of them see the same projection, computed once.
type ClientRequest struct {
	mu        sync.Mutex
	state     state
	listeners map[string][]Listener
	written   bytes.Buffer

	projection *Projection
	err        error

	callback Callback
	onFinish func(*Projection, error)
	once     sync.Once
	done     chan struct{}
}

func newClientRequest(resolve resolver, cb Callback, onFinish func(*Projection, error)) *ClientRequest {
	c := &ClientRequest{
		listeners: make(map[string][]Listener),
		callback:  cb,
		onFinish:  onFinish,
		done:      make(chan struct{}),
	}
	go c.run(resolve)
	return c
}

// replyResolver settles a handler reply into a projection.
func replyResolver(reply mock.Reply, handlerErr error) resolver {
	return func() (*Projection, time.Duration, error) {
		if handlerErr != nil {
			return nil, 0, handlerErr
		}
		settled, err := settle(reply)
		if err != nil {
			return nil, 0, err
		}
		return project(settled)
	}
}

// passthroughResolver performs a real round trip and keeps its response
// readable by every observer.
func passthroughResolver(do func() (*http.Response, error)) resolver {
	return func() (*Projection, time.Duration, error) {
		resp, err := do()
		if err != nil {
			return nil, 0, err
		}
		var body []byte
		if resp.Body != nil {
			body, err = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, 0, err
			}
			resp.Body = io.NopCloser(bytes.NewReader(body))
		}
		return &Projection{
			StatusCode: resp.StatusCode,
			Status:     reason(resp),
			Proto:      resp.Proto,
			Header:     resp.Header,
			Body:       body,
			Raw:        resp,
		}, 0, nil
	}
}

func reason(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func (c *ClientRequest) run(resolve resolver) {
	defer func() {
		if r := recover(); r != nil {
			c.finish(nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
		}
	}()

	proj, delay, err := resolve()
	c.advance(stateSettled)
	c.advance(stateProjected)

	if err == nil && delay > 0 {
		timer := time.NewTimer(delay)
		<-timer.C
	}
	c.finish(proj, err)
}

func (c *ClientRequest) advance(s state) {
	c.mu.Lock()
	if s > c.state {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *ClientRequest) finish(proj *Projection, err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.projection = proj
		c.err = err
		c.state = stateEmitted
		listeners := c.listeners
		c.listeners = nil
		c.mu.Unlock()
		defer close(c.done)

		if c.onFinish != nil {
			c.onFinish(proj, err)
		}
		if c.callback != nil {
			c.callback(proj, err)
		}
		if err != nil {
			return
		}
		for _, event := range []string{EventResponse, EventData, EventEnd} {
			for _, fn := range listeners[event] {
				fn(payload(event, proj))
			}
		}
	})
}

func payload(event string, proj *Projection) any {
	switch event {
	case EventResponse:
		return proj
	case EventData:
		return proj.Body
	default:
		return nil
	}
}

func emits(event string) bool {
	return event == EventResponse || event == EventData || event == EventEnd
}

// On registers a listener. "response", "data" and "end" fire once after the
// reply resolves and its delay elapses; a listener added after that fires
// immediately. Every other event, such as "error", "abort" or "timeout", is
// accepted and never fires.
func (c *ClientRequest) On(event string, fn Listener) *ClientRequest {
	if fn == nil || !emits(event) {
		return c
	}

	c.mu.Lock()
	if c.state != stateEmitted {
		c.listeners[event] = append(c.listeners[event], fn)
		c.mu.Unlock()
		return c
	}
	proj, err := c.projection, c.err
	c.mu.Unlock()

	if err == nil {
		fn(payload(event, proj))
	}
	return c
}

// Write buffers request body bytes. Nothing is sent anywhere.
func (c *ClientRequest) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

// End is a no-op.
func (c *ClientRequest) End() *ClientRequest { return c }

// Destroy is a no-op. Resolution always runs to completion.
func (c *ClientRequest) Destroy() *ClientRequest { return c }

// Done is closed once the request is finalized and every callback and
// listener has returned. Listeners must not Wait on their own request.
func (c *ClientRequest) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the request is finalized or ctx ends. Cancelling ctx
// stops the wait only.
func (c *ClientRequest) Wait(ctx context.Context) (*Projection, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.projection, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle resolves pending replies until a concrete one remains.
func settle(reply mock.Reply) (mock.Reply, error) {
	for {
		p, ok := reply.(mock.Pending)
		if !ok {
			return reply, nil
		}
		if p.Resolve == nil {
			return nil, fmt.Errorf("%w: pending reply has no resolver", ErrInvalidReply)
		}
		next, err := p.Resolve()
		if err != nil {
			return nil, err
		}
		reply = next
	}
}

func project(reply mock.Reply) (*Projection, time.Duration, error) {
	var resp mock.Response
	switch r := reply.(type) {
	case nil:
	case mock.Plain:
		resp.Body = r.Value
	case mock.Typed:
		resp = r.Response
	default:
		return nil, 0, fmt.Errorf("%w: %T", ErrInvalidReply, reply)
	}

	body, isJSON, err := mock.Serialize(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrSerialize, err)
	}

	header := make(http.Header, len(resp.Headers)+1)
	if isJSON {
		header.Set("Content-Type", "application/json")
	}
	for k, v := range resp.Headers {
		header.Set(k, v)
	}

	return &Projection{
		StatusCode: resp.StatusCode(),
		Status:     resp.Reason(),
		Proto:      "HTTP/1.1",
		Header:     header,
		Body:       body,
	}, resp.Delay, nil
}
