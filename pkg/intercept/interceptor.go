package intercept

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/netmock/internal/matching"
	"github.com/getmockd/netmock/pkg/logging"
	"github.com/getmockd/netmock/pkg/mock"
	"github.com/getmockd/netmock/pkg/passthrough"
	"github.com/getmockd/netmock/pkg/registry"
	"github.com/getmockd/netmock/pkg/requestlog"
)

// Config configures an Interceptor.
type Config struct {
	// Registry holds the mocked endpoints. Defaults to an empty registry.
	Registry *registry.Registry

	// Allowlist decides which unmatched URLs reach the real transport.
	// Nil denies everything.
	Allowlist *passthrough.Allowlist

	// Transport performs passthrough requests. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// RequestLog receives one entry per request. Optional.
	RequestLog requestlog.Logger

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Interceptor routes requests to mocks, the real transport or an error.
// It implements http.RoundTripper and is safe for concurrent use.
type Interceptor struct {
	registry   *registry.Registry
	matcher    *matching.Matcher
	allowlist  *passthrough.Allowlist
	transport  http.RoundTripper
	requestLog requestlog.Logger
	log        *slog.Logger
}

var _ http.RoundTripper = (*Interceptor)(nil)

// New creates an interceptor.
func New(cfg Config) *Interceptor {
	if cfg.Registry == nil {
		cfg.Registry = registry.New()
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	return &Interceptor{
		registry:   cfg.Registry,
		matcher:    matching.New(cfg.Registry),
		allowlist:  cfg.Allowlist,
		transport:  cfg.Transport,
		requestLog: cfg.RequestLog,
		log:        logging.Component(cfg.Logger, "intercept"),
	}
}

// Registry returns the registry the interceptor resolves against.
func (i *Interceptor) Registry() *registry.Registry {
	return i.registry
}

// Client returns an http.Client that uses the interceptor as its transport.
func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: i}
}

// Request issues desc through the event/callback API. The handler of the
// matched endpoint runs before Request returns; its reply is delivered
// asynchronously. Unmatched requests that are not allowed through fail
// synchronously with an *UnmatchedError.
func (i *Interceptor) Request(desc *mock.Request, cb Callback) (*ClientRequest, error) {
	if desc == nil {
		desc = &mock.Request{}
	}
	start := time.Now()
	method, url := desc.MethodName(), desc.FullURL()

	res, ok := i.matcher.Resolve(method, url)
	if !ok {
		if !i.allowlist.Allowed(url) {
			return nil, i.unmatched(method, url, start)
		}
		i.log.Debug("passing request through", "method", method, "url", url)
		do := func() (*http.Response, error) {
			req, err := outgoingRequest(desc, method, url)
			if err != nil {
				return nil, err
			}
			return i.transport.RoundTrip(req)
		}
		entry := &requestlog.Entry{Timestamp: start, Method: method, URL: url, Outcome: requestlog.OutcomePassthrough}
		return newClientRequest(passthroughResolver(do), cb, i.finisher(entry)), nil
	}

	return i.mocked(res, desc, start, cb), nil
}

func (i *Interceptor) mocked(res *matching.Result, desc *mock.Request, start time.Time, cb Callback) *ClientRequest {
	reply, meta, err := i.invoke(res, desc)
	entry := &requestlog.Entry{
		Timestamp:  start,
		Method:     desc.MethodName(),
		URL:        desc.FullURL(),
		Outcome:    requestlog.OutcomeMocked,
		EndpointID: res.Endpoint.ID,
		CallCount:  meta.CallCount,
	}
	return newClientRequest(replyResolver(reply, err), cb, i.finisher(entry))
}

// RoundTrip implements http.RoundTripper. Passthrough requests are handed
// to the real transport untouched and its result is returned as-is.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	desc := mock.FromHTTP(req)
	method, url := desc.MethodName(), desc.FullURL()

	res, ok := i.matcher.Resolve(method, url)
	if !ok {
		if !i.allowlist.Allowed(url) {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, i.unmatched(method, url, start)
		}
		i.log.Debug("passing request through", "method", method, "url", url)
		resp, err := i.transport.RoundTrip(req)
		entry := &requestlog.Entry{Timestamp: start, Method: method, URL: url, Outcome: requestlog.OutcomePassthrough}
		if resp != nil {
			entry.ResponseStatus = resp.StatusCode
		}
		i.record(entry, err)
		return resp, err
	}

	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			desc.Body = string(data)
		}
	}

	cr := i.mocked(res, desc, start, nil)
	proj, err := cr.Wait(req.Context())
	if err != nil {
		return nil, err
	}
	return proj.HTTPResponse(req), nil
}

// invoke runs the endpoint handler. The call count is reserved before the
// handler runs and the call is recorded once it finishes, even by panicking.
// A panic reaches the caller as ErrHandlerPanic.
func (i *Interceptor) invoke(res *matching.Result, desc *mock.Request) (reply mock.Reply, meta mock.Meta, err error) {
	ep := res.Endpoint
	method, url := desc.MethodName(), desc.FullURL()
	ctx := BuildContext(desc, res.Params)
	meta = ep.Reserve()

	i.log.Debug("request matched",
		"method", method, "url", url, "endpoint", ep.String(), "callCount", meta.CallCount)

	defer func() {
		ep.Record(registry.Call{Index: meta.CallCount, Method: method, URL: url, Context: ctx})
		if r := recover(); r != nil {
			reply, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	v, err := ep.Handler(ctx, meta)
	if err != nil {
		return nil, meta, err
	}
	if v == nil {
		return mock.Plain{}, meta, nil
	}
	return v, meta, nil
}

func (i *Interceptor) unmatched(method, url string, start time.Time) error {
	uerr := &UnmatchedError{
		Method:       method,
		URL:          matching.DecodeURI(url),
		Alternatives: i.matcher.CandidatesForURL(url),
		NearMisses:   i.matcher.NearMisses(method, url),
		CallSite:     captureCallSite(),
	}
	i.log.Warn("request not mocked",
		"method", method, "url", uerr.URL, "alternatives", uerr.Alternatives, "callSite", uerr.CallSite.String())
	i.record(&requestlog.Entry{
		Timestamp:    start,
		Method:       method,
		URL:          url,
		Outcome:      requestlog.OutcomeUnmatched,
		Alternatives: uerr.Alternatives,
	}, uerr)
	return uerr
}

func (i *Interceptor) finisher(entry *requestlog.Entry) func(*Projection, error) {
	return func(proj *Projection, err error) {
		if proj != nil {
			entry.ResponseStatus = proj.StatusCode
		}
		i.record(entry, err)
	}
}

func (i *Interceptor) record(entry *requestlog.Entry, err error) {
	if i.requestLog == nil {
		return
	}
	entry.DurationMs = time.Since(entry.Timestamp).Milliseconds()
	if err != nil {
		entry.Error = err.Error()
	}
	i.requestLog.Log(entry)
}

// outgoingRequest builds the real request for a passthrough descriptor.
// Descriptors that came from an *http.Request reuse it unchanged.
func outgoingRequest(desc *mock.Request, method, url string) (*http.Request, error) {
	if desc.Raw != nil {
		return desc.Raw, nil
	}
	var body io.Reader
	if desc.Body != nil {
		data, _, err := mock.Serialize(desc.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range FlattenHeaders(desc.Headers) {
		if k == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
	return req, nil
}
