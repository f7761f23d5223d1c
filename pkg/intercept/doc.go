// Package intercept resolves outgoing requests against registered mock
// endpoints and synthesizes responses for them.
//
// An Interceptor is used two ways. As an http.RoundTripper it is injected
// into an http.Client:
//
//	reg := registry.New()
//	reg.MustRegister("GET", `https://api\.test/users/(?P<id>\d+)`, mock.Static(user))
//
//	client := &http.Client{Transport: intercept.New(intercept.Config{Registry: reg})}
//
// Through Request it offers an event/callback API that mirrors a client
// request object: the returned ClientRequest emits "response", "data" and
// "end" once the reply is resolved and its delay has elapsed, and invokes
// the optional completion callback exactly once.
//
// Requests that match no endpoint are forwarded to the real transport when
// the passthrough allowlist permits the URL, and fail with an
// *UnmatchedError otherwise.
package intercept
