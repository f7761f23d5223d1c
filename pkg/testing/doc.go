// Package testing provides a testing SDK for using netmock in Go tests.
//
// It bundles a registry, an interceptor and a request log, and offers a
// fluent builder for registering mocks:
//
//	func TestFetchUser(t *testing.T) {
//	    nm := nmtesting.New(t)
//
//	    nm.Mock("GET", "https://api.example.com/users/:id").
//	        WithStatus(200).
//	        WithJSON(map[string]string{"id": "123", "name": "Test User"}).
//	        Respond()
//
//	    client := nm.Client()
//	    resp, err := client.Get("https://api.example.com/users/123")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer resp.Body.Close()
//
//	    nm.AssertCalled(t, "GET", "https://api.example.com/users/:id")
//	}
//
// # Patterns
//
// Mock takes a URL template: ":name" captures one path segment and "*"
// matches anything. Any query string is accepted unless the template has
// its own. MockRegexp takes a regular expression instead; it must match the
// whole decoded URL.
//
// # Replies
//
//	// Plain value: strings are sent raw, structs and maps as JSON.
//	nm.Mock("GET", "https://api.test/ping").Reply("pong")
//
//	// Computed per request.
//	nm.Mock("GET", "https://api.test/items/:id").ReplyFunc(
//	    func(ctx *mock.Context, meta mock.Meta) (mock.Reply, error) {
//	        return mock.Plain{Value: map[string]any{"id": ctx.Params["id"], "call": meta.CallCount}}, nil
//	    })
//
//	// Status, headers and delay.
//	nm.Mock("POST", "https://api.test/items").
//	    WithStatus(201).
//	    WithHeader("Location", "/items/1").
//	    WithDelay("50ms").
//	    Respond()
//
// # Real network
//
// Unmatched requests fail with *intercept.UnmatchedError. AllowRealNetwork
// lets chosen URLs through:
//
//	nm.AllowRealNetwork("localhost", "https://*.internal/**")
//
// Everything is reset when the test ends.
package testing
