// Package registry stores mocked endpoints and their call history.
//
// An Endpoint pairs an HTTP method with a URL pattern (a regular expression,
// matched against the whole URL) and a handler. Endpoints keep registration
// order; when two endpoints share a method and pattern, the earlier one
// shadows the later one.
//
// Call history is append-only. An invocation first reserves its slot with
// Endpoint.Reserve, which yields the call count the handler sees, and is
// recorded with Endpoint.Record once the handler has returned.
//
// Registries are safe for concurrent use.
package registry
