// Package requestlog records every request that passes through a netmock
// interceptor, for inspection when a test fails.
//
// It is distinct from endpoint call history (package registry): call history
// belongs to one endpoint and is what handlers and assertions see; the
// request log is global and also captures passthrough and unmatched
// requests.
//
//	store := requestlog.NewMemoryStore(500)
//	icpt := intercept.New(intercept.Config{Registry: reg, RequestLog: store})
//	...
//	for _, e := range store.List(&requestlog.Filter{Outcome: requestlog.OutcomeUnmatched}) {
//	    t.Logf("unmatched: %s %s", e.Method, e.URL)
//	}
package requestlog
