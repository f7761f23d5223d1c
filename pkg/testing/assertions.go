package testing

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/getmockd/netmock/pkg/registry"
	"github.com/getmockd/netmock/pkg/requestlog"
)

// AssertCalled asserts that the mock for method and pattern was called.
func (nm *Netmock) AssertCalled(t testing.TB, method, pattern string) {
	t.Helper()

	if len(nm.Calls(method, pattern)) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", strings.ToUpper(method), pattern)
	}
}

// AssertCalledTimes asserts the exact number of calls.
func (nm *Netmock) AssertCalledTimes(t testing.TB, method, pattern string, times int) {
	t.Helper()

	if n := len(nm.Calls(method, pattern)); n != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			strings.ToUpper(method), pattern, times, n)
	}
}

// AssertNotCalled asserts that the mock was never called.
func (nm *Netmock) AssertNotCalled(t testing.TB, method, pattern string) {
	t.Helper()

	if n := len(nm.Calls(method, pattern)); n > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			strings.ToUpper(method), pattern, n)
	}
}

// AssertNoUnmatched asserts that every intercepted request was either
// mocked or passed through.
func (nm *Netmock) AssertNoUnmatched(t testing.TB) {
	t.Helper()

	for _, e := range nm.requests.List(&requestlog.Filter{Outcome: requestlog.OutcomeUnmatched}) {
		t.Errorf("unmatched request: %s %s", e.Method, e.URL)
	}
}

// LastCall returns the most recent call of the mock, or nil.
func (nm *Netmock) LastCall(method, pattern string) *registry.Call {
	calls := nm.Calls(method, pattern)
	if len(calls) == 0 {
		return nil
	}
	return &calls[len(calls)-1]
}

// AssertHeader asserts that a call carried the header with the expected
// value. Header names are compared case-insensitively.
func AssertHeader(t testing.TB, call *registry.Call, key, expected string) {
	t.Helper()

	if call == nil || call.Context == nil {
		t.Errorf("no call to check header %q on", key)
		return
	}

	actual, ok := call.Context.Headers[key]
	if !ok {
		for k, v := range call.Context.Headers {
			if strings.EqualFold(k, key) {
				actual = v
				ok = true
				break
			}
		}
	}
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertQueryParam asserts that a call carried the query parameter.
func AssertQueryParam(t testing.TB, call *registry.Call, key, expected string) {
	t.Helper()

	if call == nil || call.Context == nil {
		t.Errorf("no call to check query parameter %q on", key)
		return
	}

	actual, ok := call.Context.Query[key]
	if !ok {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertJSONBody asserts that a call's body matches the expected JSON.
// The expected value can be a string, []byte, or any value that will be
// JSON encoded.
func AssertJSONBody(t testing.TB, call *registry.Call, expected any) {
	t.Helper()

	if call == nil || call.Context == nil {
		t.Errorf("no call to check body on")
		return
	}

	expectedJSON, err := normalizeJSON(expected)
	if err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	body := call.Context.BodyString()
	actualJSON, err := normalizeJSON(body)
	if err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

func normalizeJSON(v any) (any, error) {
	var data []byte
	switch b := v.(type) {
	case string:
		data = []byte(b)
	case []byte:
		data = b
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
