package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	stdtesting "testing"
	"time"

	"github.com/getmockd/netmock/pkg/intercept"
	"github.com/getmockd/netmock/pkg/mock"
)

// recorder captures assertion failures without failing the real test.
type recorder struct {
	stdtesting.TB
	errors []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func get(t *stdtesting.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestNew(t *stdtesting.T) {
	nm := New(t)
	if nm == nil {
		t.Fatal("New() returned nil")
	}
	if nm.t != t {
		t.Error("New() did not set testing.TB")
	}
	if nm.Interceptor().Registry().Len() != 0 {
		t.Error("expected empty registry")
	}
}

func TestMock_Reply(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("GET", "https://api.test/ping").Reply("pong")
	nm.Mock("GET", "https://api.test/obj").Reply(map[string]int{"a": 1})

	resp, body := get(t, nm.Client(), "https://api.test/ping?x=1")
	if resp.StatusCode != 200 || body != "pong" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}

	resp, body = get(t, nm.Client(), "https://api.test/obj")
	if body != `{"a":1}` {
		t.Errorf("Expected JSON body, got %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
}

func TestMock_Respond(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("POST", "https://api.test/items").
		WithStatus(201).
		WithStatusText("Made It").
		WithHeader("Location", "/items/1").
		WithDelay("20ms").
		WithJSON(map[string]string{"id": "1"}).
		Respond()

	start := time.Now()
	resp, err := nm.Client().Post("https://api.test/items", "application/json", strings.NewReader(`{"name":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected delay of at least 20ms, got %v", elapsed)
	}
	if resp.Status != "201 Made It" {
		t.Errorf("Expected status line %q, got %q", "201 Made It", resp.Status)
	}
	if loc := resp.Header.Get("Location"); loc != "/items/1" {
		t.Errorf("Expected Location header, got %q", loc)
	}

	call := nm.LastCall("POST", "https://api.test/items")
	AssertJSONBody(t, call, map[string]string{"name": "x"})
	AssertHeader(t, call, "content-type", "application/json")
}

func TestMock_ReplyFunc(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("GET", "https://api.test/users/:id").ReplyFunc(func(ctx *mock.Context, meta mock.Meta) (mock.Reply, error) {
		return mock.Plain{Value: fmt.Sprintf("%s#%d", ctx.Params["id"], meta.CallCount)}, nil
	})

	for i, want := range []string{"7#0", "8#1", "9#2"} {
		_, body := get(t, nm.Client(), fmt.Sprintf("https://api.test/users/%d?verbose=1", 7+i))
		if body != want {
			t.Errorf("call %d: expected %q, got %q", i, want, body)
		}
	}

	nm.AssertCalledTimes(t, "get", "https://api.test/users/:id", 3)
	AssertQueryParam(t, nm.LastCall("GET", "https://api.test/users/:id"), "verbose", "1")
}

func TestMockRegexp(t *stdtesting.T) {
	nm := New(t)
	nm.MockRegexp("DELETE", `https://api\.test/items/\d+`).RespondNoContent()

	req, _ := http.NewRequest(http.MethodDelete, "https://api.test/items/12", nil)
	resp, err := nm.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}
	nm.AssertCalled(t, "DELETE", `https://api\.test/items/\d+`)
}

func TestBuilder_Errors(t *stdtesting.T) {
	nm := New(t)
	b := nm.Mock("GET", "https://api.test/").WithDelay("soon")
	if b.Err() == nil {
		t.Error("Expected error for invalid delay")
	}

	b = nm.Mock("GET", "https://api.test/").WithJSON(map[string]any{"ch": make(chan int)})
	if b.Err() == nil {
		t.Error("Expected error for unencodable JSON")
	}
}

func TestUnmatched(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("POST", "https://api.test/orders").Reply("ok")

	_, err := nm.Client().Get("https://api.test/orders")
	if err == nil {
		t.Fatal("Expected error for unmatched request")
	}
	var uerr *intercept.UnmatchedError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected *intercept.UnmatchedError, got %T", err)
	}
	if !strings.Contains(uerr.Error(), "could only find mocks for POST") {
		t.Errorf("Unexpected message: %s", uerr.Error())
	}

	rec := &recorder{TB: t}
	nm.AssertNoUnmatched(rec)
	if len(rec.errors) != 1 {
		t.Errorf("Expected one unmatched failure, got %v", rec.errors)
	}
}

func TestAllowRealNetwork(t *stdtesting.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("real"))
	}))
	defer srv.Close()

	nm := New(t, WithTransport(srv.Client().Transport))
	nm.AllowRealNetwork("127.0.0.1")

	_, body := get(t, nm.Client(), srv.URL+"/anything")
	if body != "real" {
		t.Errorf("Expected real response, got %q", body)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("Expected real server to be hit once, got %d", n)
	}

	entries := nm.Requests()
	if len(entries) != 1 || entries[0].Outcome != "passthrough" {
		t.Errorf("Expected one passthrough entry, got %+v", entries)
	}
}

func TestRequest_EventAPI(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("GET", "https://api.test/events").Reply(map[string]int{"a": 1})

	done := make(chan string, 1)
	c, err := nm.Request(&mock.Request{Host: "api.test", Protocol: "https:", Path: "/events"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.On("data", func(v any) { done <- string(v.([]byte)) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := c.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if got := <-done; got != `{"a":1}` {
		t.Errorf("Expected JSON data, got %q", got)
	}
}

func TestAssertions_Failures(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("GET", "https://api.test/a").Reply("a")

	rec := &recorder{TB: t}
	nm.AssertCalled(rec, "GET", "https://api.test/a")
	nm.AssertCalledTimes(rec, "GET", "https://api.test/a", 2)
	nm.AssertNotCalled(rec, "GET", "https://api.test/a")
	AssertHeader(rec, nil, "X", "y")

	if len(rec.errors) != 3 {
		t.Fatalf("Expected 3 failures, got %d: %v", len(rec.errors), rec.errors)
	}
	if !strings.Contains(rec.errors[0], "to be called, but it was not called") {
		t.Errorf("Unexpected message: %s", rec.errors[0])
	}

	_, _ = get(t, nm.Client(), "https://api.test/a")
	rec = &recorder{TB: t}
	nm.AssertCalled(rec, "GET", "https://api.test/a")
	nm.AssertNotCalled(rec, "GET", "https://api.test/a")
	if len(rec.errors) != 1 {
		t.Errorf("Expected 1 failure, got %v", rec.errors)
	}
}

func TestReset(t *stdtesting.T) {
	nm := New(t)
	nm.Mock("GET", "https://api.test/a").Reply("a")
	nm.AllowRealNetwork()
	_, _ = get(t, nm.Client(), "https://api.test/a")

	nm.Reset()

	if n := nm.Interceptor().Registry().Len(); n != 0 {
		t.Errorf("Expected empty registry, got %d", n)
	}
	if n := len(nm.Requests()); n != 0 {
		t.Errorf("Expected empty request log, got %d", n)
	}
	if calls := nm.Calls("GET", "https://api.test/a"); len(calls) != 0 {
		t.Errorf("Expected no calls, got %d", len(calls))
	}
	if _, err := nm.Client().Get("https://api.test/a"); err == nil {
		t.Error("Expected unmatched error after reset")
	}
}

func TestWithSettings(t *stdtesting.T) {
	dir := t.TempDir()
	settings := `
passthrough:
  hosts: ["127.0.0.1"]
mocks:
  - method: GET
    path: https://api.test/users/:id
    when: params.id == "1"
    response:
      body: {name: ada}
  - method: GET
    path: https://api.test/users/:id
    response:
      status: 404
`
	if err := os.WriteFile(filepath.Join(dir, "netmock.yaml"), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}

	nm := New(t, WithSettings(filepath.Join(dir, "*.yaml")))

	resp, body := get(t, nm.Client(), "https://api.test/users/1")
	if resp.StatusCode != 200 || body != `{"name":"ada"}` {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
	resp, _ = get(t, nm.Client(), "https://api.test/users/2")
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	nm.AssertCalledTimes(t, "GET", "https://api.test/users/:id", 2)
}
