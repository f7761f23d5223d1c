package intercept

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/netmock/pkg/mock"
)

func wait(t *testing.T, c *ClientRequest) (*Projection, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Wait(ctx)
}

func TestProject(t *testing.T) {
	tests := []struct {
		name       string
		reply      mock.Reply
		wantStatus int
		wantText   string
		wantBody   string
		wantType   string
		wantDelay  time.Duration
	}{
		{"plain object", mock.Plain{Value: map[string]int{"a": 1}}, 200, "OK", `{"a":1}`, "application/json", 0},
		{"plain string", mock.Plain{Value: "hello"}, 200, "OK", "hello", "", 0},
		{"plain number", mock.Plain{Value: 12}, 200, "OK", "12", "", 0},
		{"plain nil", mock.Plain{}, 200, "OK", "", "", 0},
		{"nil reply", nil, 200, "OK", "", "", 0},
		{"typed", mock.Typed{Response: mock.Response{
			Status:     404,
			StatusText: "Nope",
			Delay:      time.Second,
			Body:       []string{"x"},
		}}, 404, "Nope", `["x"]`, "application/json", time.Second},
		{"typed header override", mock.Typed{Response: mock.Response{
			Headers: map[string]string{"content-type": "application/vnd.api+json"},
			Body:    map[string]any{},
		}}, 200, "OK", `{}`, "application/vnd.api+json", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, delay, err := project(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, proj.StatusCode)
			assert.Equal(t, tt.wantText, proj.Status)
			assert.Equal(t, "HTTP/1.1", proj.Proto)
			assert.Equal(t, tt.wantBody, string(proj.Body))
			assert.Equal(t, tt.wantType, proj.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}

func TestProject_SerializeError(t *testing.T) {
	_, _, err := project(mock.Plain{Value: map[string]any{"fn": func() {}}})
	assert.ErrorIs(t, err, ErrSerialize)
}

func TestSettle(t *testing.T) {
	var calls int
	nested := mock.Pending{Resolve: func() (mock.Reply, error) {
		calls++
		return mock.Pending{Resolve: func() (mock.Reply, error) {
			calls++
			return mock.Plain{Value: "done"}, nil
		}}, nil
	}}

	got, err := settle(nested)
	require.NoError(t, err)
	assert.Equal(t, mock.Plain{Value: "done"}, got)
	assert.Equal(t, 2, calls)

	_, err = settle(mock.Pending{})
	assert.ErrorIs(t, err, ErrInvalidReply)

	boom := errors.New("boom")
	_, err = settle(mock.Pending{Resolve: func() (mock.Reply, error) { return nil, boom }})
	assert.Same(t, boom, err)
}

func TestClientRequest_DelayObservedByAllObservers(t *testing.T) {
	var resolved atomic.Int32
	reply := mock.Pending{Resolve: func() (mock.Reply, error) {
		resolved.Add(1)
		return mock.Typed{Response: mock.Response{Status: 201, Delay: 50 * time.Millisecond, Body: "ok"}}, nil
	}}

	start := time.Now()
	var (
		mu           sync.Mutex
		callbackAt   time.Duration
		responseAt   time.Duration
		callbackHits int
		events       []string
	)

	c := newClientRequest(replyResolver(reply, nil), func(p *Projection, err error) {
		mu.Lock()
		defer mu.Unlock()
		callbackHits++
		callbackAt = time.Since(start)
		assert.NoError(t, err)
		assert.Equal(t, 201, p.StatusCode)
	}, nil)

	c.On(EventResponse, func(v any) {
		mu.Lock()
		defer mu.Unlock()
		responseAt = time.Since(start)
		events = append(events, EventResponse)
		assert.Equal(t, 201, v.(*Projection).StatusCode)
	})
	c.On(EventData, func(v any) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, EventData)
		assert.Equal(t, "ok", string(v.([]byte)))
	})
	c.On(EventEnd, func(any) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, EventEnd)
	})

	proj, err := wait(t, c)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(proj.Body))

	// Waiting again returns the same cached projection.
	again, err := wait(t, c)
	require.NoError(t, err)
	assert.Same(t, proj, again)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, callbackAt, 50*time.Millisecond)
	assert.GreaterOrEqual(t, responseAt, 50*time.Millisecond)
	assert.Equal(t, 1, callbackHits)
	assert.Equal(t, []string{EventResponse, EventData, EventEnd}, events)
	assert.Equal(t, int32(1), resolved.Load())
}

func TestClientRequest_LateListenerFiresImmediately(t *testing.T) {
	c := newClientRequest(replyResolver(mock.Plain{Value: "late"}, nil), nil, nil)
	_, err := wait(t, c)
	require.NoError(t, err)

	var got any
	c.On(EventData, func(v any) { got = v })
	assert.Equal(t, []byte("late"), got)
}

func TestClientRequest_InertEvents(t *testing.T) {
	c := newClientRequest(replyResolver(mock.Plain{Value: 1}, nil), nil, nil)

	var fired atomic.Int32
	for _, event := range []string{"abort", "error", "connect", "socket", "timeout", "whatever"} {
		c.On(event, func(any) { fired.Add(1) })
	}
	_, err := wait(t, c)
	require.NoError(t, err)

	c.On("error", func(any) { fired.Add(1) })
	assert.Equal(t, int32(0), fired.Load())
}

func TestClientRequest_HandlerErrorDelivered(t *testing.T) {
	boom := errors.New("handler failed")

	var cbErr error
	c := newClientRequest(replyResolver(nil, boom), func(_ *Projection, err error) { cbErr = err }, nil)

	var fired bool
	c.On(EventResponse, func(any) { fired = true })

	proj, err := wait(t, c)
	assert.Nil(t, proj)
	assert.Same(t, boom, err)
	assert.Same(t, boom, cbErr)
	assert.False(t, fired)
}

func TestClientRequest_WaitContextDoesNotAbort(t *testing.T) {
	reply := mock.Typed{Response: mock.Response{Delay: 50 * time.Millisecond, Body: "x"}}
	c := newClientRequest(replyResolver(reply, nil), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	proj, err := wait(t, c)
	require.NoError(t, err)
	assert.Equal(t, "x", string(proj.Body))

	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestClientRequest_IndependentDelays(t *testing.T) {
	delays := []time.Duration{80 * time.Millisecond, 10 * time.Millisecond, 40 * time.Millisecond}
	start := time.Now()

	var wg sync.WaitGroup
	finished := make([]time.Duration, len(delays))
	for i, d := range delays {
		c := newClientRequest(replyResolver(mock.Typed{Response: mock.Response{Delay: d}}, nil), nil, nil)
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := wait(t, c)
			assert.NoError(t, err)
			finished[i] = time.Since(start)
		}()
	}
	wg.Wait()

	for i, d := range delays {
		assert.GreaterOrEqual(t, finished[i], d)
	}
	assert.Less(t, finished[1], finished[0])
}

func TestClientRequest_LifecycleNoops(t *testing.T) {
	c := newClientRequest(replyResolver(mock.Plain{Value: "ok"}, nil), nil, nil)

	n, err := c.Write([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Same(t, c, c.End())
	assert.Same(t, c, c.Destroy())

	proj, err := wait(t, c)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(proj.Body))
}

func TestClientRequest_OnFinishRunsOnce(t *testing.T) {
	var hits atomic.Int32
	c := newClientRequest(replyResolver(mock.Plain{}, nil), nil, func(*Projection, error) { hits.Add(1) })
	_, err := wait(t, c)
	require.NoError(t, err)

	c.finish(nil, errors.New("ignored"))
	assert.Equal(t, int32(1), hits.Load())

	_, err = wait(t, c)
	assert.NoError(t, err)
}

func TestProjection_HTTPResponse(t *testing.T) {
	proj, _, err := project(mock.Typed{Response: mock.Response{
		Status:  202,
		Headers: map[string]string{"X-Id": "7"},
		Body:    map[string]int{"a": 1},
	}})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/", nil)
	resp := proj.HTTPResponse(req)
	defer resp.Body.Close()

	assert.Equal(t, "202 Accepted", resp.Status)
	assert.Equal(t, 202, resp.StatusCode)
	assert.Equal(t, "7", resp.Header.Get("X-Id"))
	assert.Equal(t, int64(7), resp.ContentLength)
	assert.Same(t, req, resp.Request)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", statePending.String())
	assert.Equal(t, "emitted", stateEmitted.String())
	assert.Equal(t, "unknown", state(99).String())
}
