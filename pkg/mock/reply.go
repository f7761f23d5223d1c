package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Reply is the value a Handler produces. It is implemented only by Plain,
// Typed and Pending.
type Reply interface {
	isReply()
}

// Plain is a bare value sent with status 200.
type Plain struct {
	Value any
}

// Typed is a reply with an explicit status line, headers and delay.
type Typed struct {
	Response Response
}

// Pending is a reply that is not known yet. Resolve runs exactly once, off
// the caller's goroutine. Its result may itself be Pending.
type Pending struct {
	Resolve func() (Reply, error)
}

func (Plain) isReply()   {}
func (Typed) isReply()   {}
func (Pending) isReply() {}

// Response is the full description of a typed reply.
type Response struct {
	// Status is the HTTP status code. Zero means 200.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	// StatusText overrides the reason phrase. Defaults to http.StatusText.
	StatusText string `json:"statusText,omitempty" yaml:"statusText,omitempty"`

	// Headers are merged over the default response headers.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Delay is applied once before the response is delivered.
	Delay time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`

	// Body is serialized with Serialize.
	Body any `json:"body,omitempty" yaml:"body,omitempty"`
}

// StatusCode returns Status, defaulting to 200.
func (r Response) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// Reason returns StatusText, defaulting to the standard reason phrase.
func (r Response) Reason() string {
	if r.StatusText != "" {
		return r.StatusText
	}
	return http.StatusText(r.StatusCode())
}

// AsReply classifies v. Replies pass through unchanged, Response values
// become Typed, and everything else becomes Plain.
func AsReply(v any) Reply {
	switch r := v.(type) {
	case Reply:
		return r
	case Response:
		return Typed{Response: r}
	case *Response:
		if r == nil {
			return Plain{}
		}
		return Typed{Response: *r}
	default:
		return Plain{Value: v}
	}
}

// Respond returns a typed reply with the given status and body.
func Respond(status int, body any) Typed {
	return Typed{Response: Response{Status: status, Body: body}}
}

// Defer returns a pending reply whose value is produced by fn. The value is
// classified with AsReply.
func Defer(fn func() (any, error)) Pending {
	return Pending{Resolve: func() (Reply, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		return AsReply(v), nil
	}}
}

// Serialize renders a reply body. Strings, byte slices, numbers and booleans
// are written as-is; nil is empty; everything else is JSON. The second
// return value reports whether JSON encoding was used.
func Serialize(v any) ([]byte, bool, error) {
	switch b := v.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(b), false, nil
	case []byte:
		return b, false, nil
	case json.RawMessage:
		return b, true, nil
	case bool:
		return []byte(strconv.FormatBool(b)), false, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return []byte(fmt.Sprint(b)), false, nil
	case float32:
		return []byte(strconv.FormatFloat(float64(b), 'f', -1, 32)), false, nil
	case float64:
		return []byte(strconv.FormatFloat(b, 'f', -1, 64)), false, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
