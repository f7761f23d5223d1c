package mock

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Context is the normalized view of a matched request handed to a Handler.
// Query, Params and Headers are never nil.
type Context struct {
	// Raw is the descriptor the request was issued with.
	Raw *Request

	// Query holds decoded query parameters. Later duplicates win.
	Query map[string]string

	// Params holds the named capture groups of the endpoint pattern.
	Params map[string]string

	// Headers holds request headers flattened to strings, keyed by canonical
	// header name.
	Headers map[string]string

	// Body is the request body as issued, or nil.
	Body any
}

// Meta carries call metadata for a handler invocation.
type Meta struct {
	// CallCount is the number of earlier invocations of the same endpoint.
	CallCount int
}

// Handler produces the reply for a matched request. A returned error is
// delivered to the caller's completion path unchanged.
type Handler func(ctx *Context, meta Meta) (Reply, error)

// Static returns a handler that always replies with v.
func Static(v any) Handler {
	reply := AsReply(v)
	return func(*Context, Meta) (Reply, error) {
		return reply, nil
	}
}

// BodyString returns the body as text. Non-text bodies are JSON encoded.
func (c *Context) BodyString() string {
	if c == nil || c.Body == nil {
		return ""
	}
	data, _, err := Serialize(c.Body)
	if err != nil {
		return fmt.Sprint(c.Body)
	}
	return string(data)
}

// JSONPath evaluates a JSONPath expression against the request body.
// Text bodies are parsed as JSON first; structured bodies are queried
// directly.
func (c *Context) JSONPath(path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}
	if c == nil || c.Body == nil {
		return nil, nil
	}

	var data any
	switch b := c.Body.(type) {
	case string:
		if err := json.Unmarshal([]byte(b), &data); err != nil {
			return nil, fmt.Errorf("body is not JSON: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(b, &data); err != nil {
			return nil, fmt.Errorf("body is not JSON: %w", err)
		}
	default:
		// Round-trip through JSON so structs are addressable by field tag.
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("body is not JSON encodable: %w", err)
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
	}

	return expr.Get(data), nil
}
