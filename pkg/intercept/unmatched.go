package intercept

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/getmockd/netmock/internal/matching"
)

// ErrUnmatched is wrapped by every *UnmatchedError.
var ErrUnmatched = errors.New("endpoint not mocked")

// UnmatchedError reports a request that matched no endpoint and was not
// allowed through to the network.
type UnmatchedError struct {
	Method string
	URL    string

	// Alternatives lists the methods registered for URL, upper-cased.
	Alternatives []string

	// NearMisses names each endpoint that matched URL under another method.
	NearMisses []matching.NearMiss

	// CallSite is where the request was issued from.
	CallSite CallSite
}

func (e *UnmatchedError) Error() string {
	msg := fmt.Sprintf("Endpoint not mocked: %s %s", e.Method, e.URL)
	if len(e.Alternatives) > 0 {
		msg += fmt.Sprintf("\nThe request is of type %s but netmock could only find mocks for %s",
			e.Method, strings.Join(e.Alternatives, ","))
	}
	return msg
}

func (e *UnmatchedError) Unwrap() error {
	return ErrUnmatched
}

// CallSite is a source location.
type CallSite struct {
	Function string `json:"function,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

func (c CallSite) String() string {
	if c.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d (%s)", c.File, c.Line, c.Function)
}

// Frames from these packages are never reported as the call site.
var internalPrefixes = []string{
	"github.com/getmockd/netmock/pkg/intercept.",
	"github.com/getmockd/netmock/pkg/testing.(*",
	"net/http.",
	"runtime.",
}

func captureCallSite() CallSite {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isInternalFrame(frame.Function) {
			return CallSite{Function: frame.Function, File: frame.File, Line: frame.Line}
		}
		if !more {
			return CallSite{}
		}
	}
}

func isInternalFrame(fn string) bool {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}
