package requestlog

import "time"

// Outcome classifies how a request was handled.
type Outcome string

// Outcomes.
const (
	OutcomeMocked      Outcome = "mocked"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeUnmatched   Outcome = "unmatched"
)

// Entry captures one intercepted request and how it ended.
type Entry struct {
	// ID is a unique, time-ordered identifier.
	ID string `json:"id"`

	// Timestamp is when the request was issued.
	Timestamp time.Time `json:"timestamp"`

	Method string `json:"method"`
	URL    string `json:"url"`

	Outcome Outcome `json:"outcome"`

	// EndpointID is the matched endpoint (mocked requests only).
	EndpointID string `json:"endpointId,omitempty"`

	// CallCount is the count the handler was given (mocked requests only).
	CallCount int `json:"callCount,omitempty"`

	// Alternatives lists methods registered for the URL (unmatched only).
	Alternatives []string `json:"alternatives,omitempty"`

	// ResponseStatus is zero when the request failed.
	ResponseStatus int `json:"responseStatus,omitempty"`

	// DurationMs spans issue to final delivery, including any delay.
	DurationMs int64 `json:"durationMs"`

	// Error holds the failure message, if any.
	Error string `json:"error,omitempty"`
}
