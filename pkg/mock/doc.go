// Package mock defines the values exchanged between netmock and the handlers
// that tests register: the outgoing request descriptor, the normalized
// request context handed to a handler, the call metadata, and the Reply a
// handler returns.
//
// A Reply is a closed set of three shapes:
//
//   - Plain wraps any value. Strings, byte slices, numbers and booleans are
//     sent as the raw body; everything else is encoded as JSON. Status 200.
//   - Typed carries a full Response: status, status text, headers, delay and
//     a body serialized by the same rule as Plain.
//   - Pending defers the reply to a computation that runs once, after the
//     handler returns and before anything is emitted to observers.
//
// AsReply classifies an arbitrary handler value into one of the three shapes,
// so the interceptor never has to inspect handler output a second time.
package mock
