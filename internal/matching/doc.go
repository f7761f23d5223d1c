// Package matching resolves outgoing requests to registered endpoints.
//
// Matching is deliberately simple and deterministic:
//
//   - the method is compared case-insensitively
//   - the URL is decoded the way a browser's decodeURI would, then matched
//     against the endpoint pattern as a whole (no prefix or partial matches)
//   - when several endpoints match, the earliest registered one wins
//
// When nothing matches, NearMisses and CandidatesForURL report endpoints
// registered for the same URL under other methods, for use in diagnostics.
package matching
