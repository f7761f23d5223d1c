package matching

import (
	"fmt"
	"strings"
)

// NearMiss is an endpoint whose pattern matched the URL but whose method did
// not.
type NearMiss struct {
	EndpointID string `json:"endpointId"`
	Method     string `json:"method"`
	Pattern    string `json:"pattern"`
	Reason     string `json:"reason"`
}

// NearMisses returns every endpoint registered for url under a method other
// than method, in registration order.
func (m *Matcher) NearMisses(method, url string) []NearMiss {
	decoded := DecodeURI(url)
	var out []NearMiss
	for _, ep := range m.registry.ForURL(decoded) {
		if MatchMethod(ep.Method, method) {
			continue
		}
		out = append(out, NearMiss{
			EndpointID: ep.ID,
			Method:     ep.Method,
			Pattern:    ep.Source,
			Reason:     fmt.Sprintf("method %s does not match %s", strings.ToUpper(method), ep.Method),
		})
	}
	return out
}

// CandidatesForURL returns the distinct methods registered for url, ignoring
// the request method, upper-cased and in registration order.
func (m *Matcher) CandidatesForURL(url string) []string {
	decoded := DecodeURI(url)
	seen := make(map[string]struct{})
	var methods []string
	for _, ep := range m.registry.ForURL(decoded) {
		method := strings.ToUpper(ep.Method)
		if _, dup := seen[method]; dup {
			continue
		}
		seen[method] = struct{}{}
		methods = append(methods, method)
	}
	return methods
}
