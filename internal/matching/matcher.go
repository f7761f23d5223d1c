package matching

import (
	"regexp"
	"strings"

	"github.com/getmockd/netmock/pkg/registry"
)

// Result is a successful resolution.
type Result struct {
	Endpoint *registry.Endpoint

	// URL is the decoded URL the pattern was matched against.
	URL string

	// Params holds the pattern's named capture groups.
	Params map[string]string
}

// Matcher resolves requests against a registry.
type Matcher struct {
	registry *registry.Registry
}

// New creates a matcher over reg.
func New(reg *registry.Registry) *Matcher {
	return &Matcher{registry: reg}
}

// Resolve returns the first registered endpoint matching method and url.
func (m *Matcher) Resolve(method, url string) (*Result, bool) {
	decoded := DecodeURI(url)
	for _, ep := range m.registry.Endpoints() {
		if !MatchMethod(ep.Method, method) {
			continue
		}
		params, ok := MatchPattern(ep.Pattern, decoded)
		if !ok {
			continue
		}
		return &Result{Endpoint: ep, URL: decoded, Params: params}, true
	}
	return nil, false
}

// MatchMethod checks if the request method matches.
func MatchMethod(expected, actual string) bool {
	if actual == "" {
		actual = "GET"
	}
	return strings.EqualFold(expected, actual)
}

// MatchPattern matches url against an anchored pattern and returns its named
// capture groups. The match must span the whole URL.
func MatchPattern(re *regexp.Regexp, url string) (map[string]string, bool) {
	if re == nil {
		return nil, false
	}
	loc := re.FindStringSubmatchIndex(url)
	if loc == nil || loc[0] != 0 || loc[1] != len(url) {
		return nil, false
	}

	captures := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || loc[2*i] < 0 {
			continue
		}
		captures[name] = url[loc[2*i]:loc[2*i+1]]
	}
	return captures, true
}
