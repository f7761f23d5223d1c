package passthrough

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Allowlist holds passthrough rules. The zero value denies everything; use
// New for clarity. Safe for concurrent use.
type Allowlist struct {
	mu         sync.RWMutex
	all        bool
	urls       []string
	hosts      []string
	patterns   []*regexp.Regexp
	predicates []func(string) bool
	excludes   []string
}

// New creates an allowlist that denies every URL.
func New() *Allowlist {
	return &Allowlist{}
}

// AllowAll lets every URL through except those excluded.
func (a *Allowlist) AllowAll() {
	a.mu.Lock()
	a.all = true
	a.mu.Unlock()
}

// AllowURL adds doublestar URL globs such as "https://api.test/**".
func (a *Allowlist) AllowURL(globs ...string) error {
	if err := validate(globs); err != nil {
		return err
	}
	a.mu.Lock()
	a.urls = append(a.urls, globs...)
	a.mu.Unlock()
	return nil
}

// AllowHost adds host globs such as "*.example.com", "{api,cdn}.test" or
// "localhost". Malformed globs never match.
func (a *Allowlist) AllowHost(globs ...string) {
	a.mu.Lock()
	for _, g := range globs {
		a.hosts = append(a.hosts, strings.ToLower(g))
	}
	a.mu.Unlock()
}

// AllowRegexp adds regular expressions matched against the full URL.
func (a *Allowlist) AllowRegexp(patterns ...*regexp.Regexp) {
	a.mu.Lock()
	a.patterns = append(a.patterns, patterns...)
	a.mu.Unlock()
}

// AllowFunc adds a predicate called with the full URL.
func (a *Allowlist) AllowFunc(fn func(rawURL string) bool) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.predicates = append(a.predicates, fn)
	a.mu.Unlock()
}

// Exclude adds URL globs that are never let through, whatever else allows
// them.
func (a *Allowlist) Exclude(globs ...string) error {
	if err := validate(globs); err != nil {
		return err
	}
	a.mu.Lock()
	a.excludes = append(a.excludes, globs...)
	a.mu.Unlock()
	return nil
}

// Reset removes every rule.
func (a *Allowlist) Reset() {
	a.mu.Lock()
	a.all = false
	a.urls = nil
	a.hosts = nil
	a.patterns = nil
	a.predicates = nil
	a.excludes = nil
	a.mu.Unlock()
}

// Empty reports whether the allowlist has no allow rules.
func (a *Allowlist) Empty() bool {
	if a == nil {
		return true
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.all && len(a.urls) == 0 && len(a.hosts) == 0 &&
		len(a.patterns) == 0 && len(a.predicates) == 0
}

// Allowed reports whether rawURL may go to the real network.
// Precedence:
// 1. If it matches ANY exclude glob → denied
// 2. If AllowAll was called → allowed
// 3. If it matches ANY allow rule → allowed
// 4. Otherwise → denied
func (a *Allowlist) Allowed(rawURL string) bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	target, host := stripURL(rawURL)

	for _, g := range a.excludes {
		if doublestar.MatchUnvalidated(g, target) {
			return false
		}
	}

	if a.all {
		return true
	}

	for _, g := range a.urls {
		if doublestar.MatchUnvalidated(g, target) {
			return true
		}
	}
	for _, g := range a.hosts {
		if ok, _ := doublestar.Match(g, host); ok {
			return true
		}
	}
	for _, re := range a.patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	for _, fn := range a.predicates {
		if fn(rawURL) {
			return true
		}
	}
	return false
}

func validate(globs []string) error {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("invalid passthrough glob %q", g)
		}
	}
	return nil
}

// stripURL drops the query string and fragment and returns the lower-cased
// hostname alongside.
func stripURL(rawURL string) (target, host string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
			return rawURL[:i], ""
		}
		return rawURL, ""
	}
	host = strings.ToLower(u.Hostname())
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), host
}
