package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/getmockd/netmock/pkg/mock"
	"github.com/getmockd/netmock/pkg/registry"
)

// Settings is the content of one or more settings files.
type Settings struct {
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Logging     LoggingSettings     `json:"logging,omitempty" yaml:"logging,omitempty"`
	Passthrough PassthroughSettings `json:"passthrough,omitempty" yaml:"passthrough,omitempty"`
	Mocks       []MockDefinition    `json:"mocks,omitempty" yaml:"mocks,omitempty"`
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	Level     string `json:"level,omitempty" yaml:"level,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	AddSource bool   `json:"addSource,omitempty" yaml:"addSource,omitempty"`
}

// PassthroughSettings lists which unmatched URLs may reach the network.
type PassthroughSettings struct {
	// All lets every URL through except excluded ones.
	All bool `json:"all,omitempty" yaml:"all,omitempty"`

	// URLs are doublestar globs matched against the URL without query.
	URLs []string `json:"urls,omitempty" yaml:"urls,omitempty"`

	// Hosts are host globs such as "*.example.com".
	Hosts []string `json:"hosts,omitempty" yaml:"hosts,omitempty"`

	// Patterns are regular expressions matched against the full URL.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`

	// Exclude globs always win.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// MockDefinition is a static mock. Exactly one of URL and Path is set.
type MockDefinition struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// URL is a regular expression matched against the whole decoded URL.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Path is a URL template with ":name" segments and "*" wildcards.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// When is an optional expr-lang condition over method, url, query,
	// params, headers, body and callCount.
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	Response ResponseDefinition `json:"response" yaml:"response"`
}

// ResponseDefinition describes the reply of a static mock.
type ResponseDefinition struct {
	Status     int               `json:"status,omitempty" yaml:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty" yaml:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Delay is a Go duration string such as "250ms".
	Delay string `json:"delay,omitempty" yaml:"delay,omitempty"`

	Body any `json:"body,omitempty" yaml:"body,omitempty"`
}

// MethodName returns the upper-cased method, defaulting to GET.
func (m *MockDefinition) MethodName() string {
	if m.Method == "" {
		return "GET"
	}
	return strings.ToUpper(m.Method)
}

// Pattern returns the registry pattern source for the mock.
func (m *MockDefinition) Pattern() string {
	if m.URL != "" {
		return m.URL
	}
	return registry.FromTemplate(m.Path)
}

// Label identifies the mock in messages.
func (m *MockDefinition) Label() string {
	if m.Name != "" {
		return m.Name
	}
	if m.URL != "" {
		return m.MethodName() + " " + m.URL
	}
	return m.MethodName() + " " + m.Path
}

// ToResponse converts the definition into a mock response.
func (r *ResponseDefinition) ToResponse() (mock.Response, error) {
	var delay time.Duration
	if r.Delay != "" {
		d, err := time.ParseDuration(r.Delay)
		if err != nil {
			return mock.Response{}, fmt.Errorf("invalid delay %q: %w", r.Delay, err)
		}
		if d < 0 {
			return mock.Response{}, fmt.Errorf("delay %q cannot be negative", r.Delay)
		}
		delay = d
	}
	return mock.Response{
		Status:     r.Status,
		StatusText: r.StatusText,
		Headers:    r.Headers,
		Delay:      delay,
		Body:       r.Body,
	}, nil
}

// Validate checks the parts of the settings the schema cannot express.
func (s *Settings) Validate() error {
	var errs []error
	for _, p := range s.Passthrough.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("passthrough.patterns: %w", err))
		}
	}
	for i := range s.Mocks {
		if err := s.Mocks[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("mocks[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a single mock definition.
func (m *MockDefinition) Validate() error {
	switch {
	case m.URL == "" && m.Path == "":
		return errors.New("one of url or path is required")
	case m.URL != "" && m.Path != "":
		return errors.New("url and path are mutually exclusive")
	}
	if _, err := registry.CompilePattern(m.Pattern()); err != nil {
		return err
	}
	if _, err := m.Response.ToResponse(); err != nil {
		return err
	}
	if m.When != "" {
		if _, err := compileCondition(m.When); err != nil {
			return err
		}
	}
	return nil
}
