package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/netmock/pkg/logging"
	"github.com/getmockd/netmock/pkg/mock"
	"github.com/getmockd/netmock/pkg/passthrough"
	"github.com/getmockd/netmock/pkg/registry"
)

// ErrNoVariant is returned by a static endpoint when no variant's condition
// holds for the request.
var ErrNoVariant = errors.New("no mock condition matched")

type variant struct {
	label     string
	condition *vm.Program
	response  mock.Response
}

// Apply registers the static mocks into reg. Mocks sharing a method and
// pattern are grouped into one endpoint, in file order.
func (s *Settings) Apply(reg *registry.Registry) ([]*registry.Endpoint, error) {
	type group struct {
		method, pattern string
		variants        []variant
	}
	var groups []*group
	index := make(map[string]*group)

	for i := range s.Mocks {
		m := &s.Mocks[i]
		resp, err := m.Response.ToResponse()
		if err != nil {
			return nil, fmt.Errorf("mocks[%d]: %w", i, err)
		}
		v := variant{label: m.Label(), response: resp}
		if m.When != "" {
			if v.condition, err = compileCondition(m.When); err != nil {
				return nil, fmt.Errorf("mocks[%d]: %w", i, err)
			}
		}

		key := m.MethodName() + " " + m.Pattern()
		g, ok := index[key]
		if !ok {
			g = &group{method: m.MethodName(), pattern: m.Pattern()}
			index[key] = g
			groups = append(groups, g)
		}
		g.variants = append(g.variants, v)
	}

	endpoints := make([]*registry.Endpoint, 0, len(groups))
	for _, g := range groups {
		ep, err := reg.Register(g.method, g.pattern, variantHandler(g.variants))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", g.method, g.pattern, err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

func variantHandler(variants []variant) mock.Handler {
	return func(ctx *mock.Context, meta mock.Meta) (mock.Reply, error) {
		env := newConditionEnv(ctx, meta)
		for _, v := range variants {
			if v.condition != nil {
				ok, err := evalCondition(v.condition, env)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", v.label, err)
				}
				if !ok {
					continue
				}
			}
			return mock.Typed{Response: v.response}, nil
		}
		return nil, ErrNoVariant
	}
}

// Allowlist builds the passthrough allowlist.
func (s *Settings) Allowlist() (*passthrough.Allowlist, error) {
	p := s.Passthrough
	a := passthrough.New()
	if p.All {
		a.AllowAll()
	}
	if err := a.AllowURL(p.URLs...); err != nil {
		return nil, err
	}
	a.AllowHost(p.Hosts...)
	for _, src := range p.Patterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("invalid passthrough pattern %q: %w", src, err)
		}
		a.AllowRegexp(re)
	}
	if err := a.Exclude(p.Exclude...); err != nil {
		return nil, err
	}
	return a, nil
}

// LoggingConfig converts the logging settings. Output defaults to stderr.
func (s *Settings) LoggingConfig(output io.Writer) logging.Config {
	cfg := logging.DefaultConfig()
	if s.Logging.Level != "" {
		cfg.Level = logging.ParseLevel(s.Logging.Level)
	}
	if s.Logging.Format != "" {
		cfg.Format = logging.ParseFormat(s.Logging.Format)
	}
	cfg.AddSource = s.Logging.AddSource
	if output == nil {
		output = os.Stderr
	}
	cfg.Output = output
	return cfg
}

// Logger builds a logger from the logging settings.
func (s *Settings) Logger(output io.Writer) *slog.Logger {
	return logging.New(s.LoggingConfig(output))
}
