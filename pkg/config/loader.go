package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for settings loading.
var (
	ErrFileNotFound     = errors.New("settings file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("settings file is empty")
	ErrSchema           = errors.New("settings do not match schema")
)

// LoadFromFile reads Settings from a JSON or YAML file.
// The format is detected from the extension (.yaml, .yml for YAML,
// otherwise JSON).
func LoadFromFile(path string) (*Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	var settings *Settings
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		settings, err = ParseYAML(data)
	} else {
		settings, err = ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// ParseJSON parses and validates JSON settings.
func ParseJSON(data []byte) (*Settings, error) {
	data = []byte(ExpandEnvVars(string(data)))
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	return decode(data)
}

// ParseYAML parses and validates YAML settings.
func ParseYAML(data []byte) (*Settings, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if doc == nil {
		return nil, ErrEmptyFile
	}
	// Schema validation runs on JSON values, so the YAML document is
	// re-encoded first.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return decode(normalized)
}

func decode(data []byte) (*Settings, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &settings, nil
}

// LoadGlob loads every file matching the doublestar patterns, in sorted
// order, and merges them. It fails with ErrFileNotFound when nothing
// matches.
func LoadGlob(patterns ...string) (*Settings, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, strings.Join(patterns, ", "))
	}

	all := make([]*Settings, 0, len(paths))
	for _, p := range paths {
		s, err := LoadFromFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return Merge(all...), nil
}

// Merge combines settings. Later logging values override earlier ones;
// passthrough rules and mocks accumulate in order.
func Merge(settings ...*Settings) *Settings {
	out := &Settings{}
	for _, s := range settings {
		if s == nil {
			continue
		}
		if s.Version != "" {
			out.Version = s.Version
		}
		if s.Logging.Level != "" {
			out.Logging.Level = s.Logging.Level
		}
		if s.Logging.Format != "" {
			out.Logging.Format = s.Logging.Format
		}
		out.Logging.AddSource = out.Logging.AddSource || s.Logging.AddSource

		p := &out.Passthrough
		p.All = p.All || s.Passthrough.All
		p.URLs = append(p.URLs, s.Passthrough.URLs...)
		p.Hosts = append(p.Hosts, s.Passthrough.Hosts...)
		p.Patterns = append(p.Patterns, s.Passthrough.Patterns...)
		p.Exclude = append(p.Exclude, s.Passthrough.Exclude...)

		out.Mocks = append(out.Mocks, s.Mocks...)
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}
