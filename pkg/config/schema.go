package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed settings.schema.json
var settingsSchema []byte

const schemaURL = "settings.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// SchemaJSON returns the JSON Schema settings files are validated against.
func SchemaJSON() []byte {
	out := make([]byte, len(settingsSchema))
	copy(out, settingsSchema)
	return out
}

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(settingsSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// validateSchema checks a JSON-decoded document against the settings
// schema. Violations are reported one per line, wrapped in ErrSchema.
func validateSchema(doc any) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	var msgs []string
	collectSchemaErrors(verr, &msgs)
	sort.Strings(msgs)
	return fmt.Errorf("%w:\n  %s", ErrSchema, strings.Join(msgs, "\n  "))
}

func collectSchemaErrors(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, loc+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}
