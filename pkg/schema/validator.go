// Package schema validates IR documents against the embedded JSON schemas
// before they are written. Validation failure is fatal for the project: a
// bundle is either fully valid or not emitted at all.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Document kinds accepted by Validate.
const (
	KindProject     = "project"
	KindEnvironment = "environment"
	KindTargets     = "targets"
	KindSuite       = "suite"
	KindTest        = "test"
	KindData        = "data"
)

// ValidationError reports an IR document failing its schema.
type ValidationError struct {
	Kind string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: %s document failed validation: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validator validates IR documents against the embedded schemas.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	kinds := []string{KindProject, KindEnvironment, KindTargets, KindSuite, KindTest, KindData}
	for _, kind := range kinds {
		name := fmt.Sprintf("schemas/%s.schema.json", kind)
		data, err := fs.ReadFile(schemaFS, name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("adding schema %s: %w", name, err)
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(kinds))
	for _, kind := range kinds {
		name := fmt.Sprintf("schemas/%s.schema.json", kind)
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", name, err)
		}
		compiled[kind] = s
	}

	return &Validator{compiled: compiled}, nil
}

// Validate checks one document against the schema for its kind. The
// document is any Go value that marshals to the kind's JSON shape.
func (v *Validator) Validate(kind string, doc any) error {
	s, ok := v.compiled[kind]
	if !ok {
		return &ValidationError{Kind: kind, Err: fmt.Errorf("unknown document kind")}
	}

	// Round-trip through JSON so struct documents validate exactly as
	// they will serialize.
	raw, err := json.Marshal(doc)
	if err != nil {
		return &ValidationError{Kind: kind, Err: err}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &ValidationError{Kind: kind, Err: err}
	}

	if err := s.Validate(decoded); err != nil {
		return &ValidationError{Kind: kind, Err: err}
	}
	return nil
}
