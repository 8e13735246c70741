// Package schema validates decoded documents against JSON Schema.
//
// It wraps santhosh-tekuri/jsonschema so callers hand over plain Go
// values (whatever yaml or json unmarshalled into) rather than raw
// JSON text, which lets one schema cover both config encodings.
package schema

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Errors collects the individual violations found in one document.
type Errors []error

// Error implements the error interface for Errors.
func (es Errors) Error() string {
	if len(es) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, err := range es {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema ready for repeated validation.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses and compiles a schema document.
func Compile(schemaStr string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks a decoded document against the schema. It returns
// nil when the document conforms, or an Errors value listing every
// violation found.
func (s *Schema) Validate(doc interface{}) error {
	err := s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	if verr, ok := err.(*jsonschema.ValidationError); ok {
		if es := flatten(verr); len(es) > 0 {
			return es
		}
	}
	return Errors{err}
}

// flatten walks the validation error tree and collects leaf messages.
func flatten(err *jsonschema.ValidationError) Errors {
	var es Errors
	if err.Message != "" && len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		es = append(es, fmt.Errorf("at %s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		es = append(es, flatten(cause)...)
	}
	return es
}
