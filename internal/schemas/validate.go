// Package schemas validates the content and variant files against the JSON Schemas embedded
// in the binary. Each schema is compiled once and reused.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	schemafiles "github.com/jonathan/resume-site/schemas"
	"github.com/xeipuuv/gojsonschema"
)

var (
	compiledMu sync.Mutex
	compiled   = make(map[string]*gojsonschema.Schema)
)

// ValidationError lists every schema violation found in one document
type ValidationError struct {
	Document string
	Errors   []FieldError
}

// FieldError is one violation. Field is a dotted path, "(root)" for the document itself.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Document != "" {
		sb.WriteString(ve.Document + ": ")
	}
	fmt.Fprintf(&sb, "%d schema violation(s)", len(ve.Errors))
	for _, fe := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %s: %s", fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaError reports an embedded schema that is missing or does not compile
type SchemaError struct {
	Schema string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Schema, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ValidateDocument checks data against the named embedded schema (schemafiles.ResumeBase or
// schemafiles.Variant). documentName only appears in error messages.
func ValidateDocument(schemaName, documentName string, data []byte) error {
	schema, err := compile(schemaName)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%s: invalid JSON: %w", documentName, err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Document: documentName, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

func compile(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	data, err := schemafiles.FS.ReadFile(name)
	if err != nil {
		return nil, &SchemaError{Schema: name, Err: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaError{Schema: name, Err: err}
	}
	compiled[name] = s
	return s, nil
}
