// Package schema validates request bodies against JSON Schema documents,
// one schema per write route.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validator holds a compiled JSON Schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema document, panicking on a malformed schema.
// Schemas are package constants, so a failure here is a programming error.
func MustCompile(document string) *Validator {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("invalid schema: %v", err))
	}
	return &Validator{schema: schema}
}

// Validate checks a JSON body against the schema, returning one error
// aggregating every violation.
func (v *Validator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(details, "; "))
}
