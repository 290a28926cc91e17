// Package validation validates inbound request bodies against JSON schemas
// and reports field-level errors.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateJSON checks a raw JSON document against a schema. A malformed
// document is reported as a validation result, not an error; the error return
// is reserved for a broken schema.
func ValidateJSON(document []byte, schema string) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		// gojsonschema returns an error for unparsable documents as well as
		// unparsable schemas. Treat the former as a validation failure.
		if _, schemaErr := gojsonschema.NewSchema(schemaLoader); schemaErr != nil {
			return nil, fmt.Errorf("invalid schema: %w", schemaErr)
		}
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: "request body is not valid JSON",
				Code:    "INVALID_JSON",
			}},
		}, nil
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}

	return &ValidationResult{Valid: false, Errors: errs}, nil
}
