package catalog

import (
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
)

//go:embed catalog.schema.json
var schemaSource string

const schemaURL = "https://chunkmaze.dev/schemas/catalog.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the raw JSON Schema that library documents must satisfy.
func Schema() string { return schemaSource }

func librarySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(schemaURL, schemaSource)
	})
	return compiledSchema, schemaErr
}

// ValidateSchema checks a decoded library document against the embedded
// schema. doc may be the result of decoding TOML, YAML or JSON into an
// untyped value; it is normalized through JSON before validation so that
// integer and map types from every decoder look alike.
func ValidateSchema(doc any) error {
	s, err := librarySchema()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "compile catalog schema")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidCatalog, err, "normalize document")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidCatalog, err, "normalize document")
	}

	if err := s.Validate(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidCatalog, err, "schema validation failed")
	}
	return nil
}
