package artifact

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://studyhub.dev/schemas/"

var (
	schemasOnce sync.Once
	schemas     map[Kind]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiled := make(map[Kind]*jsonschema.Schema, len(Kinds))
	for _, kind := range Kinds {
		name := string(kind) + ".json"
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemasErr = fmt.Errorf("read %s schema: %w", kind, err)
			return
		}
		if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader(raw)); err != nil {
			schemasErr = fmt.Errorf("add %s schema: %w", kind, err)
			return
		}
		schema, err := compiler.Compile(schemaBaseURL + name)
		if err != nil {
			schemasErr = fmt.Errorf("compile %s schema: %w", kind, err)
			return
		}
		compiled[kind] = schema
	}
	schemas = compiled
}

// ValidateDocument checks a decoded JSON document (numbers as json.Number
// or float64) against the schema of kind.
func ValidateDocument(kind Kind, doc interface{}) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("no schema for kind %q", kind)
	}
	if err := schema.Validate(doc); err != nil {
		return &SchemaError{Kind: kind, Reason: err.Error()}
	}
	return nil
}
