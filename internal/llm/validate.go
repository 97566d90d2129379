package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	analysisSchemaOnce sync.Once
	analysisSchema     *jsonschema.Schema
	analysisSchemaErr  error
)

// CompileSchema compiles a schema map with the draft 2020-12 compiler.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateAnalysisDocument validates a decoded, canonicalized analysis document.
func ValidateAnalysisDocument(doc any) error {
	analysisSchemaOnce.Do(func() {
		analysisSchema, analysisSchemaErr = CompileSchema(BuildAnalysisJSONSchema())
	})
	if analysisSchemaErr != nil {
		return analysisSchemaErr
	}
	if err := analysisSchema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
