package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed analysis.schema.json
var analysisSchema []byte

// Validator checks translated payloads against a compiled JSON schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

func New(name string, schemaJSON []byte) (*Validator, error) {
	resource := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load %s schema: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Validator{name: name, schema: compiled}, nil
}

// NewAnalysisValidator validates translated analysis trees.
func NewAnalysisValidator() (*Validator, error) {
	return New("analysis", analysisSchema)
}

// NewStringTableValidator requires every key of the source table to be present
// as a string.
func NewStringTableValidator(keys []string) (*Validator, error) {
	properties := make(map[string]any, len(keys))
	for _, k := range keys {
		properties[k] = map[string]string{"type": "string"}
	}
	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"required":             keys,
		"properties":           properties,
		"additionalProperties": map[string]string{"type": "string"},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("build string table schema: %w", err)
	}
	return New("ui_strings", raw)
}

func (v *Validator) Validate(payload json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("decode %s payload: %w", v.name, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%s payload does not match schema: %w", v.name, err)
	}
	return nil
}
