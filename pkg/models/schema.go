package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is the JSON Schema of a node config object.
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property is a single schema property. An empty Type accepts any JSON value.
type Property struct {
	Type                 string               `json:"type,omitempty"`
	Description          string               `json:"description,omitempty"`
	Enum                 []any                `json:"enum,omitempty"`
	Default              any                  `json:"default,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	AdditionalProperties *Property            `json:"additionalProperties,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
}

// typesOnly returns a copy of the schema without required fields, so that decoding checks
// value types while leaving missing fields to the graph validator.
func (s *JSONSchema) typesOnly() *JSONSchema {
	return &JSONSchema{
		Type:       s.Type,
		Properties: s.Properties,
	}
}

// checkConfigTypes validates the raw config object against the type's schema.
func checkConfigTypes(t NodeType, raw []byte) error {
	info, ok := nodeTypeInfo[t]
	if !ok || info.Schema == nil {
		return nil
	}

	var config map[string]any
	if err := json.Unmarshal(raw, &config); err != nil {
		return fmt.Errorf("invalid %s config: %w", t, err)
	}

	// Explicit nulls decode to zero values.
	for key, value := range config {
		if value == nil {
			delete(config, key)
		}
	}

	schemaLoader := gojsonschema.NewGoLoader(info.Schema.typesOnly())
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("invalid %s config: %w", t, err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("invalid %s config: %s", t, strings.Join(errors, "; "))
	}

	return nil
}
