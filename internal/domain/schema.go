package domain

import (
	"encoding/json"
	"fmt"
)

// FieldType is the declared type of a metadata field.
type FieldType string

const (
	FieldTypeString FieldType = "STRING"
	FieldTypeNumber FieldType = "NUMBER"
)

// FieldDefinition describes one metadata field the filter synthesizer may
// reference. The schema is supplied by configuration and is immutable per query.
type FieldDefinition struct {
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Description string    `json:"description"`
}

// ParseFieldDefinitions decodes a JSON array of field definitions.
func ParseFieldDefinitions(text string) ([]FieldDefinition, error) {
	if text == "" {
		return nil, nil
	}
	var defs []FieldDefinition
	if err := json.Unmarshal([]byte(text), &defs); err != nil {
		return nil, fmt.Errorf("invalid metadata field definitions: %w", err)
	}
	for i, def := range defs {
		if def.Key == "" {
			return nil, fmt.Errorf("field definition %d is missing a key", i)
		}
		if def.Type != FieldTypeString && def.Type != FieldTypeNumber {
			return nil, fmt.Errorf("field %q has unsupported type %q", def.Key, def.Type)
		}
	}
	return defs, nil
}
