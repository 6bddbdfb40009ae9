// Package tools exposes the food table as named tools with JSON schemas.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// InputError reports a tool input that does not satisfy the input schema.
type InputError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Tool, e.Field, e.Reason)
}

// toMap marshals v and decodes it back so every tool returns plain JSON values.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func intInput(input map[string]any, key string, def int) int {
	switch v := input[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func stringInput(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}

func foodSchema() *jsonschema.Schema {
	num := &jsonschema.Schema{Type: "number"}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"codigo": {Type: "string"},
			"nome":   {Type: "string"},
			"classe": {Type: "string"},
			"por_100g": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"calorias":      num,
					"proteina_g":    num,
					"carboidrato_g": num,
					"gordura_g":     num,
					"fibra_g":       num,
				},
			},
		},
		Required: []string{"codigo", "nome", "classe", "por_100g"},
	}
}
