package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"tara/foods"
)

type FoodGet struct{ db *foods.DB }

func NewFoodGet(db *foods.DB) *FoodGet { return &FoodGet{db: db} }

func (t *FoodGet) Name() string        { return "food_get" }
func (t *FoodGet) Title() string       { return "Get Food by Code" }
func (t *FoodGet) Description() string { return "Returns one TBCA food by its code." }

func (t *FoodGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"code": {Type: "string"},
		},
		Required: []string{"code"},
	}
}

func (t *FoodGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{"food": foodSchema()},
		Required:   []string{"food"},
	}
}

// ErrFoodNotFound is returned by food_get for unknown codes.
var ErrFoodNotFound = fmt.Errorf("food not found")

func (t *FoodGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	code := stringInput(input, "code")
	if code == "" {
		return nil, &InputError{Tool: t.Name(), Field: "code", Reason: "is required"}
	}

	f, ok := t.db.ByCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFoodNotFound, code)
	}
	return toMap(struct {
		Food foods.Food `json:"food"`
	}{Food: f})
}
