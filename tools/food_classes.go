package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"tara/foods"
)

type FoodClasses struct{ db *foods.DB }

func NewFoodClasses(db *foods.DB) *FoodClasses { return &FoodClasses{db: db} }

func (t *FoodClasses) Name() string  { return "food_classes" }
func (t *FoodClasses) Title() string { return "Food Classes" }
func (t *FoodClasses) Description() string {
	return "Lists TBCA food classes. With class set, lists the foods in matching classes instead."
}

func (t *FoodClasses) InputSchema() *jsonschema.Schema {
	minLimit := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"class": {Type: "string"},
			"limit": {Type: "integer", Minimum: &minLimit},
		},
	}
}

func (t *FoodClasses) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"classes": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"foods":   {Type: "array", Items: foodSchema()},
		},
	}
}

func (t *FoodClasses) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	class := stringInput(input, "class")
	if class == "" {
		return toMap(struct {
			Classes []string `json:"classes"`
		}{Classes: append(make([]string, 0), t.db.Classes()...)})
	}

	limit := intInput(input, "limit", foods.DefaultClassLimit)
	if limit < 1 {
		return nil, &InputError{Tool: t.Name(), Field: "limit", Reason: "must be positive"}
	}
	return toMap(struct {
		Foods []foods.Food `json:"foods"`
	}{Foods: append(make([]foods.Food, 0), t.db.ByClass(class, limit)...)})
}
