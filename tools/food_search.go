package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"tara/foods"
)

const maxSearchLimit = 50

type FoodSearch struct{ db *foods.DB }

func NewFoodSearch(db *foods.DB) *FoodSearch { return &FoodSearch{db: db} }

func (t *FoodSearch) Name() string  { return "food_search" }
func (t *FoodSearch) Title() string { return "Search Foods (TBCA)" }
func (t *FoodSearch) Description() string {
	return "Fuzzy, accent-insensitive search of the TBCA food table. Returns per-100g nutrients ranked by relevance."
}

func (t *FoodSearch) InputSchema() *jsonschema.Schema {
	minLimit, maxLimit := 1.0, float64(maxSearchLimit)
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"term":  {Type: "string", Description: "food name, e.g. feijão"},
			"limit": {Type: "integer", Minimum: &minLimit, Maximum: &maxLimit},
		},
		Required: []string{"term"},
	}
}

func (t *FoodSearch) OutputSchema() *jsonschema.Schema {
	minScore, maxScore := 0.0, 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"results": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"food":  foodSchema(),
						"score": {Type: "number", Minimum: &minScore, Maximum: &maxScore},
					},
					Required: []string{"food", "score"},
				},
			},
		},
		Required: []string{"results"},
	}
}

func (t *FoodSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	term := strings.TrimSpace(stringInput(input, "term"))
	if term == "" {
		return nil, &InputError{Tool: t.Name(), Field: "term", Reason: "is required"}
	}
	limit := intInput(input, "limit", foods.DefaultSearchLimit)
	if limit < 1 || limit > maxSearchLimit {
		return nil, &InputError{Tool: t.Name(), Field: "limit", Reason: "must be between 1 and 50"}
	}

	out := struct {
		Results []foods.Match `json:"results"`
	}{Results: make([]foods.Match, 0)}
	out.Results = append(out.Results, t.db.Search(term, limit)...)

	return toMap(out)
}
