package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/foods"
)

func testDB() *foods.DB {
	return foods.NewDB([]foods.Food{
		{Code: "C0001", Name: "Arroz, integral, cozido", Class: "Cereais e derivados", Per100g: foods.Nutrients{Calories: 124, ProteinG: 2.6}},
		{Code: "C0002", Name: "Feijão, carioca, cozido", Class: "Leguminosas e derivados", Per100g: foods.Nutrients{Calories: 76}},
		{Code: "C0004", Name: "Arroz, tipo 1, cozido", Class: "Cereais e derivados", Per100g: foods.Nutrients{Calories: 128}},
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(testDB())

	var names []string
	for _, tool := range r.GetTools() {
		names = append(names, tool.Name())
		assert.NotNil(t, tool.InputSchema())
		assert.NotNil(t, tool.OutputSchema())
		assert.NotEmpty(t, tool.Description())
	}
	assert.Equal(t, []string{"food_classes", "food_get", "food_search"}, names)

	_, err := r.GetTool("meal_plan")
	assert.Error(t, err)
}

func TestFoodSearch_Run(t *testing.T) {
	tool := NewFoodSearch(testDB())

	tests := []struct {
		name      string
		input     map[string]any
		wantCodes []string
		wantErr   bool
	}{
		{name: "accent insensitive", input: map[string]any{"term": "feijao"}, wantCodes: []string{"C0002"}},
		{name: "limit from json number", input: map[string]any{"term": "arroz", "limit": 1.0}, wantCodes: []string{"C0001"}},
		{name: "no hits", input: map[string]any{"term": "zzzz"}, wantCodes: []string{}},
		{name: "missing term", input: map[string]any{}, wantErr: true},
		{name: "limit too large", input: map[string]any{"term": "arroz", "limit": 500.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Run(context.Background(), tt.input)
			if tt.wantErr {
				var inErr *InputError
				require.ErrorAs(t, err, &inErr)
				return
			}
			require.NoError(t, err)

			results, ok := out["results"].([]any)
			require.True(t, ok)
			got := make([]string, 0, len(results))
			for _, r := range results {
				food := r.(map[string]any)["food"].(map[string]any)
				got = append(got, food["codigo"].(string))
			}
			assert.Equal(t, tt.wantCodes, got)
		})
	}
}

func TestFoodGet_Run(t *testing.T) {
	tool := NewFoodGet(testDB())

	out, err := tool.Run(context.Background(), map[string]any{"code": "C0001"})
	require.NoError(t, err)
	food := out["food"].(map[string]any)
	assert.Equal(t, "Arroz, integral, cozido", food["nome"])
	assert.Equal(t, 124.0, food["por_100g"].(map[string]any)["calorias"])

	_, err = tool.Run(context.Background(), map[string]any{"code": "nope"})
	assert.True(t, errors.Is(err, ErrFoodNotFound))

	_, err = tool.Run(context.Background(), map[string]any{})
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)
}

func TestFoodClasses_Run(t *testing.T) {
	tool := NewFoodClasses(testDB())

	out, err := tool.Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []any{"Cereais e derivados", "Leguminosas e derivados"}, out["classes"])

	out, err = tool.Run(context.Background(), map[string]any{"class": "cereais", "limit": 1.0})
	require.NoError(t, err)
	list := out["foods"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "C0001", list[0].(map[string]any)["codigo"])
}
