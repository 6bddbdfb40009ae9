// Package analysis turns a restaurant menu and a nutrition profile into a
// portion recommendation by way of the completion service.
package analysis

import (
	"context"
	"log/slog"

	"tara/calculator"
	"tara/completion"
	"tara/prompt"
)

// Completer is satisfied by completion.Client and completion.InstrumentedClient.
type Completer interface {
	Complete(ctx context.Context, messages []completion.Message) (completion.Response, error)
}

// Choice is one item the model picked from the menu.
type Choice struct {
	Food          string  `json:"alimento"`
	Grams         float64 `json:"gramas"`
	Calories      float64 `json:"calorias_estimadas"`
	ProteinG      float64 `json:"proteina_g"`
	CarbsG        float64 `json:"carboidrato_g"`
	FatG          float64 `json:"gordura_g"`
	Justification string  `json:"justificativa"`
}

type Totals struct {
	Calories float64 `json:"calorias"`
	ProteinG float64 `json:"proteina_g"`
	CarbsG   float64 `json:"carboidrato_g"`
	FatG     float64 `json:"gordura_g"`
}

type Recommendation struct {
	Choices []Choice `json:"escolhas"`
	Total   Totals   `json:"total"`
	Tip     string   `json:"dica"`
}

// Result pairs a recommendation with the profile it was computed for.
type Result struct {
	Profile        calculator.Profile `json:"profile"`
	Recommendation Recommendation     `json:"recommendation"`
}

type Analyzer struct {
	completer Completer
	foods     prompt.FoodLookup
}

// New returns an Analyzer. foods may be nil, in which case prompts carry no
// reference block and no extraction call is made.
func New(c Completer, foods prompt.FoodLookup) *Analyzer {
	return &Analyzer{completer: c, foods: foods}
}

// ExtractFoods asks the model for the individual food items in menu.
func (a *Analyzer) ExtractFoods(ctx context.Context, menu string) ([]string, error) {
	resp, err := a.completer.Complete(ctx, []completion.Message{
		completion.UserMessage(prompt.ExtractFoodsPrompt(menu)),
	})
	if err != nil {
		return nil, err
	}

	var items []string
	if err := Decode("extract_foods", resp.Text(), &items); err != nil {
		slog.Warn("ANALYSIS: Could not decode extracted foods", "raw", resp.Text())
		return nil, err
	}
	slog.Info("ANALYSIS: Foods extracted", "items", len(items))
	return items, nil
}

// AnalyzeMenu recommends portions from menu for the profile's mealType slot.
// Grounding the prompt in the food table is best effort: an extraction
// failure only drops the reference block.
func (a *Analyzer) AnalyzeMenu(ctx context.Context, p calculator.Profile, menu, mealType string) (Recommendation, error) {
	reference := a.reference(ctx, menu)

	resp, err := a.completer.Complete(ctx, []completion.Message{
		completion.SystemMessage(prompt.SystemPrompt),
		completion.UserMessage(prompt.BuildUserPrompt(p, menu, mealType, reference)),
	})
	if err != nil {
		return Recommendation{}, err
	}

	var rec Recommendation
	if err := Decode("analyze_menu", resp.Text(), &rec); err != nil {
		slog.Warn("ANALYSIS: Could not decode recommendation", "raw", resp.Text())
		return Recommendation{}, err
	}
	slog.Info("ANALYSIS: Menu analysed", "meal_type", mealType, "choices", len(rec.Choices), "calories", rec.Total.Calories)
	return rec, nil
}

func (a *Analyzer) reference(ctx context.Context, menu string) string {
	if a.foods == nil {
		return ""
	}
	items, err := a.ExtractFoods(ctx, menu)
	if err != nil {
		slog.Warn("ANALYSIS: Skipping food reference", "error", err)
		return ""
	}
	return prompt.ReferenceBlock(items, a.foods)
}
