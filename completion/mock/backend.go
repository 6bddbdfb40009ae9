// Package mock is a deterministic completion backend for local runs and
// tests. Real models may not be so kind.
package mock

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"tara/completion"
)

type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

var itemSeparators = regexp.MustCompile(`(?i)\s*(?:,|;|\n|\s+e\s+|\s+com\s+)\s*`)

// Complete answers a food extraction prompt with the menu items split on
// commas and conjunctions, and anything else with a fixed recommendation
// wrapped in a json code fence.
func (b *Backend) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	var last string
	for _, m := range req.Messages {
		if m.Role == "user" {
			last = m.Content
		}
	}

	if _, menu, ok := strings.Cut(last, "\nTexto:\n"); ok {
		items := splitItems(menu)
		body, err := json.Marshal(items)
		if err != nil {
			return completion.Response{}, err
		}
		slog.Info("MOCK: Returning extracted foods", "items", len(items))
		return completion.NewTextResponse(string(body)), nil
	}

	slog.Info("MOCK: Returning fixed recommendation", "model", req.Model)
	return completion.NewTextResponse("```json\n" + recommendation + "\n```"), nil
}

func splitItems(menu string) []string {
	items := []string{}
	for _, part := range itemSeparators.Split(menu, -1) {
		part = strings.Trim(strings.TrimSpace(part), ".-•*")
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, strings.ToLower(part))
		}
	}
	return items
}

const recommendation = `{
  "escolhas": [
    {"alimento": "frango grelhado", "gramas": 150, "calorias_estimadas": 240, "proteina_g": 48, "carboidrato_g": 0, "gordura_g": 4, "justificativa": "Proteína principal para saciedade."},
    {"alimento": "arroz", "gramas": 120, "calorias_estimadas": 154, "proteina_g": 3, "carboidrato_g": 34, "gordura_g": 0, "justificativa": "Carboidrato base em porção medida."},
    {"alimento": "feijão", "gramas": 100, "calorias_estimadas": 76, "proteina_g": 5, "carboidrato_g": 14, "gordura_g": 1, "justificativa": "Fibras e proteína vegetal."}
  ],
  "total": {"calorias": 470, "proteina_g": 56, "carboidrato_g": 48, "gordura_g": 5},
  "dica": "Se quiser mais arroz, reduza o feijão pela metade. Se quiser farofa, use 1 colher de sopa e tire 40g de arroz."
}`
