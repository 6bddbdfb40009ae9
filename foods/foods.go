// Package foods is the in-memory TBCA food composition table with the
// accent-insensitive fuzzy search used to ground menu analysis.
package foods

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tara/foods/source"
)

// Nutrients are per 100 g of edible portion.
type Nutrients struct {
	Calories float64 `json:"calorias"`
	ProteinG float64 `json:"proteina_g"`
	CarbsG   float64 `json:"carboidrato_g"`
	FatG     float64 `json:"gordura_g"`
	FiberG   float64 `json:"fibra_g"`
}

type Food struct {
	Code    string    `json:"codigo"`
	Name    string    `json:"nome"`
	Class   string    `json:"classe"`
	Per100g Nutrients `json:"por_100g"`
}

// TBCA component names mapped onto Nutrients.
const (
	componentEnergy  = "Energia"
	componentProtein = "Proteína"
	componentCarbs   = "Carboidrato total"
	componentFat     = "Lipídios"
	componentFiber   = "Fibra alimentar"
)

type rawFood struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
	Class       string `json:"classe"`
	Nutrients   []struct {
		Component string          `json:"Componente"`
		Value     json.RawMessage `json:"Valor por 100g"`
	} `json:"nutrientes"`
}

// Load reads a TBCA JSONL export from src.
func Load(ctx context.Context, src source.Source) (*DB, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Info("FOODS: Table loaded", "foods", len(list))
	return NewDB(list), nil
}

// Parse decodes one food per non-blank line.
func Parse(data []byte) ([]Food, error) {
	var list []Food

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}

		var raw rawFood
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, fmt.Errorf("foods line %d: %w", line, err)
		}
		list = append(list, raw.food())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("foods: %w", err)
	}
	return list, nil
}

func (r rawFood) food() Food {
	values := make(map[string]float64, len(r.Nutrients))
	for _, n := range r.Nutrients {
		values[n.Component] = parseValue(n.Value)
	}
	return Food{
		Code:  r.Code,
		Name:  r.Description,
		Class: r.Class,
		Per100g: Nutrients{
			Calories: values[componentEnergy],
			ProteinG: values[componentProtein],
			CarbsG:   values[componentCarbs],
			FatG:     values[componentFat],
			FiberG:   values[componentFiber],
		},
	}
}

// parseValue reads a TBCA cell. Missing, trace and not-analysed markers read
// as zero; decimal commas are accepted.
func parseValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "Tr", "-":
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
