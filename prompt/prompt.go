// Package prompt renders the messages sent to the completion service.
package prompt

import (
	"fmt"
	"strings"

	"tara/calculator"
	"tara/foods"
)

// DefaultMealType is the slot analysed when none or an unknown one is asked for.
const DefaultMealType = "almoco"

const referenceHeader = "DADOS NUTRICIONAIS DE REFERÊNCIA (TBCA - por 100g):"

const SystemPrompt = `Você é um assistente nutricional prático (não substitui nutricionista) especializado em montar porções em gramas para refeições, com foco em déficit calórico e adesão.

OBJETIVO
Você recebe um perfil nutricional calculado (meta calórica diária, macros e distribuição das refeições) e o cardápio da refeição atual.
Sua tarefa é:
1) escolher quais itens do cardápio serão consumidos (nem tudo precisa entrar),
2) definir a quantidade em gramas/ml de cada item escolhido,
3) manter a refeição dentro do limite calórico da refeição atual,
4) justificar cada escolha de forma concisa (saciedade, densidade calórica, previsibilidade, seletividade alimentar, equilibrio),
5) oferecer 2-3 variações de ajuste ("se quiser mais X, reduza Y"), mantendo o mesmo limite.

REGRAS DE DECISAO (use sempre)
- Priorize 1 proteina principal (quando existir) para saciedade.
- Escolha 1 carbo principal. Se houver muitos carboidratos (arroz, macarrao, macaxeira, cuscuz, baiao), selecione apenas 1 como base e, no maximo, 1 complemento pequeno.
- Itens muito densos em calorias (farofa, pao de alho, maionese, manteiga, frituras) entram em porcoes pequenas e medidas.
- Bebidas caloricas (sucos) devem ter porcao pequena e medida; priorize agua quando o limite estiver apertado.
- Se faltar proteina na lista, use ovos/derivados disponiveis como complemento, controlando gordura.
- Respeite seletividade: evite misturas complexas e ofereca prato simples com poucas variacoes.
- Trate a meta da refeicao como limite: mire em 85-100% do limite, a menos que o usuario peça para bater exatamente.
- Seja explicito quando estimar calorias: use valores medios e informe que variam por receita/oleo.

FORMATO DE SAIDA (obrigatorio)
Responda SOMENTE com JSON valido e sem texto extra, com a seguinte estrutura:
{
    "escolhas": [
        {
            "alimento": "nome do alimento",
            "gramas": numero,
            "calorias_estimadas": numero,
            "proteina_g": numero,
            "carboidrato_g": numero,
            "gordura_g": numero,
            "justificativa": "breve explicacao"
        }
    ],
    "total": {
        "calorias": numero,
        "proteina_g": numero,
        "carboidrato_g": numero,
        "gordura_g": numero
    },
    "dica": "Inclua 2-3 ajustes rapidos no formato: Se quiser mais X, reduza Y assim: ..."
}

COMPORTAMENTO
- Nao faca diagnostico medico.
- Seja direto, com numeros e referencias visuais simples (concha/colher) quando util.`

const extractFoodsTemplate = `Extraia do texto abaixo uma lista com cada alimento individual.
Separe itens compostos como "arroz e feijão" em ["arroz", "feijão"].
Mantenha itens que são naturalmente juntos como "pão de queijo" ou "arroz de leite".

Responda APENAS com um array JSON de strings, sem explicações.

Texto:
%s`

// ExtractFoodsPrompt asks for the individual food items in a menu as a JSON
// array of strings.
func ExtractFoodsPrompt(menu string) string {
	return fmt.Sprintf(extractFoodsTemplate, menu)
}

// CurrentMeal picks the meal to analyse: mealType when the profile has it,
// then lunch, then the first slot of the day.
func CurrentMeal(p calculator.Profile, mealType string) (calculator.Meal, bool) {
	if m, ok := p.Meals.Get(mealType); ok {
		return m, true
	}
	if m, ok := p.Meals.Get(DefaultMealType); ok {
		return m, true
	}
	if len(p.Meals) > 0 {
		return p.Meals[0], true
	}
	return calculator.Meal{}, false
}

// BuildUserPrompt describes the profile, the meal being chosen and the menu.
// reference is appended after the menu when non-empty, see ReferenceBlock.
func BuildUserPrompt(p calculator.Profile, menu, mealType, reference string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PERFIL DO USUÁRIO:\n")
	fmt.Fprintf(&b, "- Meta calórica diária: %d kcal (déficit de %d%%)\n", p.TargetCalories, int(p.DeficitPercent*100))
	fmt.Fprintf(&b, "- Macros alvo por dia:\n")
	fmt.Fprintf(&b, "  - Proteína: %dg (%d%% do VET)\n", p.Macros.ProteinG, shareOf(p.Macros.ProteinCalories, p.TargetCalories))
	fmt.Fprintf(&b, "  - Carboidratos: %dg (%d%% do VET)\n", p.Macros.CarbsG, shareOf(p.Macros.CarbsCalories, p.TargetCalories))
	fmt.Fprintf(&b, "  - Gordura: %dg (%d%% do VET)\n", p.Macros.FatG, shareOf(p.Macros.FatCalories, p.TargetCalories))

	fmt.Fprintf(&b, "\nDISTRIBUIÇÃO DAS %d REFEIÇÕES DO DIA:\n", p.MealsPerDay)
	for _, m := range p.Meals {
		fmt.Fprintf(&b, "  - %s: %d%% (%d kcal)\n", m.Name, m.Percent, m.Calories)
	}

	meal, _ := CurrentMeal(p, mealType)
	fmt.Fprintf(&b, "\nREFEIÇÃO ATUAL: %s (%d%% do dia)\n", meal.Name, meal.Percent)
	fmt.Fprintf(&b, "Meta para esta refeição:\n")
	fmt.Fprintf(&b, "- %d kcal\n", meal.Calories)
	fmt.Fprintf(&b, "- %dg de proteína\n", meal.ProteinG)
	fmt.Fprintf(&b, "- %dg de carboidratos\n", meal.CarbsG)
	fmt.Fprintf(&b, "- %dg de gordura\n", meal.FatG)

	fmt.Fprintf(&b, "\nCARDÁPIO DO RESTAURANTE:\n%s\n", menu)

	if reference != "" {
		fmt.Fprintf(&b, "\n%s\n", reference)
	}

	fmt.Fprintf(&b, "\nAnalise o cardápio e escolha os melhores alimentos para esta refeição (%s),\n", meal.Name)
	b.WriteString("indicando a quantidade em gramas de cada um. ")
	if reference != "" {
		b.WriteString("USE OS DADOS NUTRICIONAIS DE REFERÊNCIA acima para\ncalcular as porções. ")
	}
	b.WriteString("A pessoa está em déficit calórico e quer emagrecer de forma saudável,\npreservando massa muscular.")

	return b.String()
}

// shareOf is the truncated percentage of total that part represents.
func shareOf(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part) / float64(total) * 100)
}

// FoodLookup resolves a free-text item to its best table entry.
type FoodLookup interface {
	Best(term string) (foods.Food, bool)
}

// ReferenceBlock lists per-100g nutrients for every item the lookup can
// resolve. It returns "" when nothing matched.
func ReferenceBlock(items []string, lookup FoodLookup) string {
	if lookup == nil {
		return ""
	}

	var lines []string
	for _, item := range items {
		f, ok := lookup.Best(item)
		if !ok {
			continue
		}
		n := f.Per100g
		lines = append(lines, fmt.Sprintf("- %s: %.0f kcal, %.1fg prot, %.1fg carb, %.1fg gord (por 100g)",
			item, n.Calories, n.ProteinG, n.CarbsG, n.FatG))
	}
	if len(lines) == 0 {
		return ""
	}
	return referenceHeader + "\n" + strings.Join(lines, "\n")
}
