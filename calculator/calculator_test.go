package calculator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestCalculate(t *testing.T) {
	in := Input{
		WeightKg:       70,
		HeightCm:       170,
		Age:            30,
		Sex:            Male,
		ActivityLevel:  Moderate,
		DeficitPercent: 0.2,
		MealsPerDay:    4,
	}

	p := Calculate(in)

	// 10*70 + 6.25*170 - 5*30 + 5 = 1617.5
	assert.Equal(t, 1618, p.BMR)
	assert.Equal(t, 2508, p.TDEE)
	assert.Equal(t, 2006, p.TargetCalories)
	assert.Equal(t, 112, p.Macros.ProteinG)
	assert.Equal(t, 448, p.Macros.ProteinCalories)
	assert.Equal(t, 502, p.Macros.FatCalories)
	assert.Equal(t, 1056, p.Macros.CarbsCalories)
	assert.Equal(t, 4, p.MealsPerDay)
	require.Len(t, p.Meals, 4)
	assert.Nil(t, p.BodyComposition)

	var total int
	for _, m := range p.Meals {
		total += m.Calories
	}
	assert.Equal(t, p.TargetCalories, total)
}

func TestChainFromRoundedBMR(t *testing.T) {
	tdee := round(TDEE(1674, Moderate))
	require.Equal(t, 2595, tdee)

	target := round(TargetCalories(float64(tdee), 0.2))
	require.Equal(t, 2076, target)

	m := SplitMacros(target, 70, Moderate)
	assert.Equal(t, 112, m.ProteinG)
	assert.Equal(t, 448, m.ProteinCalories)
	assert.Equal(t, 519, m.FatCalories)
	assert.Equal(t, 1109, m.CarbsCalories)
	assert.Equal(t, 58, m.FatG)
	assert.Equal(t, 277, m.CarbsG)
}

func TestBMR(t *testing.T) {
	tests := []struct {
		name string
		sex  Sex
		want float64
	}{
		{name: "male", sex: Male, want: 1617.5},
		{name: "female", sex: Female, want: 1451.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BMR(70, 170, 30, tt.sex), 1e-9)
		})
	}
}

func TestSplitMacros(t *testing.T) {
	t.Run("moderate protein factor", func(t *testing.T) {
		m := SplitMacros(2000, 88, Moderate)
		assert.Equal(t, 141, m.ProteinG) // round(1.6 * 88)
		assert.Equal(t, 500, m.FatCalories)
		assert.Equal(t, 2000-141*4-500, m.CarbsCalories)
	})

	t.Run("carbs clamp at zero when protein is high", func(t *testing.T) {
		m := SplitMacros(1000, 100, VeryActive)
		assert.Equal(t, 200, m.ProteinG)
		assert.Equal(t, 800, m.ProteinCalories)
		assert.Equal(t, 200, m.FatCalories)
		assert.Equal(t, 0, m.CarbsCalories)
		assert.Equal(t, 0, m.CarbsG)
	})

	t.Run("fat never negative when protein exceeds target", func(t *testing.T) {
		m := SplitMacros(500, 120, VeryActive)
		assert.Equal(t, 0, m.FatCalories)
		assert.Equal(t, 0, m.CarbsCalories)
	})
}

func TestProfileInvariants(t *testing.T) {
	weights := []float64{45, 62.5, 80, 110, 150}
	heights := []float64{150, 172, 195}
	ages := []int{18, 40, 75}
	deficits := []float64{0.05, 0.2, 0.35, 0.6, 1}

	for _, level := range ActivityLevels() {
		for _, w := range weights {
			for _, h := range heights {
				for _, a := range ages {
					for _, d := range deficits {
						for meals := 1; meals <= MaxMealsPerDay; meals++ {
							p := Calculate(Input{
								WeightKg: w, HeightCm: h, Age: a, Sex: Female,
								ActivityLevel: level, DeficitPercent: d, MealsPerDay: meals,
							})

							var pct int
							for _, m := range p.Meals {
								pct += m.Percent
							}
							require.Equal(t, 100, pct, "meals=%d", meals)

							m := p.Macros
							sum := m.ProteinCalories + m.FatCalories + m.CarbsCalories
							if p.TargetCalories >= m.ProteinCalories {
								require.InDelta(t, p.TargetCalories, sum, 1, "%+v", p)
							}
							require.GreaterOrEqual(t, m.FatCalories, 0)
							require.GreaterOrEqual(t, m.CarbsCalories, 0)
							require.LessOrEqual(t, float64(m.FatCalories), 0.25*float64(p.TargetCalories)+0.5)
							require.LessOrEqual(t, m.FatCalories, max(0, p.TargetCalories-m.ProteinCalories))
						}
					}
				}
			}
		}
	}
}

func TestProteinMonotonicInActivity(t *testing.T) {
	for _, w := range []float64{40, 55.5, 70, 99.9, 130} {
		prev := 0
		for _, level := range ActivityLevels() {
			got := SplitMacros(2500, w, level).ProteinG
			assert.GreaterOrEqual(t, got, prev, "weight=%v level=%s", w, level)
			prev = got
		}
	}
}

func TestDistributeMeals(t *testing.T) {
	tests := []struct {
		name        string
		mealsPerDay int
		wantKeys    []string
	}{
		{name: "three", mealsPerDay: 3, wantKeys: []string{"cafe_da_manha", "almoco", "jantar"}},
		{name: "four", mealsPerDay: 4, wantKeys: []string{"cafe_da_manha", "almoco", "lanche_tarde", "jantar"}},
		{name: "five", mealsPerDay: 5, wantKeys: []string{"cafe_da_manha", "lanche_manha", "almoco", "lanche_tarde", "jantar"}},
		{name: "six", mealsPerDay: 6, wantKeys: []string{"cafe_da_manha", "lanche_manha", "almoco", "lanche_tarde", "jantar", "ceia"}},
		{name: "unknown falls back to four", mealsPerDay: 2, wantKeys: []string{"cafe_da_manha", "almoco", "lanche_tarde", "jantar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meals := DistributeMeals(2000, Macros{ProteinG: 150, CarbsG: 200, FatG: 55}, tt.mealsPerDay)
			keys := make([]string, 0, len(meals))
			for _, m := range meals {
				keys = append(keys, m.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantKeys, MealSlots(tt.mealsPerDay))
		})
	}

	t.Run("values", func(t *testing.T) {
		meals := DistributeMeals(2000, Macros{ProteinG: 150, CarbsG: 200, FatG: 55}, 3)
		lunch, ok := meals.Get("almoco")
		require.True(t, ok)
		assert.Equal(t, Meal{Key: "almoco", Name: "Almoço", Percent: 40, Calories: 800, ProteinG: 60, CarbsG: 80, FatG: 22}, lunch)
	})
}

func TestComposition(t *testing.T) {
	t.Run("body fat percent", func(t *testing.T) {
		bc, ok := Composition(80, ptr(25), nil)
		require.True(t, ok)
		assert.Equal(t, BodyComposition{BodyFatPercent: 25, FatMassKg: 20, LeanMassKg: 60}, bc)
	})

	t.Run("lean mass", func(t *testing.T) {
		bc, ok := Composition(80, nil, ptr(62))
		require.True(t, ok)
		assert.Equal(t, BodyComposition{BodyFatPercent: 22.5, FatMassKg: 18, LeanMassKg: 62}, bc)
	})

	t.Run("body fat percent wins over lean mass", func(t *testing.T) {
		bc, ok := Composition(73, ptr(18), ptr(40))
		require.True(t, ok)
		assert.Equal(t, 18.0, bc.BodyFatPercent)
		assert.InDelta(t, 73-73*18.0/100, bc.LeanMassKg, 0.05)
		assert.InDelta(t, 13.1, bc.FatMassKg, 1e-9)
	})

	t.Run("neither", func(t *testing.T) {
		_, ok := Composition(73, nil, nil)
		assert.False(t, ok)
	})
}

func TestProfileJSON(t *testing.T) {
	p := Calculate(Input{
		WeightKg: 70, HeightCm: 170, Age: 30, Sex: Male,
		ActivityLevel: Moderate, DeficitPercent: 0.2, MealsPerDay: 3,
		BodyFatPercent: ptr(20),
	})

	b, err := json.Marshal(p)
	require.NoError(t, err)

	s := string(b)
	// slots keep the order of the day
	assert.Less(t, strings.Index(s, `"cafe_da_manha"`), strings.Index(s, `"almoco"`))
	assert.Less(t, strings.Index(s, `"almoco"`), strings.Index(s, `"jantar"`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "sources")
	assert.Contains(t, decoded, "body_composition")
	meals := decoded["meals"].(map[string]any)
	lunch := meals["almoco"].(map[string]any)
	assert.Equal(t, "Almoço", lunch["nome"])
	assert.EqualValues(t, 40, lunch["percentual"])
}

func TestValidate(t *testing.T) {
	valid := Input{WeightKg: 70, HeightCm: 170, Age: 30, Sex: Male, ActivityLevel: Light}.WithDefaults()
	require.NoError(t, valid.Validate())
	assert.Equal(t, DefaultDeficitPercent, valid.DeficitPercent)
	assert.Equal(t, DefaultMealsPerDay, valid.MealsPerDay)

	tests := []struct {
		name  string
		edit  func(*Input)
		field string
	}{
		{name: "weight", edit: func(in *Input) { in.WeightKg = 0 }, field: "weight_kg"},
		{name: "height", edit: func(in *Input) { in.HeightCm = -1 }, field: "height_cm"},
		{name: "age", edit: func(in *Input) { in.Age = 0 }, field: "age"},
		{name: "sex", edit: func(in *Input) { in.Sex = "other" }, field: "sex"},
		{name: "activity", edit: func(in *Input) { in.ActivityLevel = "couch" }, field: "activity_level"},
		{name: "deficit above one", edit: func(in *Input) { in.DeficitPercent = 1.2 }, field: "deficit_percent"},
		{name: "deficit negative", edit: func(in *Input) { in.DeficitPercent = -0.1 }, field: "deficit_percent"},
		{name: "meals", edit: func(in *Input) { in.MealsPerDay = 13 }, field: "meals_per_day"},
		{name: "body fat", edit: func(in *Input) { in.BodyFatPercent = ptr(101) }, field: "body_fat_percent"},
		{name: "lean mass", edit: func(in *Input) { in.LeanMassKg = ptr(0) }, field: "lean_mass_kg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			err := in.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
