// Package calculator turns body and activity data into daily calorie and
// macronutrient targets and a per-meal breakdown.
package calculator

import (
	"bytes"
	"encoding/json"
	"math"
)

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Light      ActivityLevel = "light"
	Moderate   ActivityLevel = "moderate"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "very_active"
)

// activityMultipliers maps an activity level to its TDEE factor (FAO/OMS).
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:  1.2,
	Light:      1.375,
	Moderate:   1.55,
	Active:     1.725,
	VeryActive: 1.9,
}

// proteinFactors is grams of protein per kg of body weight. Must not decrease
// with activity.
var proteinFactors = map[ActivityLevel]float64{
	Sedentary:  1.4,
	Light:      1.5,
	Moderate:   1.6,
	Active:     1.8,
	VeryActive: 2.0,
}

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9

	fatShareOfTarget = 0.25

	defaultMealsPerDay = 4
)

type mealSlot struct {
	key     string
	percent int
}

// mealTables holds the share of the day per meal slot, keyed by meals per day.
// Every table sums to 100.
var mealTables = map[int][]mealSlot{
	3: {
		{"cafe_da_manha", 25},
		{"almoco", 40},
		{"jantar", 35},
	},
	4: {
		{"cafe_da_manha", 20},
		{"almoco", 35},
		{"lanche_tarde", 15},
		{"jantar", 30},
	},
	5: {
		{"cafe_da_manha", 20},
		{"lanche_manha", 5},
		{"almoco", 35},
		{"lanche_tarde", 10},
		{"jantar", 30},
	},
	6: {
		{"cafe_da_manha", 20},
		{"lanche_manha", 5},
		{"almoco", 30},
		{"lanche_tarde", 10},
		{"jantar", 30},
		{"ceia", 5},
	},
}

var mealNames = map[string]string{
	"cafe_da_manha": "Café da Manhã",
	"lanche_manha":  "Lanche da Manhã",
	"almoco":        "Almoço",
	"lanche_tarde":  "Lanche da Tarde",
	"jantar":        "Jantar",
	"ceia":          "Ceia",
}

// Macros holds the daily macronutrient targets in grams and kcal.
type Macros struct {
	ProteinG        int `json:"protein_g"`
	FatG            int `json:"fat_g"`
	CarbsG          int `json:"carbs_g"`
	ProteinCalories int `json:"protein_calories"`
	FatCalories     int `json:"fat_calories"`
	CarbsCalories   int `json:"carbs_calories"`
}

// Meal is the target for one meal slot of the day.
type Meal struct {
	Key      string `json:"-"`
	Name     string `json:"nome"`
	Percent  int    `json:"percentual"`
	Calories int    `json:"calorias"`
	ProteinG int    `json:"proteina_g"`
	CarbsG   int    `json:"carboidrato_g"`
	FatG     int    `json:"gordura_g"`
}

// Meals keeps the slots in the order of the day and marshals as a JSON object
// keyed by slot.
type Meals []Meal

// Get returns the meal for a slot key.
func (m Meals) Get(key string) (Meal, bool) {
	for _, meal := range m {
		if meal.Key == key {
			return meal, true
		}
	}
	return Meal{}, false
}

func (m Meals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, meal := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(meal.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(meal)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BodyComposition is derived from either body fat percent or lean mass.
type BodyComposition struct {
	BodyFatPercent float64 `json:"body_fat_percent"`
	FatMassKg      float64 `json:"fat_mass_kg"`
	LeanMassKg     float64 `json:"lean_mass_kg"`
}

type Sources struct {
	BMR             string `json:"bmr"`
	ActivityFactors string `json:"activity_factors"`
	Deficit         string `json:"deficit"`
	Macros          string `json:"macros"`
	Meals           string `json:"meals"`
}

var defaultSources = Sources{
	BMR:             "Mifflin-St Jeor (1990)",
	ActivityFactors: "FAO/OMS",
	Deficit:         "ABESO / ACSM",
	Macros:          "Proteína 1,4-2,0 g/kg conforme atividade, gordura até 25% do VET, carboidratos no restante",
	Meals:           "Guia Alimentar para a População Brasileira",
}

// Profile is the computed nutrition profile. It is never mutated after
// Calculate returns it.
type Profile struct {
	BMR             int              `json:"bmr"`
	TDEE            int              `json:"tdee"`
	DeficitPercent  float64          `json:"deficit_percent"`
	TargetCalories  int              `json:"target_calories"`
	Macros          Macros           `json:"macros"`
	MealsPerDay     int              `json:"meals_per_day"`
	Meals           Meals            `json:"meals"`
	Sources         Sources          `json:"sources"`
	BodyComposition *BodyComposition `json:"body_composition,omitempty"`
}

// Calculate runs the whole pipeline. Inputs are expected to be validated.
func Calculate(in Input) Profile {
	bmr := round(BMR(in.WeightKg, in.HeightCm, in.Age, in.Sex))
	tdee := round(TDEE(float64(bmr), in.ActivityLevel))
	target := round(TargetCalories(float64(tdee), in.DeficitPercent))
	macros := SplitMacros(target, in.WeightKg, in.ActivityLevel)

	p := Profile{
		BMR:            bmr,
		TDEE:           tdee,
		DeficitPercent: in.DeficitPercent,
		TargetCalories: target,
		Macros:         macros,
		MealsPerDay:    in.MealsPerDay,
		Meals:          DistributeMeals(target, macros, in.MealsPerDay),
		Sources:        defaultSources,
	}
	if bc, ok := Composition(in.WeightKg, in.BodyFatPercent, in.LeanMassKg); ok {
		p.BodyComposition = &bc
	}
	return p
}

// BMR uses the Mifflin-St Jeor equation. Units are kg, cm and years.
func BMR(weightKg, heightCm float64, age int, sex Sex) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if sex == Male {
		return base + 5
	}
	return base - 161
}

func TDEE(bmr float64, level ActivityLevel) float64 {
	return bmr * activityMultipliers[level]
}

func TargetCalories(tdee, deficitPercent float64) float64 {
	return tdee * (1 - deficitPercent)
}

// SplitMacros derives protein from body weight first, caps fat at a quarter of
// the target and gives carbs whatever is left. Carbs may end up at zero when
// protein alone eats the budget.
func SplitMacros(target int, weightKg float64, level ActivityLevel) Macros {
	proteinG := round(weightKg * proteinFactors[level])
	proteinKcal := float64(proteinG * kcalPerGramProtein)

	t := float64(target)
	fatKcal := math.Min(fatShareOfTarget*t, math.Max(0, t-proteinKcal))
	carbKcal := math.Max(0, t-proteinKcal-fatKcal)

	return Macros{
		ProteinG:        proteinG,
		FatG:            round(fatKcal / kcalPerGramFat),
		CarbsG:          round(carbKcal / kcalPerGramCarbs),
		ProteinCalories: round(proteinKcal),
		FatCalories:     round(fatKcal),
		CarbsCalories:   round(carbKcal),
	}
}

// DistributeMeals splits the daily target across the meal slots for
// mealsPerDay. Unknown counts use the four meal table.
func DistributeMeals(target int, macros Macros, mealsPerDay int) Meals {
	table, ok := mealTables[mealsPerDay]
	if !ok {
		table = mealTables[defaultMealsPerDay]
	}

	meals := make(Meals, 0, len(table))
	for _, slot := range table {
		share := float64(slot.percent) / 100
		meals = append(meals, Meal{
			Key:      slot.key,
			Name:     mealNames[slot.key],
			Percent:  slot.percent,
			Calories: round(float64(target) * share),
			ProteinG: round(float64(macros.ProteinG) * share),
			CarbsG:   round(float64(macros.CarbsG) * share),
			FatG:     round(float64(macros.FatG) * share),
		})
	}
	return meals
}

// Composition derives fat and lean mass. Body fat percent wins when both
// values are given.
func Composition(weightKg float64, bodyFatPercent, leanMassKg *float64) (BodyComposition, bool) {
	switch {
	case bodyFatPercent != nil:
		fatMass := weightKg * *bodyFatPercent / 100
		return BodyComposition{
			BodyFatPercent: *bodyFatPercent,
			FatMassKg:      round1(fatMass),
			LeanMassKg:     round1(weightKg - fatMass),
		}, true
	case leanMassKg != nil:
		fatMass := weightKg - *leanMassKg
		return BodyComposition{
			BodyFatPercent: round1(fatMass / weightKg * 100),
			FatMassKg:      round1(fatMass),
			LeanMassKg:     *leanMassKg,
		}, true
	default:
		return BodyComposition{}, false
	}
}

// MealSlots lists the slot keys for a meals-per-day value, falling back the
// same way DistributeMeals does.
func MealSlots(mealsPerDay int) []string {
	table, ok := mealTables[mealsPerDay]
	if !ok {
		table = mealTables[defaultMealsPerDay]
	}
	keys := make([]string, len(table))
	for i, slot := range table {
		keys[i] = slot.key
	}
	return keys
}

// round rounds half to even.
func round(v float64) int {
	return int(math.RoundToEven(v))
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
