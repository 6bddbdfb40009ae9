package calculator

import "fmt"

const (
	DefaultDeficitPercent = 0.20
	DefaultMealsPerDay    = 3
	MaxMealsPerDay        = 12
)

// Input is the raw body and activity data a profile is computed from.
type Input struct {
	WeightKg       float64       `json:"weight_kg"`
	HeightCm       float64       `json:"height_cm"`
	Age            int           `json:"age"`
	Sex            Sex           `json:"sex"`
	ActivityLevel  ActivityLevel `json:"activity_level"`
	DeficitPercent float64       `json:"deficit_percent,omitempty"`
	MealsPerDay    int           `json:"meals_per_day,omitempty"`
	BodyFatPercent *float64      `json:"body_fat_percent,omitempty"`
	LeanMassKg     *float64      `json:"lean_mass_kg,omitempty"`
}

// ValidationError reports an input field outside its domain.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// WithDefaults fills the optional deficit and meal count.
func (in Input) WithDefaults() Input {
	if in.DeficitPercent == 0 {
		in.DeficitPercent = DefaultDeficitPercent
	}
	if in.MealsPerDay == 0 {
		in.MealsPerDay = DefaultMealsPerDay
	}
	return in
}

// Validate checks the ranges Calculate relies on. Call WithDefaults first.
func (in Input) Validate() error {
	switch {
	case in.WeightKg <= 0:
		return &ValidationError{Field: "weight_kg", Reason: "must be greater than 0"}
	case in.HeightCm <= 0:
		return &ValidationError{Field: "height_cm", Reason: "must be greater than 0"}
	case in.Age <= 0:
		return &ValidationError{Field: "age", Reason: "must be greater than 0"}
	}

	if in.Sex != Male && in.Sex != Female {
		return &ValidationError{Field: "sex", Reason: fmt.Sprintf("unknown value %q", in.Sex)}
	}
	if _, ok := activityMultipliers[in.ActivityLevel]; !ok {
		return &ValidationError{Field: "activity_level", Reason: fmt.Sprintf("unknown value %q", in.ActivityLevel)}
	}
	if in.DeficitPercent <= 0 || in.DeficitPercent > 1 {
		return &ValidationError{Field: "deficit_percent", Reason: "must be in (0, 1]"}
	}
	if in.MealsPerDay < 1 || in.MealsPerDay > MaxMealsPerDay {
		return &ValidationError{Field: "meals_per_day", Reason: fmt.Sprintf("must be between 1 and %d", MaxMealsPerDay)}
	}
	if in.BodyFatPercent != nil && (*in.BodyFatPercent <= 0 || *in.BodyFatPercent > 100) {
		return &ValidationError{Field: "body_fat_percent", Reason: "must be in (0, 100]"}
	}
	if in.LeanMassKg != nil && *in.LeanMassKg <= 0 {
		return &ValidationError{Field: "lean_mass_kg", Reason: "must be greater than 0"}
	}
	return nil
}

// ActivityLevels lists the known levels from least to most active.
func ActivityLevels() []ActivityLevel {
	return []ActivityLevel{Sedentary, Light, Moderate, Active, VeryActive}
}
