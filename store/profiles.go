package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"tara/calculator"
)

type ExperienceLevel string

const (
	Beginner     ExperienceLevel = "iniciante"
	Intermediate ExperienceLevel = "intermediario"
	Advanced     ExperienceLevel = "avancado"
)

type Equipment string

const (
	FullGym     Equipment = "academia_completa"
	BuildingGym Equipment = "academia_predio"
	Home        Equipment = "casa"
)

type TrainingPreferences struct {
	DaysAvailable    []string        `json:"days_available" minItems:"1"`
	SessionMinutes   int             `json:"session_minutes" minimum:"10" maximum:"300"`
	MusclePriorities []string        `json:"muscle_priorities" minItems:"1" maxItems:"3"`
	ExperienceLevel  ExperienceLevel `json:"experience_level" enum:"iniciante,intermediario,avancado"`
	Equipment        Equipment       `json:"equipment" enum:"academia_completa,academia_predio,casa"`
}

// Profile is what a user saved about themselves: the calculator input plus
// training preferences. Both halves are required for analysis.
type Profile struct {
	UserID    string
	Input     calculator.Input
	Training  TrainingPreferences
	UpdatedAt time.Time
}

type Profiles struct{ db *sql.DB }

// Get returns ErrNotFound unless both the profile and the training
// preferences exist.
func (r Profiles) Get(ctx context.Context, userID string) (Profile, error) {
	p := Profile{UserID: userID}
	var bodyFat, leanMass sql.NullFloat64
	var updated string
	err := r.db.QueryRowContext(ctx,
		`SELECT weight_kg, height_cm, age, sex, activity_level, deficit_percent, meals_per_day, body_fat_percent, lean_mass_kg, updated_at
		 FROM user_profiles WHERE user_id=?`, userID).
		Scan(&p.Input.WeightKg, &p.Input.HeightCm, &p.Input.Age, &p.Input.Sex, &p.Input.ActivityLevel,
			&p.Input.DeficitPercent, &p.Input.MealsPerDay, &bodyFat, &leanMass, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if bodyFat.Valid {
		p.Input.BodyFatPercent = &bodyFat.Float64
	}
	if leanMass.Valid {
		p.Input.LeanMassKg = &leanMass.Float64
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return Profile{}, err
	}

	var days, muscles string
	err = r.db.QueryRowContext(ctx,
		`SELECT days_available, session_minutes, muscle_priorities, experience_level, equipment
		 FROM training_preferences WHERE user_id=?`, userID).
		Scan(&days, &p.Training.SessionMinutes, &muscles, &p.Training.ExperienceLevel, &p.Training.Equipment)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal([]byte(days), &p.Training.DaysAvailable); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal([]byte(muscles), &p.Training.MusclePriorities); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Upsert saves both halves of the profile in one transaction.
func (r Profiles) Upsert(ctx context.Context, p Profile) (Profile, error) {
	days, err := json.Marshal(p.Training.DaysAvailable)
	if err != nil {
		return Profile{}, err
	}
	muscles, err := json.Marshal(p.Training.MusclePriorities)
	if err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	now := formatTime(p.UpdatedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, err
	}
	defer tx.Rollback()

	in := p.Input
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_profiles(user_id, weight_kg, height_cm, age, sex, activity_level, deficit_percent, meals_per_day, body_fat_percent, lean_mass_kg, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   weight_kg=excluded.weight_kg, height_cm=excluded.height_cm, age=excluded.age, sex=excluded.sex,
		   activity_level=excluded.activity_level, deficit_percent=excluded.deficit_percent,
		   meals_per_day=excluded.meals_per_day, body_fat_percent=excluded.body_fat_percent,
		   lean_mass_kg=excluded.lean_mass_kg, updated_at=excluded.updated_at`,
		p.UserID, in.WeightKg, in.HeightCm, in.Age, string(in.Sex), string(in.ActivityLevel),
		in.DeficitPercent, in.MealsPerDay, in.BodyFatPercent, in.LeanMassKg, now); err != nil {
		return Profile{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO training_preferences(user_id, days_available, session_minutes, muscle_priorities, experience_level, equipment, updated_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   days_available=excluded.days_available, session_minutes=excluded.session_minutes,
		   muscle_priorities=excluded.muscle_priorities, experience_level=excluded.experience_level,
		   equipment=excluded.equipment, updated_at=excluded.updated_at`,
		p.UserID, string(days), p.Training.SessionMinutes, string(muscles),
		string(p.Training.ExperienceLevel), string(p.Training.Equipment), now); err != nil {
		return Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
