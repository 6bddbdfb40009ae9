package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"tara/analysis"
	"tara/calculator"
	"tara/jobs"
	"tara/prompt"
	"tara/store"
)

// JobRunner is satisfied by *jobs.Tracker.
type JobRunner interface {
	Submit(work jobs.Work, timeout time.Duration) string
	Get(id string) (jobs.Job, bool)
}

// MenuAnalyzer is satisfied by *analysis.Analyzer.
type MenuAnalyzer interface {
	AnalyzeMenu(ctx context.Context, p calculator.Profile, menu, mealType string) (analysis.Recommendation, error)
}

type analyzeRequest struct {
	MenuText string `json:"menu_text" minLength:"1" doc:"Menu as free text"`
	MealType string `json:"meal_type,omitempty" default:"almoco" doc:"Meal slot key, e.g. almoco or jantar"`
}

type analyzeAccepted struct {
	JobID string `json:"job_id"`
}

type jobStatus struct {
	Status jobs.Status `json:"status"`
	Result any         `json:"result"`
	Error  *string     `json:"error"`
}

func registerAnalyze(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-menu",
		Method:      http.MethodPost,
		Path:        "/analyze",
		Summary:     "Start a menu analysis",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, in *struct {
		Body analyzeRequest `json:"body"`
	}) (*struct {
		Body analyzeAccepted `json:"body"`
	}, error) {
		user, herr := userFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		saved, err := cfg.Store.Profiles.Get(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newAPIError(http.StatusForbidden, "profile_incomplete", "Perfil incompleto", nil)
		}
		if err != nil {
			return nil, handleError(err)
		}
		input := saved.Input.WithDefaults()
		if err := input.Validate(); err != nil {
			return nil, newAPIError(http.StatusForbidden, "profile_incomplete", "Perfil incompleto", nil)
		}

		profile := calculator.Calculate(input)
		menu := in.Body.MenuText
		mealType := in.Body.MealType
		if mealType == "" {
			mealType = prompt.DefaultMealType
		}
		id := cfg.Jobs.Submit(func(ctx context.Context) (any, error) {
			rec, err := cfg.Analyzer.AnalyzeMenu(ctx, profile, menu, mealType)
			if err != nil {
				return nil, err
			}
			return analysis.Result{Profile: profile, Recommendation: rec}, nil
		}, cfg.AnalyzeTimeout)

		return &struct {
			Body analyzeAccepted `json:"body"`
		}{Body: analyzeAccepted{JobID: id}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-analysis",
		Method:      http.MethodGet,
		Path:        "/analyze/{job_id}",
		Summary:     "Poll a menu analysis",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, in *struct {
		JobID string `path:"job_id"`
	}) (*struct {
		Body jobStatus `json:"body"`
	}, error) {
		job, ok := cfg.Jobs.Get(in.JobID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "Job não encontrado", nil)
		}
		body := jobStatus{Status: job.Status, Result: job.Result}
		if job.Error != "" {
			msg := job.Error
			body.Error = &msg
		}
		return &struct {
			Body jobStatus `json:"body"`
		}{Body: body}, nil
	})
}
