package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"tara/calculator"
	"tara/store"
)

// profileDocument is the saved profile as clients read and write it.
type profileDocument struct {
	Profile             calculator.Input          `json:"profile"`
	TrainingPreferences store.TrainingPreferences `json:"training_preferences"`
}

type profileDocumentResponse struct {
	Body profileDocument `json:"body"`
}

func registerProfile(api huma.API, s *store.Store) {
	huma.Register(api, huma.Operation{
		OperationID: "get-my-profile",
		Method:      http.MethodGet,
		Path:        "/me/profile",
		Summary:     "Get the saved profile",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*profileDocumentResponse, error) {
		user, herr := userFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		p, err := s.Profiles.Get(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newAPIError(http.StatusNotFound, "not_found", "Perfil não encontrado", nil)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &profileDocumentResponse{Body: profileDocument{Profile: p.Input, TrainingPreferences: p.Training}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-my-profile",
		Method:      http.MethodPut,
		Path:        "/me/profile",
		Summary:     "Save the profile and training preferences",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, in *struct {
		Body profileDocument `json:"body"`
	}) (*profileDocumentResponse, error) {
		user, herr := userFromContext(ctx)
		if herr != nil {
			return nil, herr
		}
		input := in.Body.Profile.WithDefaults()
		if err := input.Validate(); err != nil {
			return nil, handleError(err)
		}
		saved, err := s.Profiles.Upsert(ctx, store.Profile{
			UserID:   user.ID,
			Input:    input,
			Training: in.Body.TrainingPreferences,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &profileDocumentResponse{Body: profileDocument{Profile: saved.Input, TrainingPreferences: saved.Training}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calculate-profile",
		Method:      http.MethodPost,
		Path:        "/profile",
		Summary:     "Calculate a nutrition profile",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, in *struct {
		Body calculator.Input `json:"body"`
	}) (*struct {
		Body calculator.Profile `json:"body"`
	}, error) {
		input := in.Body.WithDefaults()
		if err := input.Validate(); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body calculator.Profile `json:"body"`
		}{Body: calculator.Calculate(input)}, nil
	})
}
