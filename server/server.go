// Package server exposes profiles, menu analysis and the food tools over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tara/auth"
	"tara/calculator"
	"tara/store"
	"tara/tools"
)

const (
	DefaultBasePath       = "/api/v1"
	DefaultAnalyzeTimeout = 180 * time.Second
	serviceName           = "tara-api"
)

// Config for the HTTP API handler.
type Config struct {
	Auth           *auth.Service
	Store          *store.Store
	Jobs           JobRunner
	Analyzer       MenuAnalyzer
	Tools          *tools.Registry
	BasePath       string
	AnalyzeTimeout time.Duration
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"Perfil não encontrado"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope every failed request answers with.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Tara API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Auth == nil || cfg.Store == nil || cfg.Jobs == nil || cfg.Analyzer == nil {
		return nil, errors.New("server: auth, store, jobs and analyzer are required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = DefaultAnalyzeTimeout
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			msgs := make([]string, 0, len(errs))
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			details = map[string]any{"errors": msgs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)
	router.Use(newAuthMiddleware(basePath, cfg.Auth))

	hcfg := huma.DefaultConfig("Tara API", "1.0.0")
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(api)
	registerAuth(group, cfg.Auth)
	registerProfile(group, cfg.Store)
	registerAnalyze(group, cfg)
	if cfg.Tools != nil {
		registerTools(group, cfg.Tools)
	}

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps domain errors to the messages clients already know.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var ve *calculator.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"field": ve.Field})
	}
	var ie *tools.InputError
	if errors.As(err, &ie) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": ie.Field})
	}
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return newAPIError(http.StatusUnauthorized, "invalid_token", "Token inválido", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		return newAPIError(http.StatusUnauthorized, "user_not_found", "Usuário não encontrado", nil)
	case errors.Is(err, auth.ErrInvalidCredential):
		return newAPIError(http.StatusUnauthorized, "invalid_credentials", "ID token inválido.", nil)
	case errors.Is(err, auth.ErrIncompleteIdentity):
		return newAPIError(http.StatusBadRequest, "incomplete_identity", "Token do Google incompleto", nil)
	case errors.Is(err, auth.ErrAccountConflict):
		return newAPIError(http.StatusConflict, "account_conflict", "Conta já vinculada a outro Google", nil)
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return newAPIError(http.StatusUnauthorized, "invalid_refresh_token", "Refresh token inválido", nil)
	case errors.Is(err, tools.ErrFoodNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	slog.Error("SERVER: Unhandled error", "error", err)
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("SERVER: Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusBody struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service banner",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body statusBody `json:"body"`
	}, error) {
		return &struct {
			Body statusBody `json:"body"`
		}{Body: statusBody{Status: "ok", Service: serviceName}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body statusBody `json:"body"`
	}, error) {
		return &struct {
			Body statusBody `json:"body"`
		}{Body: statusBody{Status: "healthy"}}, nil
	})
}
