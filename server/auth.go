package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"tara/auth"
	"tara/store"
)

type userKey struct{}

func withUser(ctx context.Context, u store.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFromContext(ctx context.Context) (store.User, huma.StatusError) {
	if u, ok := ctx.Value(userKey{}).(store.User); ok && u.ID != "" {
		return u, nil
	}
	return store.User{}, newAPIError(http.StatusUnauthorized, "unauthorized", "Token inválido", nil)
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// newAuthMiddleware requires a valid access token on every route under
// basePath except the sign-in and refresh endpoints.
func newAuthMiddleware(basePath string, svc *auth.Service) func(http.Handler) http.Handler {
	authPrefix := path.Join(basePath, "auth") + "/"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, basePath+"/") || strings.HasPrefix(req.URL.Path, authPrefix) {
				next.ServeHTTP(w, req)
				return
			}

			token, ok := bearerToken(strings.TrimSpace(req.Header.Get("Authorization")))
			if !ok {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "Token inválido", nil))
				return
			}
			user, err := svc.Authenticate(req.Context(), token)
			if err != nil {
				respondStatusError(w, handleError(err))
				return
			}
			next.ServeHTTP(w, req.WithContext(withUser(req.Context(), user)))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}

type loginRequest struct {
	IDToken string `json:"id_token" minLength:"1" doc:"Identity token from the sign-in provider"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" minLength:"1"`
}

type tokensResponse struct {
	Body auth.Tokens `json:"body"`
}

func registerAuth(api huma.API, svc *auth.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "auth-google",
		Method:      http.MethodPost,
		Path:        "/auth/google",
		Summary:     "Sign in with an identity token",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict},
	}, func(ctx context.Context, in *struct {
		Body loginRequest `json:"body"`
	}) (*tokensResponse, error) {
		tokens, _, err := svc.Login(ctx, in.Body.IDToken)
		if err != nil {
			return nil, handleError(err)
		}
		return &tokensResponse{Body: tokens}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "auth-refresh",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Rotate a refresh token",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, in *struct {
		Body refreshRequest `json:"body"`
	}) (*tokensResponse, error) {
		tokens, err := svc.Refresh(ctx, in.Body.RefreshToken)
		if err != nil {
			return nil, handleError(err)
		}
		return &tokensResponse{Body: tokens}, nil
	})
}
