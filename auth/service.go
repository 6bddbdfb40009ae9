// Package auth signs users in with a delegated identity token and keeps them
// signed in with short-lived access tokens and rotating refresh tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tara/store"
)

// Login and Refresh failures the HTTP layer maps to client errors.
var (
	ErrIncompleteIdentity  = errors.New("identity token lacks subject or email")
	ErrAccountConflict     = errors.New("email already linked to another account")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

const defaultName = "Usuário"

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Service struct {
	verifier   Verifier
	issuer     *Issuer
	store      *store.Store
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(v Verifier, issuer *Issuer, s *store.Store, refreshTTL time.Duration) *Service {
	return &Service{verifier: v, issuer: issuer, store: s, refreshTTL: refreshTTL, now: time.Now}
}

// Login verifies credential, links or creates the user and issues tokens.
func (s *Service) Login(ctx context.Context, credential string) (Tokens, store.User, error) {
	id, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return Tokens{}, store.User{}, err
	}
	if id.Subject == "" || id.Email == "" {
		return Tokens{}, store.User{}, ErrIncompleteIdentity
	}
	if id.Name == "" {
		id.Name = defaultName
	}

	user, err := s.linkUser(ctx, id)
	if err != nil {
		return Tokens{}, store.User{}, err
	}

	tokens, refresh, err := s.issue(user)
	if err != nil {
		return Tokens{}, store.User{}, err
	}
	if err := s.store.RefreshTokens.Create(ctx, refresh); err != nil {
		return Tokens{}, store.User{}, fmt.Errorf("store refresh token: %w", err)
	}

	slog.Info("AUTH: User signed in", "user_id", user.ID)
	return tokens, user, nil
}

func (s *Service) linkUser(ctx context.Context, id Identity) (store.User, error) {
	user, err := s.store.Users.FindBySubject(ctx, id.Subject)
	switch {
	case err == nil:
		if user.Email == id.Email && user.Name == id.Name {
			return user, nil
		}
		user.Email, user.Name, user.EmailVerified = id.Email, id.Name, id.EmailVerified
		return s.store.Users.Update(ctx, user)
	case !errors.Is(err, store.ErrNotFound):
		return store.User{}, err
	}

	existing, err := s.store.Users.FindByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if existing.GoogleSub != "" {
			return store.User{}, ErrAccountConflict
		}
		existing.GoogleSub, existing.Name, existing.EmailVerified = id.Subject, id.Name, id.EmailVerified
		return s.store.Users.Update(ctx, existing)
	case !errors.Is(err, store.ErrNotFound):
		return store.User{}, err
	}

	return s.store.Users.Create(ctx, store.User{
		ID:            uuid.NewString(),
		Name:          id.Name,
		Email:         id.Email,
		GoogleSub:     id.Subject,
		EmailVerified: id.EmailVerified,
	})
}

// Refresh exchanges an active refresh token for a new pair. The old token is
// revoked and points at its replacement.
func (s *Service) Refresh(ctx context.Context, token string) (Tokens, error) {
	now := s.now()
	old, err := s.store.RefreshTokens.FindActive(ctx, HashToken(token), now)
	if errors.Is(err, store.ErrNotFound) {
		return Tokens{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return Tokens{}, err
	}

	user, err := s.store.Users.FindByID(ctx, old.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Tokens{}, ErrUserNotFound
	}
	if err != nil {
		return Tokens{}, err
	}

	tokens, next, err := s.issue(user)
	if err != nil {
		return Tokens{}, err
	}
	if err := s.store.RefreshTokens.Rotate(ctx, old.ID, next, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Tokens{}, ErrInvalidRefreshToken
		}
		return Tokens{}, err
	}

	slog.Info("AUTH: Refresh token rotated", "user_id", user.ID)
	return tokens, nil
}

// Authenticate resolves an access token to its user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (store.User, error) {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return store.User{}, err
	}
	user, err := s.store.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrUserNotFound
	}
	return user, err
}

func (s *Service) issue(user store.User) (Tokens, store.RefreshToken, error) {
	access, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return Tokens{}, store.RefreshToken{}, err
	}
	refresh, err := GenerateRefreshToken()
	if err != nil {
		return Tokens{}, store.RefreshToken{}, err
	}
	row := store.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: HashToken(refresh),
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	return Tokens{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, row, nil
}
