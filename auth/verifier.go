package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what an identity provider vouches for.
type Identity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Verifier checks an identity credential (a provider ID token).
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

var ErrInvalidCredential = errors.New("invalid identity token")

type identityClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
}

// DevVerifier accepts HS256 identity tokens signed with a shared secret. It
// stands in for a real provider in development and tests.
type DevVerifier struct {
	secret    []byte
	audiences []string
	now       func() time.Time
}

// NewDevVerifier verifies tokens signed with secret. When audiences is not
// empty the token's aud must contain one of them.
func NewDevVerifier(secret string, audiences []string) *DevVerifier {
	return &DevVerifier{secret: []byte(secret), audiences: audiences, now: time.Now}
}

func (v *DevVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	claims := &identityClaims{}
	parsed, err := parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidCredential
	}
	if len(v.audiences) > 0 && !slices.ContainsFunc(claims.Audience, func(a string) bool {
		return slices.Contains(v.audiences, a)
	}) {
		return Identity{}, ErrInvalidCredential
	}

	verified := true
	if claims.EmailVerified != nil {
		verified = *claims.EmailVerified
	}
	return Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: verified,
	}, nil
}

// SignDevIdentity mints a token DevVerifier accepts.
func SignDevIdentity(secret string, id Identity, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	verified := id.EmailVerified
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:         id.Email,
		Name:          id.Name,
		EmailVerified: &verified,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign identity: %w", err)
	}
	return token, nil
}

// StaticVerifier maps credentials to fixed identities.
type StaticVerifier map[string]Identity

func (v StaticVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	id, ok := v[credential]
	if !ok {
		return Identity{}, ErrInvalidCredential
	}
	return id, nil
}
