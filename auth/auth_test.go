package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/store"
)

const secret = "test-secret"

func TestIssuer(t *testing.T) {
	iss := NewIssuer(secret, 15*time.Minute)

	token, err := iss.Issue("user-1", "ana@example.com")
	require.NoError(t, err)

	claims, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 2*time.Second)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer(secret, 15*time.Minute)
	good, err := iss.Issue("user-1", "ana@example.com")
	require.NoError(t, err)

	expired := NewIssuer(secret, 15*time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue("user-1", "ana@example.com")
	require.NoError(t, err)

	refreshType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             "refresh",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             tokenTypeAccess,
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: mustIssue(t, NewIssuer("other", time.Minute))},
		{name: "expired", token: old},
		{name: "wrong type", token: refreshType},
		{name: "no subject", token: noSubject},
		{name: "garbage", token: "abc.def.ghi"},
		{name: "empty", token: ""},
		{name: "tampered", token: good + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func mustIssue(t *testing.T, iss *Issuer) string {
	t.Helper()
	tok, err := iss.Issue("user-1", "ana@example.com")
	require.NoError(t, err)
	return tok
}

func TestRefreshTokenHelpers(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashToken(""))
}

func TestDevVerifier(t *testing.T) {
	id := Identity{Subject: "g-1", Email: "ana@example.com", Name: "Ana", EmailVerified: true}
	token, err := SignDevIdentity(secret, id, "tara-web", time.Hour)
	require.NoError(t, err)

	got, err := NewDevVerifier(secret, []string{"tara-web", "tara-android"}).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = NewDevVerifier(secret, []string{"someone-else"}).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewDevVerifier("wrong", nil).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	got, err = NewDevVerifier(secret, nil).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "g-1", got.Subject)
}

func newTestService(t *testing.T, v Verifier) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(v, NewIssuer(secret, 15*time.Minute), s, 30*24*time.Hour), s
}

func TestLogin_CreatesThenReusesUser(t *testing.T) {
	svc, st := newTestService(t, StaticVerifier{
		"cred": {Subject: "g-1", Email: "ana@example.com", EmailVerified: true},
	})
	ctx := context.Background()

	tokens, user, err := svc.Login(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Usuário", user.Name)

	authed, err := svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, again, err := svc.Login(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, err = st.RefreshTokens.FindActive(ctx, HashToken(tokens.RefreshToken), time.Now())
	assert.NoError(t, err, "refresh token stored hashed")
}

func TestLogin_LinksByEmail(t *testing.T) {
	svc, st := newTestService(t, StaticVerifier{
		"cred": {Subject: "g-1", Email: "ana@example.com", Name: "Ana"},
	})
	ctx := context.Background()

	_, err := st.Users.Create(ctx, store.User{ID: "legacy", Name: "Ana Antiga", Email: "ana@example.com"})
	require.NoError(t, err)

	_, user, err := svc.Login(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, "legacy", user.ID)
	assert.Equal(t, "g-1", user.GoogleSub)
	assert.Equal(t, "Ana", user.Name)
}

func TestLogin_Errors(t *testing.T) {
	svc, st := newTestService(t, StaticVerifier{
		"other-sub":  {Subject: "g-2", Email: "ana@example.com"},
		"no-email":   {Subject: "g-3"},
		"no-subject": {Email: "x@example.com"},
	})
	ctx := context.Background()

	_, err := st.Users.Create(ctx, store.User{ID: "u1", Name: "Ana", Email: "ana@example.com", GoogleSub: "g-1"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "other-sub")
	assert.ErrorIs(t, err, ErrAccountConflict)

	_, _, err = svc.Login(ctx, "no-email")
	assert.ErrorIs(t, err, ErrIncompleteIdentity)

	_, _, err = svc.Login(ctx, "no-subject")
	assert.ErrorIs(t, err, ErrIncompleteIdentity)

	_, _, err = svc.Login(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRefresh_Rotates(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{"cred": {Subject: "g-1", Email: "ana@example.com"}})
	ctx := context.Background()

	first, _, err := svc.Login(ctx, "cred")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old token revoked")

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)

	_, err = svc.Refresh(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_Expired(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{"cred": {Subject: "g-1", Email: "ana@example.com"}})
	ctx := context.Background()

	tokens, _, err := svc.Login(ctx, "cred")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	svc, st := newTestService(t, StaticVerifier{"cred": {Subject: "g-1", Email: "ana@example.com"}})
	ctx := context.Background()

	tokens, user, err := svc.Login(ctx, "cred")
	require.NoError(t, err)

	_, err = st.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, user.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
