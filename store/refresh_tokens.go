package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy string
	CreatedAt  time.Time
}

type RefreshTokens struct{ db *sql.DB }

func (r RefreshTokens) Create(ctx context.Context, t RefreshToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens(id, user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)`,
		t.ID, t.UserID, t.TokenHash, formatTime(t.ExpiresAt), formatTime(t.CreatedAt))
	return err
}

// FindActive returns the unrevoked token with hash that expires after now.
func (r RefreshTokens) FindActive(ctx context.Context, hash string, now time.Time) (RefreshToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens
		 WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ? LIMIT 1`,
		hash, formatTime(now))

	var t RefreshToken
	var expires, created string
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return RefreshToken{}, err
	}
	if t.ExpiresAt, err = parseTime(expires); err != nil {
		return RefreshToken{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return RefreshToken{}, err
	}
	return t, nil
}

// Rotate inserts next and revokes oldID in favour of it, atomically. It
// fails with ErrNotFound when oldID was already revoked.
func (r RefreshTokens) Rotate(ctx context.Context, oldID string, next RefreshToken, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens(id, user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)`,
		next.ID, next.UserID, next.TokenHash, formatTime(next.ExpiresAt), formatTime(next.CreatedAt)); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=?, replaced_by=? WHERE id=? AND revoked_at IS NULL`,
		formatTime(now), next.ID, oldID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Get loads a token by id, including revocation details.
func (r RefreshTokens) Get(ctx context.Context, id string) (RefreshToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, COALESCE(replaced_by,''), created_at FROM refresh_tokens WHERE id=?`, id)

	var t RefreshToken
	var expires, created string
	var revoked sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &expires, &revoked, &t.ReplacedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return RefreshToken{}, err
	}
	if t.ExpiresAt, err = parseTime(expires); err != nil {
		return RefreshToken{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return RefreshToken{}, err
	}
	if revoked.Valid {
		at, err := parseTime(revoked.String)
		if err != nil {
			return RefreshToken{}, err
		}
		t.RevokedAt = &at
	}
	return t, nil
}
