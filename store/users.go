package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	ID            string
	Name          string
	Email         string
	GoogleSub     string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Users struct{ db *sql.DB }

const userColumns = `id, name, email, COALESCE(google_sub,''), email_verified, created_at, updated_at`

func (r Users) FindByID(ctx context.Context, id string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
}

func (r Users) FindBySubject(ctx context.Context, sub string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_sub=?`, sub)
}

func (r Users) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, email)
}

func (r Users) findOne(ctx context.Context, query string, arg any) (User, error) {
	var u User
	var created, updated string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.GoogleSub, &u.EmailVerified, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return User{}, err
	}
	return u, nil
}

// Create inserts u. CreatedAt and UpdatedAt default to now.
func (r Users) Create(ctx context.Context, u User) (User, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, google_sub, email_verified, created_at, updated_at) VALUES (?,?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, nullable(u.GoogleSub), u.EmailVerified, formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Update overwrites the mutable fields of the user with u.ID.
func (r Users) Update(ctx context.Context, u User) (User, error) {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name=?, email=?, google_sub=?, email_verified=?, updated_at=? WHERE id=?`,
		u.Name, u.Email, nullable(u.GoogleSub), u.EmailVerified, formatTime(u.UpdatedAt), u.ID)
	if err != nil {
		return User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, ErrNotFound
	}
	return r.FindByID(ctx, u.ID)
}
