// Package store persists users, refresh tokens and saved profiles in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// timeLayout is fixed width so stored timestamps compare as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

type Store struct {
	DB            *sql.DB
	Users         Users
	RefreshTokens RefreshTokens
	Profiles      Profiles
}

// Open opens (creating if needed) the database at path with foreign keys on
// and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return New(conn), nil
}

func New(db *sql.DB) *Store {
	return &Store{
		DB:            db,
		Users:         Users{db: db},
		RefreshTokens: RefreshTokens{db: db},
		Profiles:      Profiles{db: db},
	}
}

func (s *Store) Close() error { return s.DB.Close() }

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
