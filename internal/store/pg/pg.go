// Package pg implementa el profile store sobre PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id            TEXT PRIMARY KEY,
    email              TEXT NOT NULL,
    credential_locator TEXT,
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS user_profiles_email_idx ON user_profiles (lower(email));
`

// Store implementa core.ProfileRepository sobre PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New conecta el pool y asegura el esquema.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: connecting: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ensuring schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close libera el pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) GetByUserID(ctx context.Context, userID string) (*core.Profile, error) {
	return s.get(ctx,
		`SELECT user_id, email, COALESCE(credential_locator, ''), created_at, updated_at
		   FROM user_profiles WHERE user_id = $1`, userID)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*core.Profile, error) {
	return s.get(ctx,
		`SELECT user_id, email, COALESCE(credential_locator, ''), created_at, updated_at
		   FROM user_profiles WHERE lower(email) = lower($1)`, email)
}

func (s *Store) get(ctx context.Context, query, arg string) (*core.Profile, error) {
	var p core.Profile
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&p.UserID, &p.Email, &p.CredentialLocator, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("pg: querying profile: %w", err)
	}
	return &p, nil
}

func (s *Store) Put(ctx context.Context, p *core.Profile) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, email, credential_locator, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.UserID, strings.ToLower(p.Email), nullIfEmpty(p.CredentialLocator), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.ErrDuplicate
		}
		return fmt.Errorf("pg: inserting profile: %w", err)
	}
	return nil
}

func (s *Store) UpdateCredentialLocator(ctx context.Context, userID, locator string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_profiles SET credential_locator = $2, updated_at = $3 WHERE user_id = $1`,
		userID, locator, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("pg: updating credential locator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
