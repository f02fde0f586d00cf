// Package pg implementa el Repository sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

type Config struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

type Store struct{ pool *pgxpool.Pool }

func New(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (migraciones, métricas).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u == nil || u.ID == "" || u.Email == "" {
		return core.ErrInvalid
	}
	// ON CONFLICT DO NOTHING + RETURNING: si el email ya existía no hay fila
	// y el Scan devuelve ErrNoRows, que acá significa conflicto.
	const q = `
INSERT INTO app_user (id, email, password_hash, totp_secret)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO NOTHING
RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, q, u.ID, u.Email, u.PasswordHash, u.TOTPSecret).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `
SELECT id, email, password_hash, totp_secret, created_at, updated_at
FROM app_user WHERE id = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	const q = `
SELECT id, email, password_hash, totp_secret, created_at, updated_at
FROM app_user WHERE email = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *Store) SetTOTPSecret(ctx context.Context, userID string, secret *string) error {
	const q = `UPDATE app_user SET totp_secret = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, userID, secret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TOTPSecret, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
