// Package redis implementa el Repository sobre Redis: registros de usuario
// como JSON bajo una clave por id, más un índice email -> id cuyo SETNX
// aporta la garantía de unicidad.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

type Config struct {
	Addr     string
	DB       int
	Password string
	Prefix   string
}

type Store struct {
	c      *rdb.Client
	prefix string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	c := rdb.NewClient(&rdb.Options{Addr: cfg.Addr, DB: cfg.DB, Password: cfg.Password})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "dynastia"
	}
	return &Store{c: c, prefix: prefix}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

func (s *Store) Close() error { return s.c.Close() }

// registro persistido. Tags JSON propios para no atar el formato en Redis al
// tipo del dominio.
type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	TOTPSecret   *string   `json:"totp_secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *Store) idKey(id string) string       { return fmt.Sprintf("%s:user:id:%s", s.prefix, id) }
func (s *Store) emailKey(email string) string { return fmt.Sprintf("%s:user:email:%s", s.prefix, email) }

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u == nil || u.ID == "" || u.Email == "" {
		return core.ErrInvalid
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	// SETNX sobre el índice de email: si la clave ya estaba, el email está
	// tomado. Es la única fuente de unicidad.
	ok, err := s.c.SetNX(ctx, s.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrConflict
	}

	b, err := json.Marshal(toRecord(u))
	if err != nil {
		return err
	}
	if err := s.c.Set(ctx, s.idKey(u.ID), b, 0).Err(); err != nil {
		// liberar el índice para no dejar un email reservado sin registro
		_ = s.c.Del(ctx, s.emailKey(u.Email)).Err()
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	b, err := s.c.Get(ctx, s.idKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	var rec userRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return fromRecord(&rec), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	id, err := s.c.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) SetTOTPSecret(ctx context.Context, userID string, secret *string) error {
	key := s.idKey(userID)
	// WATCH/MULTI: el read-modify-write del registro corre serializado;
	// si otro cliente toca la clave en el medio, go-redis reintenta acá.
	txn := func(tx *rdb.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, rdb.Nil) {
				return core.ErrNotFound
			}
			return err
		}
		var rec userRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return err
		}
		if secret != nil {
			v := *secret
			rec.TOTPSecret = &v
		} else {
			rec.TOTPSecret = nil
		}
		rec.UpdatedAt = time.Now().UTC()
		nb, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rdb.Pipeliner) error {
			pipe.Set(ctx, key, nb, 0)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := s.c.Watch(ctx, txn, key)
		if !errors.Is(err, rdb.TxFailedErr) {
			return err
		}
	}
	return rdb.TxFailedErr
}

func toRecord(u *core.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		TOTPSecret:   u.TOTPSecret,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromRecord(r *userRecord) *core.User {
	return &core.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		TOTPSecret:   r.TOTPSecret,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
