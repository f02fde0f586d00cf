// Package memory implementa el Repository sobre mapas en memoria.
// Es el driver de desarrollo y tests: cero dependencias externas y la misma
// semántica de unicidad que los drivers persistentes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

type Store struct {
	mu      sync.RWMutex
	byID    map[string]*core.User
	byEmail map[string]string // email normalizado -> id
}

func New() *Store {
	return &Store{
		byID:    make(map[string]*core.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u == nil || u.ID == "" || u.Email == "" {
		return core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return core.ErrConflict
	}
	if _, taken := s.byID[u.ID]; taken {
		return core.ErrConflict
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	s.byID[u.ID] = u.Clone()
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) SetTOTPSecret(ctx context.Context, userID string, secret *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	if secret != nil {
		v := *secret
		u.TOTPSecret = &v
	} else {
		u.TOTPSecret = nil
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}
