package securestore

import (
	gocache "github.com/patrickmn/go-cache"
)

const sessionKey = "session"

// MemoryStore guarda el estado del cliente en memoria. Lo usan los tests y
// cualquier embedder que no quiera tocar disco; nada sobrevive al proceso.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemory crea un store en memoria vacío.
func NewMemory() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryStore) LoadSession() (*Session, error) {
	v, ok := m.c.Get(sessionKey)
	if !ok {
		return nil, nil
	}
	s := v.(Session)
	return &s, nil
}

func (m *MemoryStore) SaveSession(s Session) error {
	m.c.Set(sessionKey, s, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) ClearSession() error {
	m.c.Delete(sessionKey)
	return nil
}

func (m *MemoryStore) BiometricEnabled(userID string) bool {
	v, ok := m.c.Get(biometricKey(userID))
	if !ok {
		return false
	}
	return v.(bool)
}

func (m *MemoryStore) SetBiometricEnabled(userID string, enabled bool) error {
	if !enabled {
		m.c.Delete(biometricKey(userID))
		return nil
	}
	m.c.Set(biometricKey(userID), true, gocache.NoExpiration)
	return nil
}

func biometricKey(userID string) string {
	return "biometric:" + userID
}
