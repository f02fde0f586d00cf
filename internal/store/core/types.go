package core

import "time"

// User es el registro de identidad. El email se guarda ya normalizado en
// minúsculas; la unicidad es sobre esa forma.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	// TOTPSecret en base32. nil o vacío = segundo factor deshabilitado.
	TOTPSecret *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TwoFactorEnabled indica si el usuario tiene el segundo factor activo.
// La presencia del secreto ES el flag: no hay estado intermedio.
func (u *User) TwoFactorEnabled() bool {
	return u != nil && u.TOTPSecret != nil && *u.TOTPSecret != ""
}

// Clone devuelve una copia independiente (los adapters en memoria la usan
// para no compartir punteros con el caller).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.TOTPSecret != nil {
		s := *u.TOTPSecret
		cp.TOTPSecret = &s
	}
	return &cp
}
