package core

import "context"

// Repository es el contrato mínimo de persistencia: un almacén clave-valor
// por id y por email, con unicidad sobre el email. Las únicas mutaciones son
// el alta y el toggle del secreto TOTP, ambas naturalmente serializables por
// el backend.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	// CreateUser da de alta el usuario. ErrConflict si el email ya existe.
	CreateUser(ctx context.Context, u *User) error

	// GetUserByID retorna ErrNotFound si no existe.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail espera el email ya normalizado. ErrNotFound si no existe.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetTOTPSecret setea (o limpia con nil) el secreto del segundo factor
	// y actualiza el timestamp. ErrNotFound si el usuario no existe.
	SetTOTPSecret(ctx context.Context, userID string, secret *string) error
}
