// Package auth contiene DTOs para los endpoints de autenticación.
package auth

import "time"

// SignupRequest representa la solicitud de registro.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPayload es la representación pública de un usuario.
type UserPayload struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SessionResponse representa una sesión emitida (signup, login y 2fa/verify).
type SessionResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         UserPayload `json:"user"`
}
