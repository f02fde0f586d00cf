package auth

// LoginRequest representa la solicitud de login por password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SecondFactorResponse representa la respuesta cuando el segundo factor
// es requerido: no se emite ningún token, solo el marcador pendiente.
type SecondFactorResponse struct {
	Requires2FA bool   `json:"requires2FA"`
	UserID      string `json:"userId"`
}
