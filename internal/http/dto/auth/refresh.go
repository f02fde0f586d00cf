package auth

// RefreshRequest representa la solicitud de refresh.
// El refresh token viaja en el body, no en headers.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse representa la respuesta de refresh.
// Solo se emite un access token nuevo; el refresh token NO rota.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
