package auth

// EnableTOTPResponse representa la respuesta de POST /auth/2fa/enable.
type EnableTOTPResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningURI"`
}

// VerifyTOTPRequest representa la solicitud de POST /auth/2fa/verify.
// El usuario se identifica por el id pendiente que devolvió el login,
// no por un token.
type VerifyTOTPRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// DisableTOTPResponse representa la respuesta de POST /auth/2fa/disable.
type DisableTOTPResponse struct {
	Message string `json:"message"`
}
