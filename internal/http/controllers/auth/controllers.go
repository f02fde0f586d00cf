// Package auth contiene los controllers de autenticación.
package auth

import (
	"github.com/go-chi/chi/v5"

	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
	"github.com/MarouaBoud/Dynastia/internal/http/middlewares"
	svc "github.com/MarouaBoud/Dynastia/internal/http/services/auth"
	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Signup  *SignupController
	Login   *LoginController
	Refresh *RefreshController
	MFATOTP *MFATOTPController

	codec *jwtx.Codec
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, codec *jwtx.Codec) *Controllers {
	return &Controllers{
		Signup:  NewSignupController(s.Register),
		Login:   NewLoginController(s.Login),
		Refresh: NewRefreshController(s.Refresh),
		MFATOTP: NewMFATOTPController(s.MFA),
		codec:   codec,
	}
}

// Register monta las rutas del dominio auth.
// Las respuestas con tokens llevan Cache-Control: no-store.
func (c *Controllers) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middlewares.WithNoStore())
		r.Post("/auth/signup", c.Signup.Signup)
		r.Post("/auth/login", c.Login.Login)
		r.Post("/auth/refresh", c.Refresh.Refresh)
		r.Post("/auth/2fa/verify", c.MFATOTP.Verify)
	})

	// Rutas protegidas: requieren access token válido
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireAuth(c.codec))
		r.Use(middlewares.WithNoStore())
		r.Post("/auth/2fa/enable", c.MFATOTP.Enroll)
		r.Post("/auth/2fa/disable", c.MFATOTP.Disable)
	})
}

// ─── Helpers ───

func sessionResponse(s *svc.Session) dto.SessionResponse {
	return dto.SessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User: dto.UserPayload{
			ID:               s.User.ID,
			Email:            s.User.Email,
			TwoFactorEnabled: s.User.TwoFactorEnabled(),
			CreatedAt:        s.User.CreatedAt,
		},
	}
}
