package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
	httperrors "github.com/MarouaBoud/Dynastia/internal/http/errors"
	"github.com/MarouaBoud/Dynastia/internal/http/helpers"
	svc "github.com/MarouaBoud/Dynastia/internal/http/services/auth"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	service svc.LoginService
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /auth/login
//
// Con segundo factor habilitado responde 200 con el marcador pendiente
// (requires2FA + userId) y NINGÚN token; sin segundo factor responde la
// sesión completa.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)

	if result.SecondFactor {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(dto.SecondFactorResponse{
			Requires2FA: true,
			UserID:      result.UserID,
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(sessionResponse(result.Session))
}

// ─── Helpers ───

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrLoginMissingFields):
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("email y password son obligatorios"))

	case errors.Is(err, svc.ErrLoginInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)

	default:
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
