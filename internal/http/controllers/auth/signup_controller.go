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

// SignupController maneja el endpoint de registro.
type SignupController struct {
	service svc.RegisterService
}

// NewSignupController crea un nuevo controller de registro.
func NewSignupController(service svc.RegisterService) *SignupController {
	return &SignupController{service: service}
}

// Signup maneja POST /auth/signup
func (c *SignupController) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignupController.Signup"))

	var req dto.SignupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	session, err := c.service.Register(ctx, req.Email, req.Password)
	if err != nil {
		log.Debug("signup failed", logger.Err(err))
		writeSignupError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(sessionResponse(session))
}

// ─── Helpers ───

func writeSignupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrRegisterMissingFields):
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("email y password son obligatorios"))

	case errors.Is(err, svc.ErrRegisterInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("email inválido"))

	case errors.Is(err, svc.ErrRegisterWeakPassword):
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("el password debe tener al menos 8 caracteres"))

	case errors.Is(err, svc.ErrRegisterEmailTaken):
		httperrors.WriteError(w, httperrors.ErrEmailTaken)

	default:
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
