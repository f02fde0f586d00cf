package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
	httperrors "github.com/MarouaBoud/Dynastia/internal/http/errors"
	"github.com/MarouaBoud/Dynastia/internal/http/helpers"
	"github.com/MarouaBoud/Dynastia/internal/http/middlewares"
	svc "github.com/MarouaBoud/Dynastia/internal/http/services/auth"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
)

// MFATOTPController maneja los endpoints del segundo factor.
type MFATOTPController struct {
	service svc.MFATOTPService
}

// NewMFATOTPController crea el controller del segundo factor.
func NewMFATOTPController(service svc.MFATOTPService) *MFATOTPController {
	return &MFATOTPController{service: service}
}

// Enroll maneja POST /auth/2fa/enable (requiere bearer token).
// La respuesta contiene el secreto: nunca debe cachearse.
func (c *MFATOTPController) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MFATOTPController.Enroll"))

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	result, err := c.service.Enroll(ctx, userID)
	if err != nil {
		log.Debug("enroll failed", logger.Err(err))
		writeMFAError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.EnableTOTPResponse{
		Secret:          result.Secret,
		ProvisioningURI: result.ProvisioningURI,
	})
}

// Verify maneja POST /auth/2fa/verify.
// No requiere bearer: el usuario se identifica por el id pendiente del login.
func (c *MFATOTPController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MFATOTPController.Verify"))

	var req dto.VerifyTOTPRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Token) == "" {
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("userId y token son obligatorios"))
		return
	}

	session, err := c.service.Verify(ctx, req.UserID, req.Token)
	if err != nil {
		log.Debug("verify failed", logger.Err(err))
		writeMFAError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(sessionResponse(session))
}

// Disable maneja POST /auth/2fa/disable (requiere bearer token).
// Idempotente: deshabilitar dos veces seguidas no es un error.
func (c *MFATOTPController) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MFATOTPController.Disable"))

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	if err := c.service.Disable(ctx, userID); err != nil {
		log.Debug("disable failed", logger.Err(err))
		writeMFAError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.DisableTOTPResponse{
		Message: "segundo factor deshabilitado",
	})
}

// ─── Helpers ───

func writeMFAError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMFAUserNotFound):
		// El token era válido pero el usuario ya no existe: para el
		// cliente es indistinguible de no estar autenticado.
		httperrors.WriteError(w, httperrors.ErrUnauthorized)

	case errors.Is(err, svc.ErrMFANotEnabled):
		httperrors.WriteError(w, httperrors.ErrTOTPNotEnabled)

	case errors.Is(err, svc.ErrMFAInvalidCode):
		httperrors.WriteError(w, httperrors.ErrInvalidTOTP)

	default:
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
