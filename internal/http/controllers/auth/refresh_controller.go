package auth

import (
	"errors"
	"net/http"

	dto "github.com/MarouaBoud/Dynastia/internal/http/dto/auth"
	httperrors "github.com/MarouaBoud/Dynastia/internal/http/errors"
	"github.com/MarouaBoud/Dynastia/internal/http/helpers"
	svc "github.com/MarouaBoud/Dynastia/internal/http/services/auth"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
)

// RefreshController maneja el endpoint de refresh.
type RefreshController struct {
	service svc.RefreshService
}

// NewRefreshController crea un nuevo controller de refresh.
func NewRefreshController(service svc.RefreshService) *RefreshController {
	return &RefreshController{service: service}
}

// Refresh maneja POST /auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	access, err := c.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeRefreshError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{AccessToken: access})
}

// ─── Helpers ───

func writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrRefreshMissingToken):
		httperrors.WriteError(w, httperrors.ErrValidationFailed.WithDetail("refreshToken es obligatorio"))

	case errors.Is(err, svc.ErrRefreshExpired):
		httperrors.WriteError(w, httperrors.ErrTokenExpired)

	case errors.Is(err, svc.ErrRefreshInvalid):
		httperrors.WriteError(w, httperrors.ErrInvalidToken)

	default:
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
