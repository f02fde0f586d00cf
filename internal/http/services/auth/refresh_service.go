package auth

import (
	"context"
	"errors"
	"strings"

	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
)

// RefreshService define la operación de refresh del access token.
type RefreshService interface {
	// Refresh verifica el refresh token y emite SOLO un access token nuevo.
	// El refresh token no rota ni se revoca; sigue válido hasta su expiración.
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type refreshService struct {
	deps Deps
}

// NewRefreshService crea un nuevo refresh service.
func NewRefreshService(deps Deps) RefreshService {
	return &refreshService{deps: deps}
}

// Refresh errors (sentinel)
var (
	ErrRefreshMissingToken = errors.New("missing refresh token")
	ErrRefreshExpired      = errors.New("refresh token expired")
	ErrRefreshInvalid      = errors.New("refresh token invalid")
	ErrRefreshTokenFailed  = errors.New("failed to issue access token")
)

func (s *refreshService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", ErrRefreshMissingToken
	}

	payload, err := s.deps.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwtx.ErrTokenExpired) {
			log.Debug("refresh token expired")
			return "", ErrRefreshExpired
		}
		log.Debug("refresh token invalid", logger.Err(err))
		return "", ErrRefreshInvalid
	}

	// Fetch fresco del usuario: el claim de refresh solo trae el id y el
	// access nuevo necesita el email actual.
	u, err := s.deps.Repo.GetUserByID(ctx, payload.UserID)
	if err != nil {
		log.Debug("user no longer exists")
		return "", ErrRefreshInvalid
	}

	access, _, err := s.deps.Codec.IssueAccess(u.ID, u.Email)
	if err != nil {
		log.Error("failed to issue access token", logger.Err(err))
		return "", ErrRefreshTokenFailed
	}

	log.Info("access token refreshed", logger.UserID(u.ID))
	return access, nil
}
