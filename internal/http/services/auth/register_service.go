package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
	"github.com/MarouaBoud/Dynastia/internal/security/password"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
	"github.com/MarouaBoud/Dynastia/internal/util"
	"github.com/MarouaBoud/Dynastia/internal/validation"
	"github.com/google/uuid"
)

// RegisterService define la operación de registro de usuarios.
type RegisterService interface {
	Register(ctx context.Context, email, plainPassword string) (*Session, error)
}

type registerService struct {
	deps Deps
}

// NewRegisterService crea un nuevo register service.
func NewRegisterService(deps Deps) RegisterService {
	return &registerService{deps: deps}
}

// Register errors (sentinel)
var (
	ErrRegisterMissingFields = errors.New("missing required fields")
	ErrRegisterInvalidEmail  = errors.New("invalid email")
	ErrRegisterWeakPassword  = errors.New("password too short")
	ErrRegisterEmailTaken    = errors.New("email already registered")
	ErrRegisterHashFailed    = errors.New("failed to hash password")
	ErrRegisterCreateFailed  = errors.New("failed to create user")
	ErrRegisterTokenFailed   = errors.New("failed to issue tokens")
)

// MinPasswordLen es el único requisito de complejidad: largo mínimo.
const MinPasswordLen = 8

func (s *registerService) Register(ctx context.Context, email, plainPassword string) (*Session, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	// Normalización: la identidad es case-insensitive sobre el email
	email = validation.NormalizeEmail(email)

	if email == "" || plainPassword == "" {
		return nil, ErrRegisterMissingFields
	}
	if !validation.ValidEmail(email) {
		return nil, ErrRegisterInvalidEmail
	}
	if len(plainPassword) < MinPasswordLen {
		return nil, ErrRegisterWeakPassword
	}

	phc, err := password.Hash(password.Default, plainPassword)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return nil, ErrRegisterHashFailed
	}

	u := &core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: phc,
		CreatedAt:    s.deps.now().UTC(),
	}
	u.UpdatedAt = u.CreatedAt

	if err := s.deps.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrConflict) {
			log.Debug("email already exists", logger.Email(util.MaskEmail(email)))
			return nil, ErrRegisterEmailTaken
		}
		log.Error("user creation failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrRegisterCreateFailed, err)
	}

	log = log.With(logger.UserID(u.ID))

	session, err := issueSession(s.deps.Codec, u)
	if err != nil {
		log.Error("failed to issue tokens", logger.Err(err))
		return nil, ErrRegisterTokenFailed
	}

	log.Info("user registered")
	return session, nil
}
