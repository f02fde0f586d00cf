package auth

import (
	"context"
	"errors"

	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
	"github.com/MarouaBoud/Dynastia/internal/security/password"
	"github.com/MarouaBoud/Dynastia/internal/util"
	"github.com/MarouaBoud/Dynastia/internal/validation"
)

// LoginService define la operación de login por password.
type LoginService interface {
	Login(ctx context.Context, email, plainPassword string) (*LoginResult, error)
}

// LoginResult es el resultado interno del service: o una sesión completa,
// o el marcador de segundo factor pendiente (nunca ambos).
type LoginResult struct {
	// Session está presente solo cuando NO hay segundo factor configurado.
	Session *Session

	// SecondFactor indica que el password fue correcto pero falta el TOTP.
	// Invariante: mientras el segundo factor esté pendiente no existe
	// ningún token emitido para este intento.
	SecondFactor bool
	UserID       string
}

type loginService struct {
	deps Deps
}

// NewLoginService crea un nuevo login service.
func NewLoginService(deps Deps) LoginService {
	return &loginService{deps: deps}
}

// Login errors (sentinel)
var (
	ErrLoginMissingFields      = errors.New("missing required fields")
	ErrLoginInvalidCredentials = errors.New("invalid credentials")
	ErrLoginTokenFailed        = errors.New("failed to issue tokens")
)

func (s *loginService) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	// Paso 0: Normalización
	email = validation.NormalizeEmail(email)

	if email == "" || plainPassword == "" {
		return nil, ErrLoginMissingFields
	}

	// Paso 1: Buscar usuario.
	// Email desconocido y password incorrecto devuelven el MISMO error para
	// no permitir enumerar cuentas.
	u, err := s.deps.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		log.Debug("user not found", logger.Email(util.MaskEmail(email)))
		return nil, ErrLoginInvalidCredentials
	}

	log = log.With(logger.UserID(u.ID))

	// Paso 2: Verificar password (comparación en tiempo constante)
	if !password.Verify(plainPassword, u.PasswordHash) {
		log.Debug("password check failed")
		return nil, ErrLoginInvalidCredentials
	}

	// Paso 3: Gate del segundo factor. Con TOTP configurado no se emite
	// ningún token: solo el marcador pendiente con el user id.
	if u.TwoFactorEnabled() {
		log.Info("second factor required")
		return &LoginResult{SecondFactor: true, UserID: u.ID}, nil
	}

	// Paso 4: Emisión directa
	session, err := issueSession(s.deps.Codec, u)
	if err != nil {
		log.Error("failed to issue tokens", logger.Err(err))
		return nil, ErrLoginTokenFailed
	}

	log.Info("login successful")
	return &LoginResult{Session: session}, nil
}
