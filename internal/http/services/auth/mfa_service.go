package auth

import (
	"context"
	"errors"

	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
	"github.com/MarouaBoud/Dynastia/internal/security/totp"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

// MFATOTPService define las operaciones del segundo factor TOTP.
type MFATOTPService interface {
	// Enroll genera un secreto fresco y lo guarda en el usuario. Habilitar
	// es atómico con la generación: no existe estado "pendiente de
	// confirmar" del lado del servidor. Re-enrolar reemplaza el secreto.
	Enroll(ctx context.Context, userID string) (*Enrollment, error)

	// Verify valida el código contra el secreto del usuario y, si es
	// correcto, emite la sesión completa (el único camino a tokens cuando
	// el segundo factor está habilitado).
	Verify(ctx context.Context, userID, code string) (*Session, error)

	// Disable limpia el secreto incondicionalmente. Idempotente:
	// deshabilitar una cuenta ya deshabilitada no es un error.
	Disable(ctx context.Context, userID string) error
}

// Enrollment es el resultado de Enroll: el secreto en base32 y la URI
// otpauth:// lista para renderizar como QR.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
}

type mfaService struct {
	deps  Deps
	guard *replayGuard
}

// NewMFATOTPService crea el service del segundo factor.
func NewMFATOTPService(deps Deps, guard *replayGuard) MFATOTPService {
	if guard == nil {
		guard = newReplayGuard()
	}
	return &mfaService{deps: deps, guard: guard}
}

// MFA errors (sentinel)
var (
	ErrMFAUserNotFound = errors.New("user not found")
	ErrMFANotEnabled   = errors.New("second factor not enabled")
	ErrMFAInvalidCode  = errors.New("invalid code")
	ErrMFACryptoFailed = errors.New("crypto operation failed")
	ErrMFAStoreFailed  = errors.New("storage operation failed")
	ErrMFATokenFailed  = errors.New("failed to issue tokens")
)

// verifyWindow acepta un step de desfase de reloj hacia cada lado.
const verifyWindow = 1

func (s *mfaService) Enroll(ctx context.Context, userID string) (*Enrollment, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.mfa"),
		logger.Op("Enroll"),
		logger.UserID(userID),
	)

	u, err := s.deps.Repo.GetUserByID(ctx, userID)
	if err != nil {
		log.Debug("user not found")
		return nil, ErrMFAUserNotFound
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		log.Error("secret generation failed", logger.Err(err))
		return nil, ErrMFACryptoFailed
	}

	if err := s.deps.Repo.SetTOTPSecret(ctx, u.ID, &secret); err != nil {
		log.Error("failed to store secret", logger.Err(err))
		return nil, ErrMFAStoreFailed
	}

	// Un secreto nuevo invalida cualquier counter recordado del anterior
	s.guard.forget(u.ID)

	log.Info("second factor enrolled")
	return &Enrollment{
		Secret:          secret,
		ProvisioningURI: totp.ProvisioningURI(s.deps.TOTPIssuer, u.Email, secret),
	}, nil
}

func (s *mfaService) Verify(ctx context.Context, userID, code string) (*Session, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.mfa"),
		logger.Op("Verify"),
		logger.UserID(userID),
	)

	u, err := s.deps.Repo.GetUserByID(ctx, userID)
	if err != nil {
		// Un user id desconocido equivale a "sin secreto configurado":
		// no distinguimos para no permitir sondear ids.
		log.Debug("user not found")
		return nil, ErrMFANotEnabled
	}

	if !u.TwoFactorEnabled() {
		log.Debug("no secret on file")
		return nil, ErrMFANotEnabled
	}

	ok, counter := totp.Verify(*u.TOTPSecret, code, s.deps.now(), verifyWindow, s.guard.last(u.ID))
	if !ok {
		log.Debug("code check failed")
		return nil, ErrMFAInvalidCode
	}
	s.guard.remember(u.ID, counter)

	session, err := issueSession(s.deps.Codec, u)
	if err != nil {
		log.Error("failed to issue tokens", logger.Err(err))
		return nil, ErrMFATokenFailed
	}

	log.Info("second factor verified")
	return session, nil
}

func (s *mfaService) Disable(ctx context.Context, userID string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.mfa"),
		logger.Op("Disable"),
		logger.UserID(userID),
	)

	if err := s.deps.Repo.SetTOTPSecret(ctx, userID, nil); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("user not found")
			return ErrMFAUserNotFound
		}
		log.Error("failed to clear secret", logger.Err(err))
		return ErrMFAStoreFailed
	}

	s.guard.forget(userID)

	log.Info("second factor disabled")
	return nil
}
