package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MarouaBoud/Dynastia/internal/security/totp"
)

// codeFor genera el código TOTP vigente para el secreto según el reloj del
// test (el mismo que usan los services).
func codeFor(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, at)
	if err != nil {
		t.Fatalf("GenerateCode err: %v", err)
	}
	return code
}

func TestEnroll_SetsSecretAndURI(t *testing.T) {
	t.Parallel()
	svc, deps, _ := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")

	enr, err := svc.MFA.Enroll(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("Enroll err: %v", err)
	}
	if len(enr.Secret) != 32 {
		t.Fatalf("unexpected secret length: %d", len(enr.Secret))
	}
	if !strings.Contains(enr.ProvisioningURI, "issuer=Dynastia") ||
		!strings.Contains(enr.ProvisioningURI, "ana@example.com") {
		t.Fatalf("unexpected uri: %q", enr.ProvisioningURI)
	}

	u, err := deps.Repo.GetUserByID(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID err: %v", err)
	}
	if !u.TwoFactorEnabled() || *u.TOTPSecret != enr.Secret {
		t.Fatal("secret must be stored on the user")
	}
}

func TestEnroll_UnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := testEnv(t)
	if _, err := svc.MFA.Enroll(context.Background(), "ghost"); !errors.Is(err, ErrMFAUserNotFound) {
		t.Fatalf("expected ErrMFAUserNotFound, got %v", err)
	}
}

func TestVerify_CompletesHandshake(t *testing.T) {
	t.Parallel()
	svc, deps, clock := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")
	enr, err := svc.MFA.Enroll(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("Enroll err: %v", err)
	}

	// El login queda pendiente...
	res, err := svc.Login.Login(ctx, "ana@example.com", "hunter2hunter2")
	if err != nil || !res.SecondFactor {
		t.Fatalf("expected pending second factor, got res=%+v err=%v", res, err)
	}

	// ...y el código vigente lo completa con una sesión entera
	s, err := svc.MFA.Verify(ctx, res.UserID, codeFor(t, enr.Secret, clock.t))
	if err != nil {
		t.Fatalf("Verify err: %v", err)
	}
	p, err := deps.Codec.VerifyAccess(s.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess err: %v", err)
	}
	if p.UserID != reg.User.ID {
		t.Fatalf("claims mismatch: %+v", p)
	}
	if s.RefreshToken == "" {
		t.Fatal("expected full pair")
	}
}

func TestVerify_WrongCode(t *testing.T) {
	t.Parallel()
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")
	if _, err := svc.MFA.Enroll(ctx, reg.User.ID); err != nil {
		t.Fatalf("Enroll err: %v", err)
	}

	if _, err := svc.MFA.Verify(ctx, reg.User.ID, "000000"); !errors.Is(err, ErrMFAInvalidCode) {
		t.Fatalf("expected ErrMFAInvalidCode, got %v", err)
	}
}

// Un código aceptado no vuelve a validar dentro de su ventana; el paso
// siguiente sí.
func TestVerify_ReplayRejected(t *testing.T) {
	t.Parallel()
	svc, _, clock := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")
	enr, err := svc.MFA.Enroll(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("Enroll err: %v", err)
	}

	code := codeFor(t, enr.Secret, clock.t)
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, code); err != nil {
		t.Fatalf("first verify err: %v", err)
	}
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, code); !errors.Is(err, ErrMFAInvalidCode) {
		t.Fatalf("replay: expected ErrMFAInvalidCode, got %v", err)
	}

	// Avanzando un paso, el código nuevo valida
	clock.advance(totp.Period * time.Second)
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, codeFor(t, enr.Secret, clock.t)); err != nil {
		t.Fatalf("next step verify err: %v", err)
	}
}

// Un user id desconocido responde lo mismo que una cuenta sin secreto:
// el endpoint no sirve para sondear ids válidos.
func TestVerify_UnknownAndUnenrolled(t *testing.T) {
	t.Parallel()
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	if _, err := svc.MFA.Verify(ctx, "ghost", "123456"); !errors.Is(err, ErrMFANotEnabled) {
		t.Fatalf("unknown id: expected ErrMFANotEnabled, got %v", err)
	}

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, "123456"); !errors.Is(err, ErrMFANotEnabled) {
		t.Fatalf("no secret: expected ErrMFANotEnabled, got %v", err)
	}
}

// Re-enrolar reemplaza el secreto y olvida el counter recordado del viejo.
func TestEnroll_ReplacesSecret(t *testing.T) {
	t.Parallel()
	svc, _, clock := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")

	first, err := svc.MFA.Enroll(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("Enroll err: %v", err)
	}
	// Usar el primer secreto deja un counter recordado
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, codeFor(t, first.Secret, clock.t)); err != nil {
		t.Fatalf("verify first secret err: %v", err)
	}

	second, err := svc.MFA.Enroll(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("re-Enroll err: %v", err)
	}
	if second.Secret == first.Secret {
		t.Fatal("re-enroll must generate a fresh secret")
	}

	// El código del secreto viejo ya no sirve...
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, codeFor(t, first.Secret, clock.t)); err == nil {
		t.Fatal("old secret must stop working")
	}
	// ...y el del nuevo valida en el mismo paso de tiempo (el guard se
	// reseteó junto con el secreto)
	if _, err := svc.MFA.Verify(ctx, reg.User.ID, codeFor(t, second.Secret, clock.t)); err != nil {
		t.Fatalf("new secret verify err: %v", err)
	}
}

func TestDisable_IdempotentAndRestoresDirectLogin(t *testing.T) {
	t.Parallel()
	svc, deps, _ := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")
	if _, err := svc.MFA.Enroll(ctx, reg.User.ID); err != nil {
		t.Fatalf("Enroll err: %v", err)
	}

	if err := svc.MFA.Disable(ctx, reg.User.ID); err != nil {
		t.Fatalf("Disable err: %v", err)
	}
	u, _ := deps.Repo.GetUserByID(ctx, reg.User.ID)
	if u.TwoFactorEnabled() {
		t.Fatal("secret must be cleared")
	}

	// Deshabilitar dos veces no es error
	if err := svc.MFA.Disable(ctx, reg.User.ID); err != nil {
		t.Fatalf("second Disable err: %v", err)
	}

	// Y el login vuelve a emitir directo
	res, err := svc.Login.Login(ctx, "ana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if res.SecondFactor || res.Session == nil {
		t.Fatal("expected direct issue after disable")
	}
}

func TestDisable_UnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := testEnv(t)
	if err := svc.MFA.Disable(context.Background(), "ghost"); !errors.Is(err, ErrMFAUserNotFound) {
		t.Fatalf("expected ErrMFAUserNotFound, got %v", err)
	}
}
