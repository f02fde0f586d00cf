package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRefresh_IssuesAccessOnly(t *testing.T) {
	t.Parallel()
	svc, deps, _ := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")

	access, err := svc.Refresh.Refresh(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh err: %v", err)
	}
	p, err := deps.Codec.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess err: %v", err)
	}
	if p.UserID != reg.User.ID || p.Email != "ana@example.com" {
		t.Fatalf("claims mismatch: %+v", p)
	}

	// El refresh token no rota: el mismo token sigue canjeándose.
	if _, err := svc.Refresh.Refresh(ctx, reg.RefreshToken); err != nil {
		t.Fatalf("second Refresh err: %v", err)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	for _, tok := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Refresh.Refresh(ctx, tok); !errors.Is(err, ErrRefreshMissingToken) {
			t.Fatalf("Refresh(%q): got %v want ErrRefreshMissingToken", tok, err)
		}
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := testEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")

	// Basura estructural y un access bien firmado: ninguno pasa por el
	// dominio refresh.
	for _, tok := range []string{"ni.siquiera.jwt", reg.AccessToken} {
		if _, err := svc.Refresh.Refresh(ctx, tok); !errors.Is(err, ErrRefreshInvalid) {
			t.Fatalf("Refresh(%.12q...): got %v want ErrRefreshInvalid", tok, err)
		}
	}
}

// Un refresh firmado para un usuario que ya no existe no emite nada: el
// claim trae solo el id y el fetch fresco es el que corta.
func TestRefresh_UserNoLongerExists(t *testing.T) {
	t.Parallel()
	svc, deps, _ := testEnv(t)

	pair, err := deps.Codec.Issue("ghost-id", "ghost@example.com")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	if _, err := svc.Refresh.Refresh(context.Background(), pair.Refresh); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("got %v, want ErrRefreshInvalid", err)
	}
}

func TestRefresh_Expired(t *testing.T) {
	t.Parallel()
	svc, deps, clock := testEnv(t)
	ctx := context.Background()

	// El codec comparte el reloj del test: los tokens del registro nacen en
	// clock.t y el avance los cruza de verdad, sin dormir.
	deps.Codec.Now = clock.now

	reg := mustRegister(t, svc, "ana@example.com", "hunter2hunter2")

	clock.advance(deps.Codec.RefreshTTL + time.Minute)
	if _, err := svc.Refresh.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("got %v, want ErrRefreshExpired", err)
	}
}
