package e2e

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MarouaBoud/Dynastia/internal/config"
	"github.com/MarouaBoud/Dynastia/internal/http/router"
	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
	"github.com/MarouaBoud/Dynastia/internal/store/memory"
)

// fakeClock es un reloj que solo avanza cuando el test lo empuja.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// 03 - Expiración de tokens. El reloj se inyecta en el codec y en los
// services: acá no duerme nadie, los TTL reales de producción se cruzan
// avanzando el reloj falso.
func Test_03_Token_TTL(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	clock := &fakeClock{now: time.Now().UTC()}

	codec, err := jwtx.New(jwtx.Config{
		Issuer:        cfg.JWT.Issuer,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})
	require.NoError(t, err)
	codec.Now = clock.Now

	h, err := router.New(router.Deps{
		Cfg:   cfg,
		Repo:  memory.New(),
		Codec: codec,
		Now:   clock.Now,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	defer srv.Close()

	c := newHTTPClient()

	resp := postJSON(t, c, srv.URL+"/auth/signup", "", map[string]string{
		"email":    uniqueEmail("ttl"),
		"password": "reloj-de-arena-5",
	})
	wantStatus(t, resp, http.StatusCreated)
	var sess sessionPayload
	decodeBody(t, resp, &sess)

	// Recién emitido, el access autoriza.
	resp = postJSON(t, c, srv.URL+"/auth/2fa/disable", sess.AccessToken, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Pasado su TTL, el mismo token expira con el código específico, que es
	// el que dispara el refresh del lado del cliente.
	clock.Advance(cfg.AccessTTL() + time.Minute)
	resp = postJSON(t, c, srv.URL+"/auth/2fa/disable", sess.AccessToken, nil)
	wantErrorCode(t, resp, http.StatusUnauthorized, "token_expired")

	// El refresh sigue vivo y emite un access utilizable ya.
	resp = postJSON(t, c, srv.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": sess.RefreshToken,
	})
	wantStatus(t, resp, http.StatusOK)
	var ref struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &ref)
	require.NotEmpty(t, ref.AccessToken)

	resp = postJSON(t, c, srv.URL+"/auth/2fa/disable", ref.AccessToken, nil)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Pasado también el TTL del refresh, renovarse deja de ser posible:
	// la única salida es volver a loguearse.
	clock.Advance(cfg.RefreshTTL())
	resp = postJSON(t, c, srv.URL+"/auth/refresh", "", map[string]string{
		"refreshToken": sess.RefreshToken,
	})
	wantErrorCode(t, resp, http.StatusUnauthorized, "token_expired")

	// Y el access emitido en el medio también venció.
	resp = postJSON(t, c, srv.URL+"/auth/2fa/disable", ref.AccessToken, nil)
	wantErrorCode(t, resp, http.StatusUnauthorized, "token_expired")
}
