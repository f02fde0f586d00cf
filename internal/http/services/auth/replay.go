package auth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/MarouaBoud/Dynastia/internal/security/totp"
)

// replayGuard recuerda el último counter TOTP aceptado por usuario para que
// un código interceptado no pueda reutilizarse dentro de su ventana.
// Las entradas expiran solas: pasada la ventana el counter viejo ya no
// valida de todos modos.
type replayGuard struct {
	c *gocache.Cache
}

func newReplayGuard() *replayGuard {
	ttl := time.Duration(totp.Period*4) * time.Second
	return &replayGuard{c: gocache.New(ttl, time.Minute)}
}

// last retorna el último counter aceptado para el usuario, o nil.
func (g *replayGuard) last(userID string) *int64 {
	v, ok := g.c.Get(userID)
	if !ok {
		return nil
	}
	n, ok := v.(int64)
	if !ok {
		return nil
	}
	return &n
}

// remember registra el counter aceptado para el usuario.
func (g *replayGuard) remember(userID string, counter int64) {
	g.c.SetDefault(userID, counter)
}

// forget limpia el estado del usuario (al deshabilitar el segundo factor).
func (g *replayGuard) forget(userID string) {
	g.c.Delete(userID)
}
