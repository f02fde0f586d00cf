// Package app construye el contenedor de dependencias del servicio.
package app

import (
	"context"
	"net/http"

	"github.com/MarouaBoud/Dynastia/internal/config"
	"github.com/MarouaBoud/Dynastia/internal/http/router"
	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
	"github.com/MarouaBoud/Dynastia/internal/store"
)

// Container agrupa las dependencias ya construidas del servicio.
type Container struct {
	Cfg     *config.Config
	Store   *store.Handle
	Codec   *jwtx.Codec
	Handler http.Handler
}

// Build arma el contenedor completo: store según driver, codec JWT y router
// HTTP. Falla rápido con secretos inválidos o stores inaccesibles.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	h, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec, err := jwtx.New(jwtx.Config{
		Issuer:        cfg.JWT.Issuer,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})
	if err != nil {
		h.Close()
		return nil, err
	}

	handler, err := router.New(router.Deps{
		Cfg:    cfg,
		Repo:   h.Repository,
		Codec:  codec,
		DBPool: h.DBPool,
	})
	if err != nil {
		h.Close()
		return nil, err
	}

	return &Container{Cfg: cfg, Store: h, Codec: codec, Handler: handler}, nil
}

// Close libera los recursos del contenedor.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return c.Store.Close()
}
