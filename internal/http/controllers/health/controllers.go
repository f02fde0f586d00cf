// Package health contiene los controllers de health check.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/MarouaBoud/Dynastia/internal/http/errors"
	"github.com/MarouaBoud/Dynastia/internal/http/helpers"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

// Controller expone /healthz (liveness) y /readyz (readiness).
type Controller struct {
	repo core.Repository
}

// NewController crea el controller de health.
func NewController(repo core.Repository) *Controller {
	return &Controller{repo: repo}
}

// Register monta las rutas de health.
func (c *Controller) Register(r chi.Router) {
	r.Get("/healthz", c.Healthz)
	r.Get("/readyz", c.Readyz)
}

// Healthz responde 200 mientras el proceso esté vivo.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz verifica que el almacén responda antes de declararse listo.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := c.repo.Ping(ctx); err != nil {
		logger.From(r.Context()).Error("store unavailable", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("store unavailable"))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
