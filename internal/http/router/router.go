// Package router arma el handler HTTP completo: middlewares globales,
// rutas de autenticación, health y /metrics.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarouaBoud/Dynastia/internal/config"
	httpx "github.com/MarouaBoud/Dynastia/internal/http"
	authctrl "github.com/MarouaBoud/Dynastia/internal/http/controllers/auth"
	healthctrl "github.com/MarouaBoud/Dynastia/internal/http/controllers/health"
	httperrors "github.com/MarouaBoud/Dynastia/internal/http/errors"
	"github.com/MarouaBoud/Dynastia/internal/http/middlewares"
	svc "github.com/MarouaBoud/Dynastia/internal/http/services/auth"
	jwtx "github.com/MarouaBoud/Dynastia/internal/jwt"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
)

// Deps contiene las dependencias para armar el router.
type Deps struct {
	Cfg   *config.Config
	Repo  core.Repository
	Codec *jwtx.Codec

	// DBPool expone el pool de Postgres para métricas. nil con otros drivers.
	DBPool func() *pgxpool.Pool

	// Now permite inyectar el reloj en tests. nil = time.Now.
	Now func() time.Time
}

// New arma el router completo.
func New(d Deps) (http.Handler, error) {
	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{DBPool: d.DBPool})
	if err != nil {
		return nil, err
	}

	services := svc.NewServices(svc.Deps{
		Repo:       d.Repo,
		Codec:      d.Codec,
		TOTPIssuer: d.Cfg.TOTP.Issuer,
		Now:        d.Now,
	})

	r := chi.NewRouter()

	// Middlewares globales: el primero intercepta antes y responde después
	r.Use(middlewares.WithRequestID())
	if d.Cfg.App.Env == "dev" {
		r.Use(middlewares.WithDebugLogging())
	} else {
		r.Use(middlewares.WithLogging())
	}
	r.Use(httpx.WithMetrics)
	r.Use(middlewares.WithRecover())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	authctrl.NewControllers(services, d.Codec).Register(r)
	healthctrl.NewController(d.Repo).Register(r)

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r, nil
}
