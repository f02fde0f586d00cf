// Package store resuelve el repositorio concreto según la configuración.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarouaBoud/Dynastia/internal/config"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
	"github.com/MarouaBoud/Dynastia/internal/store/core"
	"github.com/MarouaBoud/Dynastia/internal/store/memory"
	"github.com/MarouaBoud/Dynastia/internal/store/pg"
	redisstore "github.com/MarouaBoud/Dynastia/internal/store/redis"
	"github.com/MarouaBoud/Dynastia/migrations/postgres"
)

// Handle agrupa el repositorio abierto y los extras que dependen del driver.
type Handle struct {
	Repository core.Repository

	// DBPool expone el pool pgx cuando el driver es postgres; nil en el resto.
	DBPool func() *pgxpool.Pool
}

// Open abre el repositorio según cfg.Store.Driver. Con postgres aplica
// además las migraciones pendientes antes de devolver el handle.
func Open(ctx context.Context, cfg *config.Config) (*Handle, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		st, err := pg.New(ctx, pg.Config{
			DSN:             cfg.Store.Postgres.DSN,
			MaxConns:        cfg.Store.Postgres.MaxConns,
			ConnMaxLifetime: cfg.PostgresConnMaxLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("store: postgres: %w", err)
		}

		migrator := pg.NewMigrator(postgres.AuthFS, postgres.AuthDir)
		res, err := migrator.Run(ctx, st.Pool())
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("store: migraciones: %w", err)
		}
		logger.L().Info("migrations applied",
			logger.Int("applied", len(res.Applied)),
			logger.Int("skipped", len(res.Skipped)),
			logger.Duration(res.Duration),
		)
		return &Handle{Repository: st, DBPool: st.Pool}, nil

	case config.DriverRedis:
		st, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Store.Redis.Addr,
			DB:       cfg.Store.Redis.DB,
			Password: cfg.Store.Redis.Password,
			Prefix:   cfg.Store.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("store: redis: %w", err)
		}
		return &Handle{Repository: st}, nil

	case config.DriverMemory:
		return &Handle{Repository: memory.New()}, nil

	default:
		return nil, fmt.Errorf("store: driver no soportado: %q", cfg.Store.Driver)
	}
}

// Close libera el repositorio subyacente.
func (h *Handle) Close() error {
	if h == nil || h.Repository == nil {
		return nil
	}
	return h.Repository.Close()
}
