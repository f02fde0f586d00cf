package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/MarouaBoud/Dynastia/internal/config"
	migrations "github.com/MarouaBoud/Dynastia/migrations/postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	pgstore "github.com/MarouaBoud/Dynastia/internal/store/pg"
)

// Runner de migraciones standalone. Útil en pipelines de deploy donde las
// migraciones corren antes de levantar el servicio (el servicio también las
// aplica al arrancar, este binario existe para correrlas por separado).
func main() {
	var (
		configPath = flag.String("config", "dynastia.yaml", "ruta al config YAML")
		dsn        = flag.String("dsn", "", "DSN de Postgres (tiene prioridad sobre el config)")
		timeout    = flag.Duration("timeout", 60*time.Second, "timeout total de la corrida")
	)
	flag.Parse()

	// Args posicionales: [action] — "up" (default) o "status".
	action := "up"
	if args := flag.Args(); len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}

	connString := *dsn
	if connString == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load: %v", err)
		}
		connString = cfg.Store.Postgres.DSN
	}
	if strings.TrimSpace(connString) == "" {
		log.Fatal("no hay DSN de Postgres: usar -dsn, POSTGRES_DSN o store.postgres.dsn en el config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	migrator := pgstore.NewMigrator(migrations.AuthFS, migrations.AuthDir)

	switch action {
	case "up":
		res, err := migrator.Run(ctx, pool)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		for _, v := range res.Applied {
			log.Printf("applied %04d", v)
		}
		log.Printf("done: %d applied, %d skipped (%s)", len(res.Applied), len(res.Skipped), res.Duration)

	case "status":
		parsed, err := migrator.ParseMigrations()
		if err != nil {
			log.Fatalf("parse migrations: %v", err)
		}
		applied, err := appliedVersions(ctx, pool)
		if err != nil {
			log.Fatalf("query _migrations: %v", err)
		}
		for _, m := range parsed {
			state := "pending"
			if applied[m.Version] {
				state = "applied"
			}
			log.Printf("%04d_%s: %s", m.Version, m.Name, state)
		}

	default:
		log.Printf("acción desconocida %q (usar: up | status)", action)
		os.Exit(2)
	}
}

// ─── Helpers ───

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		// La tabla no existe todavía: nada aplicado.
		return map[int]bool{}, nil
	}
	defer rows.Close()
	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}
