// Binario del servicio HTTP de autenticación.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MarouaBoud/Dynastia/internal/app"
	"github.com/MarouaBoud/Dynastia/internal/config"
	httpserver "github.com/MarouaBoud/Dynastia/internal/http"
	"github.com/MarouaBoud/Dynastia/internal/observability/logger"
)

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta al config.yaml (prioridad sobre CONFIG_PATH)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("dynastia.yaml") {
		cfgPath = "dynastia.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Format:      cfg.Log.Format,
		Level:       cfg.Log.Level,
		ServiceName: "dynastia",
	})
	defer logger.Sync()

	lg := logger.L().With(logger.Component("main"))

	// Apagado limpio via SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg)
	if err != nil {
		lg.Fatal("bootstrap failed", logger.Err(err))
	}
	defer c.Close()

	lg.Info("starting dynastia",
		logger.String("addr", cfg.Server.Addr),
		logger.String("driver", cfg.Store.Driver),
		logger.String("env", cfg.App.Env),
	)

	if err := httpserver.Serve(ctx, httpserver.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		IdleTimeout:     cfg.IdleTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}, c.Handler); err != nil {
		lg.Fatal("server failed", logger.Err(err))
	}
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
