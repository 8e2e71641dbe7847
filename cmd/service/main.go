package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/config"
	httpserver "github.com/dropDatabas3/hellotodo/internal/http"
	"github.com/dropDatabas3/hellotodo/internal/metrics"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"

	// Registra los adapters del store vía init()
	_ "github.com/dropDatabas3/hellotodo/internal/store/adapters/dal"
)

var version = "dev"

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $HELLOTODO_CONFIG)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if err := config.LoadDotEnv(*flagEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
		os.Exit(1)
	}
	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("HELLOTODO_CONFIG")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         logEnv(cfg.App.Env),
		Level:       cfg.Log.Level,
		ServiceName: "hellotodo",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if err := metrics.Register(nil); err != nil {
		log.Fatal("metrics register", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := build(bootCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("cleanup", logger.Err(err))
		}
	}()

	// Precalienta el KeySet; si el proveedor no responde se reintenta en el primer request.
	if _, err := a.keys.GetOrFetch(ctx, cfg.IdP.Domain); err != nil {
		log.Warn("jwks prewarm failed", logger.Domain(cfg.IdP.Domain), logger.Err(err))
	}

	srv := httpserver.NewServer(cfg.Server.Addr, a.handler)
	if err := httpserver.Run(logger.ToContext(ctx, log), srv, cfg.Server.ShutdownGrace); err != nil {
		log.Error("http server", logger.Err(err))
		return
	}
	log.Info("bye")
}

func logEnv(appEnv string) string {
	switch appEnv {
	case "prod", "production", "staging":
		return "prod"
	default:
		return "dev"
	}
}
