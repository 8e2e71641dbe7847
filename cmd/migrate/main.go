package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellotodo/internal/config"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
	"github.com/dropDatabas3/hellotodo/internal/store/adapters/pg"
)

// migrate aplica las migraciones embebidas de Postgres (sólo "up", idempotente).
func main() {
	var (
		configPath = flag.String("config", os.Getenv("HELLOTODO_CONFIG"), "Path to YAML config")
		dsn        = flag.String("dsn", "", "Postgres DSN (override de STORAGE_DSN)")
		timeout    = flag.Duration("timeout", time.Minute, "Timeout total")
	)
	flag.Parse()

	logger.Init(logger.Config{Env: "cli", Level: "info"})
	defer func() { _ = logger.Sync() }()

	if err := run(*configPath, *dsn, *timeout); err != nil {
		logger.L().Error("migrate failed", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(configPath, dsn string, timeout time.Duration) error {
	log := logger.L()
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}
	if dsn == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dsn = cfg.Storage.DSN
	}
	if dsn == "" {
		return errors.New("STORAGE_DSN o --dsn requerido")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := pg.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Info("schema up to date")
		return nil
	}
	log.Info("migrations applied", zap.Ints("versions", applied))
	return nil
}
