package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/dropDatabas3/hellotodo/internal/config"
	"github.com/dropDatabas3/hellotodo/internal/devicelogin"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

func main() {
	_ = config.LoadDotEnv("")
	cfg := config.LoadCLI()

	logger.Init(logger.Config{Env: "cli", Level: envOr("TODO_LOG_LEVEL", "warn")})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli{
		cfg:    cfg,
		out:    os.Stdout,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		opener: devicelogin.BrowserOpener{},
	}
	if err := newRootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
