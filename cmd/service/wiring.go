package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellotodo/internal/authn"
	"github.com/dropDatabas3/hellotodo/internal/cache"
	"github.com/dropDatabas3/hellotodo/internal/config"
	"github.com/dropDatabas3/hellotodo/internal/http/router"
	"github.com/dropDatabas3/hellotodo/internal/identity"
	"github.com/dropDatabas3/hellotodo/internal/infra/cachefactory"
	"github.com/dropDatabas3/hellotodo/internal/jwt"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
	"github.com/dropDatabas3/hellotodo/internal/store"
)

// app agrupa lo que main necesita para servir y cerrar.
type app struct {
	handler http.Handler
	keys    *jwt.KeySetCache
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// build arma el grafo del servicio. El KeySetCache y el UserCache se crean una
// única vez acá y se comparten por puntero.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.L()
	a := &app{}

	repo, err := store.OpenAdapter(ctx, adapterConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("user store: %w", err)
	}
	a.closers = append(a.closers, repo.Close)

	shared, err := cachefactory.Open(ctx, cache.Config{
		Kind:   cfg.Cache.Kind,
		Addr:   cfg.Cache.Redis.Addr,
		DB:     cfg.Cache.Redis.DB,
		Prefix: cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.closers = append(a.closers, shared.Close)
	limiter := cachefactory.Limiter(shared, cfg.Cache.Redis.Prefix, cfg.Rate.MaxRequests, cfg.Rate.Window)

	hc := &http.Client{Timeout: cfg.IdP.HTTPTimeout}
	a.keys = jwt.NewKeySetCache(jwt.NewHTTPFetcher(hc),
		jwt.WithSharedTier(shared),
		jwt.WithTTL(cfg.IdP.JWKSCacheTTL),
		jwt.WithFetchTimeout(cfg.IdP.HTTPTimeout),
		jwt.WithLogger(logger.Named("jwks")),
	)

	users, err := identity.NewUserCache(cfg.Identity.CacheSize)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	resolver := identity.NewResolver(repo, users,
		identity.NewHTTPUserInfoClient(cfg.IdP.Domain, hc),
		identity.WithResolverLogger(logger.Named("identity")),
		identity.WithResolveTimeout(cfg.Identity.ResolveTimeout),
	)
	auth := authn.New(cfg.IdP.Domain, cfg.IdP.Audience, a.keys, jwt.NewVerifier(), resolver,
		authn.WithLogger(logger.Named("authn")))

	a.handler = router.New(router.Deps{
		Auth:    auth,
		Store:   repo,
		Limiter: limiter,
		Metrics: promhttp.Handler(),
	})

	log.Info("service wired",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("cache", cfg.Cache.Kind),
		logger.Domain(cfg.IdP.Domain),
		zap.Bool("rate_limit", limiter != nil),
	)
	return a, nil
}

func adapterConfig(cfg *config.Config) store.AdapterConfig {
	ac := store.AdapterConfig{
		Name:     cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
		Migrate:  cfg.Storage.Migrate,
	}
	if cfg.Storage.Driver == "mongo" {
		ac.DSN = cfg.Storage.Mongo.URI
		ac.Database = cfg.Storage.Mongo.Database
	}
	return ac
}
