package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellotodo/internal/config"
)

func testConfig() *config.Config {
	var c config.Config
	c.IdP.Domain = "tenant.example.com"
	c.IdP.Audience = "https://todo/api"
	c.IdP.HTTPTimeout = time.Second
	c.Identity.CacheSize = 8
	c.Storage.Driver = "memory"
	c.Cache.Kind = "memory"
	c.Rate.MaxRequests = 10
	c.Rate.Window = time.Minute
	return &c
}

func TestBuild_MemoryStack(t *testing.T) {
	a, err := build(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
}

func TestBuild_RedisStack(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache.Kind = "redis"
	cfg.Cache.Redis.Addr = mr.Addr()
	cfg.Cache.Redis.Prefix = "t:"

	a, err := build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, mr.Keys(), "rate limiter counts in redis")
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "sqlite"
	_, err := build(context.Background(), cfg)
	require.Error(t, err)
}

func TestLogEnv(t *testing.T) {
	require.Equal(t, "prod", logEnv("prod"))
	require.Equal(t, "prod", logEnv("staging"))
	require.Equal(t, "dev", logEnv("dev"))
}
