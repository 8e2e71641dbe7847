// Package cachefactory construye el backend de cache y el rate limiter
// según la configuración.
package cachefactory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/cache"
	cmem "github.com/dropDatabas3/hellotodo/internal/cache/memory"
	credis "github.com/dropDatabas3/hellotodo/internal/cache/redis"
	"github.com/dropDatabas3/hellotodo/internal/rate"
)

func Open(ctx context.Context, cfg cache.Config) (cache.Client, error) {
	switch strings.ToLower(cfg.Kind) {
	case "redis":
		c, err := credis.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "", "memory":
		return cmem.New(cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("cachefactory: unknown kind %q", cfg.Kind)
	}
}

// Limiter arma el rate limiter sobre el mismo backend: Redis cuenta entre
// réplicas, memoria sólo por proceso. max <= 0 deshabilita el límite.
func Limiter(c cache.Client, prefix string, max int, window time.Duration) rate.Limiter {
	if max <= 0 {
		return nil
	}
	if rc, ok := c.(*credis.Client); ok {
		return rate.NewRedisLimiter(rc.Raw(), prefix+"rl:", max, window)
	}
	return rate.NewMemoryLimiter(max, window)
}
