package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/cache"
	"github.com/dropDatabas3/hellotodo/internal/idp"
	"github.com/dropDatabas3/hellotodo/internal/metrics"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 10 * time.Second

// KeySetCache guarda el KeySet de cada dominio. Debe existir una sola instancia
// por proceso, compartida por puntero entre todos los requests.
//
// Tiers: go-cache en proceso y, opcionalmente, un cache.Client compartido
// (redis) con el documento JWKS crudo. Los misses concurrentes del mismo
// dominio se colapsan en un único fetch.
type KeySetCache struct {
	fetcher Fetcher
	local   *gocache.Cache
	shared  cache.Client
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	log     *zap.Logger
}

type CacheOption func(*KeySetCache)

// WithSharedTier agrega un tier compartido entre réplicas.
func WithSharedTier(c cache.Client) CacheOption {
	return func(k *KeySetCache) { k.shared = c }
}

// WithTTL fija la vida de las entradas. 0 = sin expiración.
func WithTTL(d time.Duration) CacheOption {
	return func(k *KeySetCache) { k.ttl = d }
}

// WithFetchTimeout acota los fetch cuando el caller no trae deadline.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(k *KeySetCache) {
		if d > 0 {
			k.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) CacheOption {
	return func(k *KeySetCache) {
		if l != nil {
			k.log = l
		}
	}
}

func NewKeySetCache(f Fetcher, opts ...CacheOption) *KeySetCache {
	k := &KeySetCache{
		fetcher: f,
		timeout: defaultFetchTimeout,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(k)
	}
	exp, cleanup := gocache.NoExpiration, time.Duration(0)
	if k.ttl > 0 {
		exp, cleanup = k.ttl, k.ttl
	}
	k.local = gocache.New(exp, cleanup)
	return k
}

// GetOrFetch devuelve el KeySet cacheado o lo obtiene y lo guarda.
func (k *KeySetCache) GetOrFetch(ctx context.Context, domain string) (*KeySet, error) {
	key := cacheKey(domain)
	if ks, ok := k.lookupLocal(key); ok {
		metrics.KeySetCacheLookups.WithLabelValues("local", "hit").Inc()
		return ks, nil
	}
	metrics.KeySetCacheLookups.WithLabelValues("local", "miss").Inc()
	return k.load(ctx, key, domain, false)
}

// Refresh fuerza un fetch ignorando ambos tiers y reemplaza la entrada.
func (k *KeySetCache) Refresh(ctx context.Context, domain string) (*KeySet, error) {
	return k.load(ctx, cacheKey(domain), domain, true)
}

// Invalidate elimina la entrada del dominio en ambos tiers.
func (k *KeySetCache) Invalidate(ctx context.Context, domain string) {
	key := cacheKey(domain)
	k.local.Delete(key)
	if k.shared != nil {
		if err := k.shared.Delete(ctx, key); err != nil {
			k.log.Warn("jwks shared invalidate failed", zap.String("key", key), logger.Err(err))
		}
	}
}

func (k *KeySetCache) load(ctx context.Context, key, domain string, force bool) (*KeySet, error) {
	flight := key
	if force {
		flight = "refresh|" + key
	}
	ch := k.group.DoChan(flight, func() (any, error) {
		fctx, cancel := k.detach(ctx)
		defer cancel()

		if !force {
			if ks, ok := k.lookupLocal(key); ok {
				return ks, nil
			}
			if ks, ok := k.lookupShared(fctx, key, domain); ok {
				k.local.Set(key, ks, gocache.DefaultExpiration)
				return ks, nil
			}
		}

		ks, err := k.fetcher.Fetch(fctx, domain)
		if err != nil {
			k.log.Warn("jwks fetch failed", logger.Domain(domain), logger.Err(err))
			return nil, err
		}
		k.local.Set(key, ks, gocache.DefaultExpiration)
		k.storeShared(fctx, key, ks)
		k.log.Debug("jwks fetched", logger.Domain(domain), zap.Int("keys", ks.Len()), zap.Bool("forced", force))
		return ks, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeySet), nil
	}
}

// detach desacopla el fetch de la cancelación del caller: otros requests
// pueden estar esperando el mismo vuelo.
func (k *KeySetCache) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if dl, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, dl)
	}
	return context.WithTimeout(base, k.timeout)
}

func (k *KeySetCache) lookupLocal(key string) (*KeySet, bool) {
	v, ok := k.local.Get(key)
	if !ok {
		return nil, false
	}
	ks, ok := v.(*KeySet)
	return ks, ok
}

type sharedEntry struct {
	FetchedAt int64           `json:"fetched_at"`
	Document  json.RawMessage `json:"jwks"`
}

func (k *KeySetCache) lookupShared(ctx context.Context, key, domain string) (*KeySet, bool) {
	if k.shared == nil {
		return nil, false
	}
	raw, err := k.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			k.log.Warn("jwks shared lookup failed", zap.String("key", key), logger.Err(err))
		}
		metrics.KeySetCacheLookups.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}
	var e sharedEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		k.log.Warn("jwks shared entry corrupt", zap.String("key", key), logger.Err(err))
		metrics.KeySetCacheLookups.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}
	ks, err := ParseKeySet(domain, e.Document, time.Unix(e.FetchedAt, 0))
	if err != nil {
		k.log.Warn("jwks shared entry corrupt", zap.String("key", key), logger.Err(err))
		metrics.KeySetCacheLookups.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}
	metrics.KeySetCacheLookups.WithLabelValues("shared", "hit").Inc()
	return ks, true
}

func (k *KeySetCache) storeShared(ctx context.Context, key string, ks *KeySet) {
	if k.shared == nil || !json.Valid(ks.document) {
		return
	}
	b, err := json.Marshal(sharedEntry{FetchedAt: ks.fetchedAt.Unix(), Document: ks.document})
	if err != nil {
		return
	}
	if err := k.shared.Set(ctx, key, string(b), k.ttl); err != nil {
		k.log.Warn("jwks shared store failed", zap.String("key", key), logger.Err(err))
	}
}

func cacheKey(domain string) string {
	return "jwks:" + idp.BaseURL(domain)
}
