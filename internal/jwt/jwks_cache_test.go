package jwt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dropDatabas3/hellotodo/internal/cache"
	cachememory "github.com/dropDatabas3/hellotodo/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/hellotodo/internal/cache/redis"
	"github.com/stretchr/testify/require"
)

// fakeFetcher cuenta fetches y devuelve el KeySet configurado en cada momento.
type fakeFetcher struct {
	mu    sync.Mutex
	ks    map[string]*KeySet
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, domain string) (*KeySet, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.ks[domain], nil
}

func (f *fakeFetcher) set(domain string, ks *KeySet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ks == nil {
		f.ks = map[string]*KeySet{}
	}
	f.ks[domain] = ks
}

func TestKeySetCache_HitDoesNotRefetch(t *testing.T) {
	f := &fakeFetcher{}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	c := NewKeySetCache(f)
	ctx := context.Background()

	first, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	second, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestKeySetCache_DomainSpellingsShareEntry(t *testing.T) {
	f := &fakeFetcher{}
	ks := testKeySet(t, newTestKey(t, "k1"))
	f.set("a.example.com", ks)
	f.set("https://a.example.com/", ks)
	c := NewKeySetCache(f)

	_, err := c.GetOrFetch(context.Background(), "a.example.com")
	require.NoError(t, err)
	_, err = c.GetOrFetch(context.Background(), "https://a.example.com/")
	require.NoError(t, err)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestKeySetCache_RefreshBypassesCache(t *testing.T) {
	f := &fakeFetcher{}
	old := testKeySet(t, newTestKey(t, "k1"))
	rotated := testKeySet(t, newTestKey(t, "k2"))
	f.set("a.example.com", old)
	c := NewKeySetCache(f)
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)

	f.set("a.example.com", rotated)
	got, err := c.Refresh(ctx, "a.example.com")
	require.NoError(t, err)
	require.Same(t, rotated, got)

	got, err = c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	require.Same(t, rotated, got)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestKeySetCache_InvalidateForcesFetch(t *testing.T) {
	f := &fakeFetcher{}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	c := NewKeySetCache(f)
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	c.Invalidate(ctx, "a.example.com")
	_, err = c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestKeySetCache_FetchErrorNotCached(t *testing.T) {
	f := &fakeFetcher{err: errors.New("idp down")}
	c := NewKeySetCache(f)
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "a.example.com")
	require.Error(t, err)

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))

	ks, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	require.NotNil(t, ks)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestKeySetCache_ConcurrentMissesCollapse(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	c := NewKeySetCache(f)

	const n = 16
	var wg sync.WaitGroup
	results := make([]*KeySet, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrFetch(context.Background(), "a.example.com")
		}(i)
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	require.EqualValues(t, 1, f.calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i])
	}
}

func TestKeySetCache_CallerCancelDoesNotAbortFetch(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	c := NewKeySetCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, "a.example.com")
		done <- err
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(f.gate)
	require.Eventually(t, func() bool {
		_, ok := c.lookupLocal(cacheKey("a.example.com"))
		return ok
	}, time.Second, 5*time.Millisecond)

	_, err := c.GetOrFetch(context.Background(), "a.example.com")
	require.NoError(t, err)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestKeySetCache_TTL(t *testing.T) {
	f := &fakeFetcher{}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	c := NewKeySetCache(f, WithTTL(30*time.Millisecond))
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestKeySetCache_SharedTierAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	shared, err := cacheredis.New(ctx, cache.Config{Addr: mr.Addr(), Prefix: "hellotodo"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shared.Close() })

	k := newTestKey(t, "k1")
	f1 := &fakeFetcher{}
	f1.set("a.example.com", testKeySet(t, k))
	f2 := &fakeFetcher{}

	replica1 := NewKeySetCache(f1, WithSharedTier(shared))
	replica2 := NewKeySetCache(f2, WithSharedTier(shared))

	_, err = replica1.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)

	ks, err := replica2.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	got, ok := ks.Lookup("k1")
	require.True(t, ok)
	require.Equal(t, &k.priv.PublicKey, got.Key)
	require.Equal(t, testNow.Unix(), ks.FetchedAt().Unix())

	require.EqualValues(t, 1, f1.calls.Load())
	require.EqualValues(t, 0, f2.calls.Load())
}

func TestKeySetCache_CorruptSharedEntryRefetches(t *testing.T) {
	ctx := context.Background()
	shared := cachememory.New("")
	require.NoError(t, shared.Set(ctx, cacheKey("a.example.com"), "{garbage", 0))

	f := &fakeFetcher{}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	c := NewKeySetCache(f, WithSharedTier(shared))

	ks, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	require.Equal(t, 1, ks.Len())
	require.EqualValues(t, 1, f.calls.Load())

	raw, err := shared.Get(ctx, cacheKey("a.example.com"))
	require.NoError(t, err)
	require.Contains(t, raw, `"jwks"`)
}

func TestKeySetCache_DifferentDomainsIndependent(t *testing.T) {
	f := &fakeFetcher{}
	f.set("a.example.com", testKeySet(t, newTestKey(t, "k1")))
	f.set("b.example.com", testKeySet(t, newTestKey(t, "k2")))
	c := NewKeySetCache(f)
	ctx := context.Background()

	a, err := c.GetOrFetch(ctx, "a.example.com")
	require.NoError(t, err)
	b, err := c.GetOrFetch(ctx, "b.example.com")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.EqualValues(t, 2, f.calls.Load())
}
