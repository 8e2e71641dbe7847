package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellotodo/internal/store"
	"github.com/dropDatabas3/hellotodo/internal/store/adapters/memory"
)

type fakeUserInfo struct {
	info  UserInfo
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeUserInfo) Fetch(ctx context.Context, _ string) (UserInfo, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return UserInfo{}, ctx.Err()
		}
	}
	return f.info, f.err
}

// scriptedRepo envuelve un repo en memoria e inyecta fallas y conteos.
type scriptedRepo struct {
	inner      *memory.Repo
	findErr    error
	insertErr  error
	finds      atomic.Int32
	inserts    atomic.Int32
	onConflict func()
}

func newScriptedRepo() *scriptedRepo { return &scriptedRepo{inner: memory.New()} }

func (r *scriptedRepo) FindByExternalID(ctx context.Context, id string) (*store.User, error) {
	r.finds.Add(1)
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.inner.FindByExternalID(ctx, id)
}

func (r *scriptedRepo) Insert(ctx context.Context, u *store.User) error {
	r.inserts.Add(1)
	if r.insertErr != nil {
		if errors.Is(r.insertErr, store.ErrConflict) && r.onConflict != nil {
			r.onConflict()
		}
		return r.insertErr
	}
	return r.inner.Insert(ctx, u)
}

func (r *scriptedRepo) Ping(context.Context) error { return nil }
func (r *scriptedRepo) Close() error               { return nil }

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestResolver(t *testing.T, repo store.UserRepository, ui UserInfoFetcher) *Resolver {
	t.Helper()
	c, err := NewUserCache(16)
	require.NoError(t, err)
	return NewResolver(repo, c, ui, WithIDGenerator(sequentialIDs()))
}
