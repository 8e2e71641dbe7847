package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellotodo/internal/store"
)

const sub = "auth0|abc123"

func TestResolve_ProvisionsOnFirstSight(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{info: UserInfo{Subject: sub, Name: "Ada Lovelace", Email: "ada@example.com"}}
	r := newTestResolver(t, repo, ui)

	uc, err := r.Resolve(context.Background(), sub, "token")
	require.NoError(t, err)
	assert.Equal(t, "id-1", uc.UserID())
	assert.Equal(t, "id-2", uc.TenantID())
	assert.Equal(t, sub, uc.ExternalID())
	assert.Equal(t, "Ada Lovelace", uc.Name())
	assert.Equal(t, "ada@example.com", uc.Email())

	stored, err := repo.inner.FindByExternalID(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, sub, stored.ExternalID)
	assert.Equal(t, "Ada Lovelace", stored.Name)
	assert.Equal(t, "ada@example.com", stored.Email)
}

func TestResolve_Idempotent(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{info: UserInfo{Subject: sub, Name: "Ada"}}
	r := newTestResolver(t, repo, ui)
	ctx := context.Background()

	first, err := r.Resolve(ctx, sub, "token")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, sub, "token")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, ui.calls.Load())
	require.EqualValues(t, 1, repo.inserts.Load())
	require.EqualValues(t, 1, repo.finds.Load(), "second resolve must be served from cache")
}

func TestResolve_ExistingUserFromStore(t *testing.T) {
	repo := newScriptedRepo()
	require.NoError(t, repo.inner.Insert(context.Background(), &store.User{
		ID: "u-9", ExternalID: sub, TenantID: "t-9", Name: "Ada",
	}))
	ui := &fakeUserInfo{}
	r := newTestResolver(t, repo, ui)

	uc, err := r.Resolve(context.Background(), sub, "token")
	require.NoError(t, err)
	require.Equal(t, "u-9", uc.UserID())
	require.Equal(t, "t-9", uc.TenantID())
	require.Zero(t, ui.calls.Load())
}

func TestResolve_StoreUnavailableNeverProvisions(t *testing.T) {
	repo := newScriptedRepo()
	repo.findErr = errors.New("connection reset")
	ui := &fakeUserInfo{info: UserInfo{Subject: sub}}
	r := newTestResolver(t, repo, ui)

	_, err := r.Resolve(context.Background(), sub, "token")
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Zero(t, ui.calls.Load())
	require.Zero(t, repo.inserts.Load())
}

func TestResolve_UserInfoFailure(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{err: errors.New("userinfo: status 429")}
	r := newTestResolver(t, repo, ui)

	_, err := r.Resolve(context.Background(), sub, "token")
	require.ErrorIs(t, err, ErrProvisioningFailed)
	require.Zero(t, repo.inserts.Load())
	require.Zero(t, r.cache.Len())
}

func TestResolve_UserInfoSubjectMismatch(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{info: UserInfo{Subject: "auth0|someone-else"}}
	r := newTestResolver(t, repo, ui)

	_, err := r.Resolve(context.Background(), sub, "token")
	require.ErrorIs(t, err, ErrProvisioningFailed)
	require.Zero(t, repo.inserts.Load())
}

func TestResolve_InsertConflictFallsBackToLookup(t *testing.T) {
	repo := newScriptedRepo()
	repo.insertErr = store.ErrConflict
	repo.onConflict = func() {
		_ = repo.inner.Insert(context.Background(), &store.User{ID: "winner", ExternalID: sub, TenantID: "t-winner"})
	}
	ui := &fakeUserInfo{info: UserInfo{Subject: sub, Name: "Ada"}}
	r := newTestResolver(t, repo, ui)

	uc, err := r.Resolve(context.Background(), sub, "token")
	require.NoError(t, err)
	require.Equal(t, "winner", uc.UserID())
	require.Equal(t, "t-winner", uc.TenantID())
	require.EqualValues(t, 2, repo.finds.Load())

	cached, ok := r.cache.Get(sub)
	require.True(t, ok)
	require.Equal(t, "winner", cached.ID)
}

func TestResolve_InsertFailureIsStoreUnavailable(t *testing.T) {
	repo := newScriptedRepo()
	repo.insertErr = errors.New("disk full")
	ui := &fakeUserInfo{info: UserInfo{Subject: sub}}
	r := newTestResolver(t, repo, ui)

	_, err := r.Resolve(context.Background(), sub, "token")
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Zero(t, r.cache.Len())
}

func TestResolve_ConcurrentSameIdentityProvisionsOnce(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{info: UserInfo{Subject: sub, Name: "Ada"}, gate: make(chan struct{})}
	r := newTestResolver(t, repo, ui)

	const n = 8
	var wg sync.WaitGroup
	out := make([]UserContext, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], errs[i] = r.Resolve(context.Background(), sub, "token")
		}(i)
	}
	require.Eventually(t, func() bool { return ui.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(ui.gate)
	wg.Wait()

	require.EqualValues(t, 1, repo.inserts.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, out[0], out[i])
	}
}

func TestResolve_EmptySubject(t *testing.T) {
	r := newTestResolver(t, newScriptedRepo(), &fakeUserInfo{})
	_, err := r.Resolve(context.Background(), "", "token")
	require.ErrorIs(t, err, ErrProvisioningFailed)
}

func TestResolve_CallerDeadline(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{info: UserInfo{Subject: sub}, gate: make(chan struct{})}
	r := newTestResolver(t, repo, ui)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := r.Resolve(ctx, sub, "token")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, r.cache.Len())
}

func TestResolve_Forget(t *testing.T) {
	repo := newScriptedRepo()
	ui := &fakeUserInfo{info: UserInfo{Subject: sub}}
	r := newTestResolver(t, repo, ui)
	ctx := context.Background()

	_, err := r.Resolve(ctx, sub, "token")
	require.NoError(t, err)
	r.Forget(sub)
	_, err = r.Resolve(ctx, sub, "token")
	require.NoError(t, err)
	require.EqualValues(t, 2, repo.finds.Load())
	require.EqualValues(t, 1, repo.inserts.Load())
}
