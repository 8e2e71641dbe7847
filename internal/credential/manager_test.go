package credential

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellotodo/internal/devicelogin"
	"github.com/dropDatabas3/hellotodo/internal/oauth"
)

type mapStore struct {
	values  map[string]string
	saves   int
	deleted bool
}

func (s *mapStore) Load() (map[string]string, error) {
	out := map[string]string{}
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *mapStore) Save(v map[string]string) error {
	s.saves++
	s.values = v
	return nil
}

func (s *mapStore) Delete() error {
	s.deleted = true
	s.values = nil
	return nil
}

type fakeRefresher struct {
	pair  oauth.TokenPair
	err   error
	calls []string
}

func (r *fakeRefresher) Refresh(_ context.Context, refreshToken string) (oauth.TokenPair, error) {
	r.calls = append(r.calls, refreshToken)
	return r.pair, r.err
}

type fakeLogin struct {
	res devicelogin.Result
	err error
}

func (f fakeLogin) Run(context.Context) (devicelogin.Result, error) { return f.res, f.err }

var testNow = time.Unix(1_700_000_000, 0)

func tokenExpiringAt(t time.Time) string {
	return unsignedToken(fmt.Sprintf(`{"sub":"auth0|1","exp":%d}`, t.Unix()))
}

func newTestManager(s Store, r Refresher, opts ...ManagerOption) *Manager {
	return NewManager(s, r, append([]ManagerOption{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func TestEnsureAccessToken_NoCredentials(t *testing.T) {
	r := &fakeRefresher{}
	for _, values := range []map[string]string{
		nil,
		{KeyAccessToken: "a"},
		{KeyRefreshToken: "r"},
	} {
		tok, ok, err := newTestManager(&mapStore{values: values}, r).EnsureAccessToken(context.Background())
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, tok)
	}
	require.Empty(t, r.calls)
}

func TestEnsureAccessToken_ValidTokenUnchanged(t *testing.T) {
	access := tokenExpiringAt(testNow.Add(time.Hour))
	s := &mapStore{values: map[string]string{KeyAccessToken: access, KeyRefreshToken: "r1"}}
	r := &fakeRefresher{}

	tok, ok, err := newTestManager(s, r).EnsureAccessToken(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, access, tok)
	require.Empty(t, r.calls)
	require.Zero(t, s.saves)
}

func TestEnsureAccessToken_ExpiredRefreshesOnce(t *testing.T) {
	s := &mapStore{values: map[string]string{
		KeyAccessToken:  tokenExpiringAt(testNow.Add(-time.Minute)),
		KeyRefreshToken: "r1",
	}}
	r := &fakeRefresher{pair: oauth.TokenPair{AccessToken: "fresh"}}

	tok, ok, err := newTestManager(s, r).EnsureAccessToken(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fresh", tok)
	require.Equal(t, []string{"r1"}, r.calls)

	require.Equal(t, 1, s.saves)
	require.Equal(t, "fresh", s.values[KeyAccessToken])
	require.Equal(t, "r1", s.values[KeyRefreshToken], "unrotated refresh token is kept")
}

func TestEnsureAccessToken_RotatedRefreshTokenSaved(t *testing.T) {
	s := &mapStore{values: map[string]string{KeyAccessToken: "opaque", KeyRefreshToken: "r1"}}
	r := &fakeRefresher{pair: oauth.TokenPair{AccessToken: "fresh", RefreshToken: "r2"}}

	_, _, err := newTestManager(s, r).EnsureAccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"r1"}, r.calls, "undecodable token counts as expired")
	require.Equal(t, "r2", s.values[KeyRefreshToken])
}

func TestEnsureAccessToken_RefreshFailurePropagates(t *testing.T) {
	original := map[string]string{KeyAccessToken: tokenExpiringAt(testNow.Add(-time.Minute)), KeyRefreshToken: "r1"}
	s := &mapStore{values: original}
	r := &fakeRefresher{err: errors.New("oauth: invalid_grant (status 403)")}

	_, ok, err := newTestManager(s, r).EnsureAccessToken(context.Background())
	require.Error(t, err)
	require.False(t, ok)
	require.Len(t, r.calls, 1)
	require.Zero(t, s.saves)
}

func TestLogin_SavesPair(t *testing.T) {
	s := &mapStore{}
	login := fakeLogin{res: devicelogin.Result{
		State:  devicelogin.StateSucceeded,
		Tokens: oauth.TokenPair{AccessToken: "a1", RefreshToken: "r1", IDToken: "id1"},
	}}

	res, err := newTestManager(s, &fakeRefresher{}, WithLoginFlow(login)).Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, devicelogin.StateSucceeded, res.State)
	require.Equal(t, map[string]string{KeyAccessToken: "a1", KeyRefreshToken: "r1", KeyIDToken: "id1"}, s.values)
}

func TestLogin_FailureSavesNothing(t *testing.T) {
	s := &mapStore{}
	login := fakeLogin{res: devicelogin.Result{State: devicelogin.StateExpired}, err: devicelogin.ErrDeviceCodeExpired}

	_, err := newTestManager(s, &fakeRefresher{}, WithLoginFlow(login)).Login(context.Background())
	require.ErrorIs(t, err, devicelogin.ErrDeviceCodeExpired)
	require.Zero(t, s.saves)
}

func TestLogout(t *testing.T) {
	s := &mapStore{values: map[string]string{KeyAccessToken: "a"}}
	require.NoError(t, newTestManager(s, &fakeRefresher{}).Logout())
	require.True(t, s.deleted)
}
