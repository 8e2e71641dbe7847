package credential

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellotodo/internal/devicelogin"
	"github.com/dropDatabas3/hellotodo/internal/oauth"
	"github.com/dropDatabas3/hellotodo/internal/util"
)

// Refresher canjea un refresh token por un nuevo par.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (oauth.TokenPair, error)
}

// LoginFlow obtiene un par de tokens de forma interactiva.
type LoginFlow interface {
	Run(ctx context.Context) (devicelogin.Result, error)
}

// Manager entrega un access token vigente al CLI, refrescándolo si venció.
// Asume una sola invocación del CLI a la vez sobre el mismo store.
type Manager struct {
	store     Store
	refresher Refresher
	login     LoginFlow
	now       func() time.Time
	log       *zap.Logger
}

type ManagerOption func(*Manager)

func WithLoginFlow(f LoginFlow) ManagerOption {
	return func(m *Manager) { m.login = f }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func NewManager(store Store, refresher Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		refresher: refresher,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// EnsureAccessToken devuelve el access token guardado, refrescado si venció.
// ok es false si no hay credenciales (el usuario debe hacer login).
// Un refresh fallido se devuelve tal cual, sin reintentos.
func (m *Manager) EnsureAccessToken(ctx context.Context) (token string, ok bool, err error) {
	values, err := m.store.Load()
	if err != nil {
		return "", false, err
	}
	access, refresh := values[KeyAccessToken], values[KeyRefreshToken]
	if access == "" || refresh == "" {
		return "", false, nil
	}

	if !expired(access, m.now()) {
		return access, true, nil
	}

	m.log.Debug("access token expired, refreshing", zap.String("token", util.MaskToken(access)))
	tp, err := m.refresher.Refresh(ctx, refresh)
	if err != nil {
		return "", false, fmt.Errorf("refresh access token: %w", err)
	}
	if tp.RefreshToken == "" {
		tp.RefreshToken = refresh
	}
	if err := m.store.Save(pairValues(tp)); err != nil {
		return "", false, err
	}
	return tp.AccessToken, true, nil
}

// Login corre el device flow y guarda el par obtenido.
func (m *Manager) Login(ctx context.Context) (devicelogin.Result, error) {
	if m.login == nil {
		return devicelogin.Result{}, fmt.Errorf("credential: no login flow configured")
	}
	res, err := m.login.Run(ctx)
	if err != nil {
		return res, err
	}
	if err := m.store.Save(pairValues(res.Tokens)); err != nil {
		return res, err
	}
	return res, nil
}

// Logout borra las credenciales guardadas.
func (m *Manager) Logout() error {
	return m.store.Delete()
}

func pairValues(tp oauth.TokenPair) map[string]string {
	values := map[string]string{
		KeyAccessToken:  tp.AccessToken,
		KeyRefreshToken: tp.RefreshToken,
	}
	if tp.IDToken != "" {
		values[KeyIDToken] = tp.IDToken
	}
	return values
}
