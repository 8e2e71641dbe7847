// Package devicelogin implementa el login interactivo por device authorization:
// pide un código, guía al usuario a la URL de verificación y hace polling
// del token endpoint hasta éxito, rechazo o expiración.
package devicelogin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellotodo/internal/oauth"
)

const (
	DefaultInterval  = 5 * time.Second
	MinInterval      = time.Second
	DefaultExpiresIn = 15 * time.Minute
)

var (
	ErrTransport         = errors.New("device login: transport error")
	ErrDeviceCodeExpired = errors.New("device login: device code expired")
	ErrDenied            = errors.New("device login: access denied")
)

// State es el estado del flujo. Los cuatro últimos son terminales.
type State int

const (
	StateRequesting State = iota
	StateAwaitingUser
	StatePolling
	StateSucceeded
	StateDenied
	StateExpired
	StateTransportError
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateAwaitingUser:
		return "awaiting_user"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateDenied:
		return "denied"
	case StateExpired:
		return "expired"
	case StateTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session es un intento de login en curso.
type Session struct {
	DeviceCode              string
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	ExpiresAt               time.Time
	Interval                time.Duration
}

func newSession(dc oauth.DeviceCode, start time.Time) Session {
	interval := time.Duration(dc.Interval) * time.Second
	switch {
	case dc.Interval == 0:
		interval = DefaultInterval
	case interval < MinInterval:
		interval = MinInterval
	}
	expiresIn := time.Duration(dc.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}
	return Session{
		DeviceCode:              dc.DeviceCode,
		UserCode:                dc.UserCode,
		VerificationURI:         dc.VerificationURI,
		VerificationURIComplete: dc.VerificationURIComplete,
		ExpiresAt:               start.Add(expiresIn),
		Interval:                interval,
	}
}

// BrowserURL es la URL a abrir: la precargada con el código si existe.
func (s Session) BrowserURL() string {
	if s.VerificationURIComplete != "" {
		return s.VerificationURIComplete
	}
	return s.VerificationURI
}

// Result describe cómo terminó el flujo.
type Result struct {
	State  State
	Tokens oauth.TokenPair
	Polls  int
}

// TokenClient es la parte de oauth.Client que usa el flujo.
type TokenClient interface {
	RequestDeviceCode(ctx context.Context, audience, scope string) (oauth.DeviceCode, error)
	PollDeviceToken(ctx context.Context, deviceCode string) (oauth.TokenPair, error)
}

// Prompter muestra al usuario dónde autorizar.
type Prompter interface {
	Show(s Session) error
}

// Opener abre una URL (normalmente en el navegador).
type Opener interface {
	Open(url string) error
}

type Flow struct {
	client   TokenClient
	audience string
	scope    string
	prompter Prompter
	opener   Opener
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zap.Logger
}

type Option func(*Flow)

func WithPrompter(p Prompter) Option { return func(f *Flow) { f.prompter = p } }
func WithOpener(o Opener) Option     { return func(f *Flow) { f.opener = o } }

// WithClock y WithSleep permiten simular el paso del tiempo en tests.
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Flow) { f.sleep = sleep }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.log = l
		}
	}
}

func New(client TokenClient, audience, scope string, opts ...Option) *Flow {
	f := &Flow{
		client:   client,
		audience: audience,
		scope:    scope,
		now:      time.Now,
		sleep:    sleepContext,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Run ejecuta el flujo completo. El error es nil sólo en StateSucceeded.
// Un error de red durante el polling es terminal.
func (f *Flow) Run(ctx context.Context) (Result, error) {
	res := Result{State: StateRequesting}

	dc, err := f.client.RequestDeviceCode(ctx, f.audience, f.scope)
	if err != nil {
		res.State = StateTransportError
		return res, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	start := f.now()
	sess := newSession(dc, start)

	res.State = StateAwaitingUser
	if f.prompter != nil {
		if err := f.prompter.Show(sess); err != nil {
			f.log.Warn("could not show verification prompt", zap.Error(err))
		}
	}
	if f.opener != nil && sess.BrowserURL() != "" {
		if err := f.opener.Open(sess.BrowserURL()); err != nil {
			f.log.Warn("could not open browser", zap.Error(err))
		}
	}

	res.State = StatePolling
	for {
		if !f.now().Before(sess.ExpiresAt) {
			res.State = StateExpired
			return res, ErrDeviceCodeExpired
		}

		tp, err := f.client.PollDeviceToken(ctx, sess.DeviceCode)
		res.Polls++
		switch {
		case err == nil:
			res.State = StateSucceeded
			res.Tokens = tp
			return res, nil
		case errors.Is(err, oauth.ErrAuthorizationPending):
			f.log.Debug("authorization pending", zap.Int("poll", res.Polls))
		case errors.Is(err, oauth.ErrAccessDenied):
			res.State = StateDenied
			return res, ErrDenied
		case errors.Is(err, oauth.ErrExpiredToken):
			res.State = StateExpired
			return res, fmt.Errorf("%w: %w", ErrDeviceCodeExpired, err)
		default:
			res.State = StateTransportError
			return res, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		if err := f.sleep(ctx, sess.Interval); err != nil {
			return res, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
