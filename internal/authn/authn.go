// Package authn autentica requests: verifica el bearer contra el KeySet del
// dominio y resuelve la identidad interna.
package authn

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellotodo/internal/identity"
	"github.com/dropDatabas3/hellotodo/internal/jwt"
	"github.com/dropDatabas3/hellotodo/internal/observability/logger"
)

// KeySets es la parte del KeySetCache que necesita el autenticador.
type KeySets interface {
	GetOrFetch(ctx context.Context, domain string) (*jwt.KeySet, error)
	Refresh(ctx context.Context, domain string) (*jwt.KeySet, error)
}

// IdentityResolver resuelve un subject verificado a un usuario interno.
type IdentityResolver interface {
	Resolve(ctx context.Context, externalID, accessToken string) (identity.UserContext, error)
}

// Principal es el resultado de una autenticación exitosa.
type Principal struct {
	User   identity.UserContext
	Claims jwt.VerifiedClaims
}

// Authenticator aplica la política completa para un dominio y audiencia.
type Authenticator struct {
	domain   string
	audience string
	keys     KeySets
	verifier *jwt.Verifier
	resolver IdentityResolver
	log      *zap.Logger
}

type Option func(*Authenticator)

func WithLogger(l *zap.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.log = l
		}
	}
}

func New(domain, audience string, keys KeySets, verifier *jwt.Verifier, resolver IdentityResolver, opts ...Option) *Authenticator {
	a := &Authenticator{
		domain:   domain,
		audience: audience,
		keys:     keys,
		verifier: verifier,
		resolver: resolver,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Authenticate verifica raw y resuelve su usuario. Ante ErrUnknownKey refresca
// el KeySet una sola vez y reintenta; un segundo ErrUnknownKey es definitivo.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (Principal, error) {
	claims, err := a.verify(ctx, raw)
	if err != nil {
		return Principal{}, err
	}
	uc, err := a.resolver.Resolve(ctx, claims.Subject(), raw)
	if err != nil {
		a.log.Warn("identity resolution failed", logger.ExternalID(claims.Subject()), logger.Err(err))
		return Principal{}, err
	}
	return Principal{User: uc, Claims: claims}, nil
}

func (a *Authenticator) verify(ctx context.Context, raw string) (jwt.VerifiedClaims, error) {
	ks, err := a.keys.GetOrFetch(ctx, a.domain)
	if err != nil {
		return jwt.VerifiedClaims{}, err
	}
	claims, err := a.verifier.Verify(raw, a.audience, ks)
	if !errors.Is(err, jwt.ErrUnknownKey) {
		return claims, err
	}

	a.log.Info("unknown signing key, refreshing jwks", logger.Domain(a.domain))
	ks, rerr := a.keys.Refresh(ctx, a.domain)
	if rerr != nil {
		return jwt.VerifiedClaims{}, rerr
	}
	return a.verifier.Verify(raw, a.audience, ks)
}
