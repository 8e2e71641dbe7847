package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/hellotodo/internal/metrics"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	jwtv5.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	Scope           string `json:"scope,omitempty"`
}

// VerifiedClaims son los claims de un token que pasó todas las comprobaciones.
// Sólo Verifier los construye.
type VerifiedClaims struct {
	c tokenClaims
}

func (v VerifiedClaims) Issuer() string          { return v.c.Issuer }
func (v VerifiedClaims) Subject() string         { return v.c.Subject }
func (v VerifiedClaims) AuthorizedParty() string { return v.c.AuthorizedParty }
func (v VerifiedClaims) Scope() string           { return v.c.Scope }

// Audience devuelve una copia de la audiencia del token.
func (v VerifiedClaims) Audience() []string {
	return append([]string(nil), v.c.Audience...)
}

// IssuedAt en segundos unix (0 si el token no lo trae).
func (v VerifiedClaims) IssuedAt() int64 {
	if v.c.IssuedAt == nil {
		return 0
	}
	return v.c.IssuedAt.Unix()
}

// ExpiresAt en segundos unix.
func (v VerifiedClaims) ExpiresAt() int64 {
	if v.c.ExpiresAt == nil {
		return 0
	}
	return v.c.ExpiresAt.Unix()
}

// Verifier valida access tokens contra un KeySet. Es puro: no hace I/O.
type Verifier struct {
	now func() time.Time
}

type VerifierOption func(*Verifier)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify comprueba estructura, kid, firma, audiencia y expiración, en ese orden.
func (v *Verifier) Verify(raw, audience string, ks *KeySet) (VerifiedClaims, error) {
	claims, err := v.verify(raw, audience, ks)
	metrics.TokenVerifications.WithLabelValues(resultLabel(err)).Inc()
	return claims, err
}

func (v *Verifier) verify(raw, audience string, ks *KeySet) (VerifiedClaims, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return VerifiedClaims{}, fmt.Errorf("%w: expected three segments", ErrMalformedToken)
	}

	parser := jwtv5.NewParser()
	unverified, _, err := parser.ParseUnverified(raw, &tokenClaims{})
	if err != nil {
		return VerifiedClaims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return VerifiedClaims{}, fmt.Errorf("%w: missing kid header", ErrMalformedToken)
	}

	key, ok := ks.Lookup(kid)
	if !ok {
		return VerifiedClaims{}, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
	}
	if audience == "" {
		return VerifiedClaims{}, fmt.Errorf("%w: no audience configured", ErrAudienceMismatch)
	}

	claims := &tokenClaims{}
	_, err = jwtv5.ParseWithClaims(raw, claims,
		func(*jwtv5.Token) (any, error) { return key.Key, nil },
		jwtv5.WithValidMethods([]string{key.Algorithm}),
		jwtv5.WithAudience(audience),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(func() time.Time { return v.now().Truncate(time.Second) }),
	)
	if err != nil {
		return VerifiedClaims{}, classify(err, claims)
	}
	return VerifiedClaims{c: *claims}, nil
}

// classify traduce los errores de golang-jwt a la taxonomía propia.
// Audiencia se reporta antes que expiración cuando fallan ambas.
func classify(err error, claims *tokenClaims) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid),
		errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwtv5.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %w", ErrAudienceMismatch, err)
	case errors.Is(err, jwtv5.ErrTokenRequiredClaimMissing) && len(claims.Audience) == 0:
		return fmt.Errorf("%w: aud claim missing", ErrAudienceMismatch)
	case errors.Is(err, jwtv5.ErrTokenExpired),
		errors.Is(err, jwtv5.ErrTokenNotValidYet),
		errors.Is(err, jwtv5.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrUnknownKey):
		return "unknown_key"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrAudienceMismatch):
		return "audience_mismatch"
	case errors.Is(err, ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
