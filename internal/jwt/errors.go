package jwt

import "errors"

// Errores de descarga y verificación. Se comparan con errors.Is; las causas
// concretas quedan envueltas.
var (
	ErrFetchFailed      = errors.New("jwks fetch failed")
	ErrMalformedToken   = errors.New("malformed token")
	ErrUnknownKey       = errors.New("unknown signing key")
	ErrBadSignature     = errors.New("bad token signature")
	ErrAudienceMismatch = errors.New("token audience mismatch")
	ErrExpired          = errors.New("token expired")
)
