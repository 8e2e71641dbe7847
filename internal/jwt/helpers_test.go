package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1_700_000_000, 0)

const testAudience = "https://todo.example.com/api"

type testKey struct {
	kid  string
	priv *rsa.PrivateKey
}

func newTestKey(t *testing.T, kid string) testKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return testKey{kid: kid, priv: priv}
}

func jwksDocument(t *testing.T, keys ...testKey) []byte {
	t.Helper()
	set := jose.JSONWebKeySet{}
	for _, k := range keys {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       &k.priv.PublicKey,
			KeyID:     k.kid,
			Algorithm: "RS256",
			Use:       "sig",
		})
	}
	b, err := json.Marshal(set)
	require.NoError(t, err)
	return b
}

func testKeySet(t *testing.T, keys ...testKey) *KeySet {
	t.Helper()
	ks, err := ParseKeySet("idp.example.com", jwksDocument(t, keys...), testNow)
	require.NoError(t, err)
	return ks
}

func validClaims() tokenClaims {
	return tokenClaims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "https://idp.example.com/",
			Subject:   "auth0|abc123",
			Audience:  jwtv5.ClaimStrings{testAudience},
			IssuedAt:  jwtv5.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwtv5.NewNumericDate(testNow.Add(time.Hour)),
		},
		AuthorizedParty: "cli-client",
		Scope:           "openid profile",
	}
}

func signToken(t *testing.T, k testKey, claims jwtv5.Claims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	if k.kid != "" {
		tok.Header["kid"] = k.kid
	}
	s, err := tok.SignedString(k.priv)
	require.NoError(t, err)
	return s
}

func newECKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	return priv
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}
