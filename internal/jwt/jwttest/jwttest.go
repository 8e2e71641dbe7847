// Package jwttest provee claves, tokens firmados y un IdP falso para tests.
package jwttest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Key es una clave RSA de firma con su kid.
type Key struct {
	KID     string
	Private *rsa.PrivateKey
}

func NewKey(t testing.TB, kid string) Key {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return Key{KID: kid, Private: priv}
}

// JWKS serializa las claves públicas como documento JWKS.
func JWKS(t testing.TB, keys ...Key) []byte {
	t.Helper()
	set := jose.JSONWebKeySet{}
	for _, k := range keys {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       &k.Private.PublicKey,
			KeyID:     k.KID,
			Algorithm: "RS256",
			Use:       "sig",
		})
	}
	b, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return b
}

// Claims arma claims estándar para sub/aud válidos por ttl desde now.
func Claims(sub, aud string, now time.Time, ttl time.Duration) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"iss":   "https://idp.test/",
		"sub":   sub,
		"aud":   aud,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"scope": "openid profile email",
	}
}

// Sign firma claims con RS256 y el kid de k.
func Sign(t testing.TB, k Key, claims jwtv5.Claims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = k.KID
	s, err := tok.SignedString(k.Private)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// Profile es lo que el IdP falso devuelve en /userinfo.
type Profile struct {
	Name  string
	Email string
}

// IdP es un proveedor de identidad falso: publica JWKS y responde /userinfo
// con el sub del bearer (sin verificar).
type IdP struct {
	*httptest.Server

	mu            sync.Mutex
	keys          []Key
	profiles      map[string]Profile
	userInfoError int

	JWKSHits     atomic.Int32
	UserInfoHits atomic.Int32
}

func NewIdP(t testing.TB, keys ...Key) *IdP {
	t.Helper()
	p := &IdP{keys: keys, profiles: map[string]Profile{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", p.serveJWKS(t))
	mux.HandleFunc("/userinfo", p.serveUserInfo)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

// SetKeys reemplaza las claves publicadas (rotación).
func (p *IdP) SetKeys(keys ...Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = keys
}

func (p *IdP) SetProfile(sub string, prof Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[sub] = prof
}

// FailUserInfo hace que /userinfo responda con status (0 = normal).
func (p *IdP) FailUserInfo(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userInfoError = status
}

func (p *IdP) serveJWKS(t testing.TB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		p.JWKSHits.Add(1)
		p.mu.Lock()
		doc := JWKS(t, p.keys...)
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}
}

func (p *IdP) serveUserInfo(w http.ResponseWriter, r *http.Request) {
	p.UserInfoHits.Add(1)
	p.mu.Lock()
	status := p.userInfoError
	p.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := jwtv5.MapClaims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(raw, claims); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	sub, _ := claims["sub"].(string)

	p.mu.Lock()
	prof := p.profiles[sub]
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"sub":   sub,
		"name":  prof.Name,
		"email": prof.Email,
	})
}
