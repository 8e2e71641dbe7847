package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

// SigningKey es una clave pública publicada por el IdP.
type SigningKey struct {
	KID       string
	Algorithm string
	Key       crypto.PublicKey
}

// KeySet es el conjunto de claves de un dominio en un instante dado.
// Es inmutable: el cache lo reemplaza entero.
type KeySet struct {
	domain    string
	fetchedAt time.Time
	keys      []SigningKey
	document  []byte
}

// ParseKeySet decodifica un documento JWKS. Las claves con use distinto de
// "sig" se ignoran; si falta alg se infiere del tipo de clave.
func ParseKeySet(domain string, document []byte, fetchedAt time.Time) (*KeySet, error) {
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(document, &set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make([]SigningKey, 0, len(set.Keys))
	for _, k := range set.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub := k
		if !k.IsPublic() {
			pub = k.Public()
		}
		if pub.Key == nil {
			continue
		}
		alg := k.Algorithm
		if alg == "" {
			alg = inferAlgorithm(pub.Key)
		}
		if alg == "" {
			continue
		}
		keys = append(keys, SigningKey{KID: k.KeyID, Algorithm: alg, Key: pub.Key})
	}

	doc := make([]byte, len(document))
	copy(doc, document)
	return &KeySet{domain: domain, fetchedAt: fetchedAt, keys: keys, document: doc}, nil
}

func inferAlgorithm(key any) string {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		switch k.Curve.Params().BitSize {
		case 256:
			return "ES256"
		case 384:
			return "ES384"
		case 521:
			return "ES512"
		}
	case ed25519.PublicKey:
		return "EdDSA"
	}
	return ""
}

// Lookup devuelve la clave con ese kid. Si hay duplicados gana la primera.
func (ks *KeySet) Lookup(kid string) (SigningKey, bool) {
	if ks == nil {
		return SigningKey{}, false
	}
	for _, k := range ks.keys {
		if k.KID == kid {
			return k, true
		}
	}
	return SigningKey{}, false
}

// Keys devuelve una copia de las claves en el orden del documento.
func (ks *KeySet) Keys() []SigningKey {
	out := make([]SigningKey, len(ks.keys))
	copy(out, ks.keys)
	return out
}

func (ks *KeySet) Domain() string       { return ks.domain }
func (ks *KeySet) FetchedAt() time.Time { return ks.fetchedAt }
func (ks *KeySet) Len() int             { return len(ks.keys) }
