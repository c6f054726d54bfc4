// Package jwt verifica bearer tokens RS256 contra el JWK set publicado por
// el identity provider. Acá solo se verifica, nunca se firma.
package jwt

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// JWK es una clave pública RSA del set publicado por el provider.
type JWK struct {
	KID string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSet es el documento jwks.json completo.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// Find busca la clave con el kid dado.
func (s *JWKSet) Find(kid string) (*JWK, bool) {
	for i := range s.Keys {
		if s.Keys[i].KID == kid {
			return &s.Keys[i], true
		}
	}
	return nil, false
}

// ParseJWKSet decodifica un documento jwks.json.
func ParseJWKSet(b []byte) (*JWKSet, error) {
	var set JWKSet
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("jwt: parsing jwks: %w", err)
	}
	if len(set.Keys) == 0 {
		return nil, fmt.Errorf("jwt: jwks has no keys")
	}
	return &set, nil
}

// PublicKey convierte la JWK (n/e base64url) a *rsa.PublicKey.
// Solo se acepta kty RSA; cualquier otro tipo se rechaza.
func (k *JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("jwt: unsupported jwk kty %q", k.Kty)
	}
	if k.N == "" || k.E == "" {
		return nil, fmt.Errorf("jwt: invalid RSA jwk: missing n/e")
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("jwt: decoding rsa n: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("jwt: decoding rsa e: %w", err)
	}

	// Exponente big-endian a int.
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("jwt: invalid rsa exponent")
	}
	n := new(big.Int).SetBytes(nBytes)
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("jwt: invalid rsa modulus")
	}
	return &rsa.PublicKey{N: n, E: e}, nil
}
