package jwt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

func signRS256(t *testing.T, kid string, priv any, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func baseClaims(sub string) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
		"iat":   time.Now().Add(-10 * time.Second).Unix(),
	}
}

func TestVerify_ValidToken(t *testing.T) {
	jwk, priv := rsaJWK(t, "kid-a")
	f := &fakeFetcher{set: &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}}}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	token := signRS256(t, "kid-a", priv, baseClaims("user-1"))
	claims, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "user-1@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
}

func TestVerify_UnknownKID(t *testing.T) {
	jwk, _ := rsaJWK(t, "kid-a")
	// Firmado con otra clave cuyo kid no está en el set.
	_, rogue := rsaJWK(t, "kid-rogue")
	f := &fakeFetcher{set: &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}}}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	token := signRS256(t, "kid-rogue", rogue, baseClaims("user-1"))
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown kid, got %v", err)
	}
}

func TestVerify_SignatureMismatch(t *testing.T) {
	jwk, _ := rsaJWK(t, "kid-a")
	_, rogue := rsaJWK(t, "ignored")
	f := &fakeFetcher{set: &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}}}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	// kid correcto pero firmado con una clave distinta.
	token := signRS256(t, "kid-a", rogue, baseClaims("user-1"))
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for bad signature, got %v", err)
	}
}

func TestVerify_RejectsForeignAlgorithm(t *testing.T) {
	jwk, _ := rsaJWK(t, "kid-a")
	f := &fakeFetcher{set: &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}}}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	// HS256 con el kid válido: debe rechazarse aunque el kid exista
	// (algorithm substitution).
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, baseClaims("user-1"))
	tok.Header["kid"] = "kid-a"
	signed, err := tok.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if _, err := v.Verify(context.Background(), signed); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS256 token, got %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	jwk, priv := rsaJWK(t, "kid-a")
	f := &fakeFetcher{set: &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}}}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	claims := baseClaims("user-1")
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signRS256(t, "kid-a", priv, claims)
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_MalformedToken(t *testing.T) {
	jwk, _ := rsaJWK(t, "kid-a")
	f := &fakeFetcher{set: &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}}}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	if _, err := v.Verify(context.Background(), "not.a.jwt"); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}

func TestVerify_KeyFetchFailureIsNotInvalidToken(t *testing.T) {
	f := &fakeFetcher{err: errors.New("jwks endpoint down")}
	v := jwtx.NewVerifier(jwtx.NewKeysetCache(f, time.Hour))

	jwkOther, priv := rsaJWK(t, "kid-a")
	_ = jwkOther
	token := signRS256(t, "kid-a", priv, baseClaims("user-1"))

	_, err := v.Verify(context.Background(), token)
	if !errors.Is(err, jwtx.ErrKeyFetch) {
		t.Fatalf("expected ErrKeyFetch, got %v", err)
	}
	if errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("fetch failure must not be classified as an invalid token")
	}
}
