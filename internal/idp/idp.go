// Package idp define el contrato con el identity provider externo.
// La creación de cuentas, el seteo de passwords y la emisión de tokens son
// capacidades del provider; este servicio solo las consume.
package idp

import (
	"context"
	"errors"

	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
)

// Tokens es el resultado de un sign-in exitoso.
type Tokens struct {
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// Provider es el identity provider.
type Provider interface {
	// CreateAccount crea la cuenta y retorna el user id del provider.
	// Si el username ya existe retorna ErrUserExists.
	CreateAccount(ctx context.Context, email, tempPassword string) (string, error)

	// SetPermanentPassword fija el password definitivo de la cuenta.
	SetPermanentPassword(ctx context.Context, email, password string) error

	// SignIn autentica y retorna los tokens de sesión.
	SignIn(ctx context.Context, email, password string) (*Tokens, error)

	// FetchSigningKeys obtiene el JWK set publicado del pool.
	FetchSigningKeys(ctx context.Context) (*jwtx.JWKSet, error)
}

// ErrUserExists indica que ya hay una cuenta con ese username/email.
var ErrUserExists = errors.New("idp: username already exists")

// ErrNotConfigured indica que falta la configuración mínima del provider
// (user pool o client id). Se detecta recién al usar el provider, no al
// construirlo, igual que el deployment original.
var ErrNotConfigured = errors.New("idp: provider is not configured")
