// Package vault recupera bundles de credenciales de terceros referenciados
// por locator. El material secreto nunca persiste en este proceso: vive en
// memoria solo mientras dura la llamada proxeada.
package vault

import (
	"context"
	"errors"
)

// Vault es el secret store externo.
type Vault interface {
	// GetCredentials resuelve el locator a un bundle decodificado.
	GetCredentials(ctx context.Context, locator string) (*Credentials, error)
}

var (
	// ErrSecretNotFound indica que el locator no existe en el vault.
	ErrSecretNotFound = errors.New("vault: secret not found")

	// ErrMalformedSecret indica que el secreto no tiene la forma esperada.
	ErrMalformedSecret = errors.New("vault: malformed secret payload")
)
