package core

import "time"

// Profile es el registro propio del sistema para un usuario, distinto de la
// cuenta en el identity provider. La clave es el user id que devuelve el
// provider al crear la cuenta (o un id temporal `temp_...` en modo bootstrap).
type Profile struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`

	// CredentialLocator referencia un secreto en el vault (nombre/ARN).
	// Nunca contiene el material secreto.
	CredentialLocator string `json:"thirdPartyServiceCredentials,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsTemporary indica si el perfil fue creado por bootstrap sin token.
func (p *Profile) IsTemporary() bool {
	return len(p.UserID) > 5 && p.UserID[:5] == "temp_"
}
