package profile

import "time"

// UpsertRequest es el body de POST/PUT /v1/users[/{userId}]. Según el flujo,
// solo algunos campos aplican: el update autenticado usa el locator; el
// bootstrap usa email + locator opcional.
type UpsertRequest struct {
	Email                        string `json:"email,omitempty"`
	ThirdPartyServiceID          string `json:"thirdPartyServiceId,omitempty"`
	ThirdPartyServiceCredentials string `json:"thirdPartyServiceCredentials,omitempty"`
}

// Response es la vista pública del perfil.
type Response struct {
	UserID                       string    `json:"userId"`
	Email                        string    `json:"email"`
	ThirdPartyServiceCredentials string    `json:"thirdPartyServiceCredentials,omitempty"`
	CreatedAt                    time.Time `json:"createdAt"`
	UpdatedAt                    time.Time `json:"updatedAt"`
}

// UpdatedResponse confirma un update de credenciales.
type UpdatedResponse struct {
	Message string `json:"message"`
}

// BootstrapResponse confirma la creación de un perfil temporal sin token.
type BootstrapResponse struct {
	Message    string `json:"message"`
	TempUserID string `json:"tempUserId"`
	Email      string `json:"email"`
}
