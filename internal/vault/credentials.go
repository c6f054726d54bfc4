package vault

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Service identifica el proveedor externo al que pertenece un bundle.
type Service string

const (
	ServiceSlack   Service = "slack"
	ServiceJira    Service = "jira"
	ServiceGitHub  Service = "github"
	ServiceGeneric Service = "generic"
)

// Credentials es el bundle guardado en el vault. Exactamente una de las dos
// variantes de autenticación está presente: APIKey (bearer) o el par
// Username/Password (basic).
type Credentials struct {
	Service  Service `json:"service"`
	BaseURL  string  `json:"baseUrl,omitempty"`
	APIKey   string  `json:"apiKey,omitempty"`
	Username string  `json:"username,omitempty"`
	Password string  `json:"password,omitempty"`
}

// HasAPIKey reporta si el bundle usa la variante bearer.
func (c *Credentials) HasAPIKey() bool { return c.APIKey != "" }

// AuthHeader construye el valor del header Authorization para el upstream.
func (c *Credentials) AuthHeader() (string, error) {
	switch {
	case c.APIKey != "":
		return "Bearer " + c.APIKey, nil
	case c.Username != "" && c.Password != "":
		pair := c.Username + ":" + c.Password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(pair)), nil
	default:
		return "", fmt.Errorf("%w: no usable auth material", ErrMalformedSecret)
	}
}

// DecodeCredentials parsea el payload JSON del secreto y valida su forma.
func DecodeCredentials(raw []byte) (*Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}
	// Bundle sin tag de servicio es válido: va por el passthrough genérico.
	c.Service = Service(strings.ToLower(strings.TrimSpace(string(c.Service))))
	if c.Service == "" {
		c.Service = ServiceGeneric
	}
	if c.APIKey == "" && (c.Username == "" || c.Password == "") {
		return nil, fmt.Errorf("%w: missing auth material", ErrMalformedSecret)
	}
	return &c, nil
}
