package auth

// SignupRequest represents the request body for POST /v1/auth/signup
type SignupRequest struct {
	// Email is required and must be a valid email format.
	Email string `json:"email"`
	// Password is required, minimum 8 characters.
	Password string `json:"password"`
}

// SignupTokens son los tokens de la primera sesión, tal cual los entrega el
// identity provider.
type SignupTokens struct {
	IDToken      string `json:"idToken,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
}

// SignupResponse represents the response for a successful signup.
type SignupResponse struct {
	Message string       `json:"message"`
	UserID  string       `json:"userId"`
	Email   string       `json:"email"`
	Tokens  SignupTokens `json:"tokens"`
}
