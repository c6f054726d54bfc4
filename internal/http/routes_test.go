package http_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	apihttp "github.com/chgasparoto/tf-aws-serverless/internal/http"
	authctl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/auth"
	profilectl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/profile"
	proxyctl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/proxy"
	authsvc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/auth"
	profilesvc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/profile"
	proxysvc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/idp"
	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
	proxypkg "github.com/chgasparoto/tf-aws-serverless/internal/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// ---- fakes ----

type memRepo struct {
	byID    map[string]*core.Profile
	byEmail map[string]*core.Profile
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]*core.Profile{}, byEmail: map[string]*core.Profile{}}
}

func (r *memRepo) GetByUserID(ctx context.Context, userID string) (*core.Profile, error) {
	if p, ok := r.byID[userID]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*core.Profile, error) {
	if p, ok := r.byEmail[email]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

func (r *memRepo) Put(ctx context.Context, p *core.Profile) error {
	r.byID[p.UserID] = p
	r.byEmail[p.Email] = p
	return nil
}

func (r *memRepo) UpdateCredentialLocator(ctx context.Context, userID, locator string) error {
	p, ok := r.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	p.CredentialLocator = locator
	return nil
}

type memIDP struct {
	jwks      *jwtx.JWKSet
	userID    string
	tokens    *idp.Tokens
	createErr error
}

func (f *memIDP) CreateAccount(ctx context.Context, email, tempPassword string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.userID, nil
}

func (f *memIDP) SetPermanentPassword(ctx context.Context, email, password string) error {
	return nil
}

func (f *memIDP) SignIn(ctx context.Context, email, password string) (*idp.Tokens, error) {
	return f.tokens, nil
}

func (f *memIDP) FetchSigningKeys(ctx context.Context) (*jwtx.JWKSet, error) {
	return f.jwks, nil
}

type memVault struct{ creds *vault.Credentials }

func (f *memVault) GetCredentials(ctx context.Context, locator string) (*vault.Credentials, error) {
	return f.creds, nil
}

type memGateway struct {
	url string
}

func (g *memGateway) Call(ctx context.Context, method, url, auth string, body any) *gateway.Response {
	g.url = url
	return &gateway.Response{Success: true, Data: json.RawMessage(`{"ok":true}`)}
}

// ---- harness ----

type harness struct {
	mux      http.Handler
	repo     *memRepo
	gw       *memGateway
	provider *memIDP
	priv     *rsa.PrivateKey
	kid      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kid := "test-kid"
	jwk := jwtx.JWK{
		KID: kid,
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(priv.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.PublicKey.E)).Bytes()),
	}

	repo := newMemRepo()
	provider := &memIDP{
		jwks:   &jwtx.JWKSet{Keys: []jwtx.JWK{jwk}},
		userID: "u-1",
		tokens: &idp.Tokens{IDToken: "id", AccessToken: "at", ExpiresIn: 3600, TokenType: "Bearer"},
	}
	gw := &memGateway{}
	v := &memVault{creds: &vault.Credentials{Service: vault.ServiceGitHub, APIKey: "k", Username: "octo"}}

	verifier := jwtx.NewVerifier(jwtx.NewKeysetCache(provider, time.Hour))

	mux := apihttp.NewMux(apihttp.MuxDeps{
		Verifier: verifier,
		Signup:   authctl.NewSignupController(authsvc.NewSignupService(authsvc.SignupDeps{IDP: provider, Profiles: repo})),
		Profile:  profilectl.NewController(profilesvc.NewService(profilesvc.Deps{Profiles: repo}), false),
		Proxy: proxyctl.NewController(proxysvc.NewService(proxysvc.Deps{
			Profiles:   repo,
			Vault:      v,
			Dispatcher: proxypkg.NewDispatcher(gw),
		})),
	})

	return &harness{mux: mux, repo: repo, gw: gw, provider: provider, priv: priv, kid: kid}
}

func (h *harness) token(t *testing.T, sub string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = h.kid
	signed, err := tok.SignedString(h.priv)
	require.NoError(t, err)
	return signed
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestSignupEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/v1/auth/signup", "", `{"email":"a@b.com","password":"password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp["userId"])
	assert.Equal(t, "a@b.com", resp["email"])
	tokens := resp["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["idToken"])
	assert.NotEmpty(t, tokens["accessToken"])

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/auth/signup", "", `{"email":"a@b.com","password":"password1"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/auth/signup", "", `{"email":"c@d.com","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unconfigured provider is a configuration error", func(t *testing.T) {
		h.provider.createErr = idp.ErrNotConfigured
		defer func() { h.provider.createErr = nil }()

		rec := h.do(http.MethodPost, "/v1/auth/signup", "", `{"email":"e@f.com","password":"password1"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "CONFIGURATION_ERROR")
	})
}

func TestProfileEndpoint(t *testing.T) {
	h := newHarness(t)
	h.repo.byID["u-1"] = &core.Profile{UserID: "u-1", Email: "a@b.com"}

	t.Run("no token", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/users", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("own profile", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/users/u-1", h.token(t, "u-1"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "a@b.com")
	})

	t.Run("someone else's profile", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/users/u-1", h.token(t, "u-2"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/users", "not.a.jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("credential update", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/v1/users/u-1", h.token(t, "u-1"), `{"thirdPartyServiceCredentials":"customer/github"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "customer/github", h.repo.byID["u-1"].CredentialLocator)
	})

	t.Run("update without credentials", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/v1/users/u-1", h.token(t, "u-1"), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProxyEndpoint(t *testing.T) {
	h := newHarness(t)
	h.repo.byID["u-1"] = &core.Profile{UserID: "u-1", Email: "a@b.com", CredentialLocator: "customer/github"}

	t.Run("no token", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/third-party/users/u-1/repos", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lists repos", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/third-party/users/u-1/repos", h.token(t, "u-1"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://api.github.com/user/repos", h.gw.url)
	})

	t.Run("fetches single repo", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/third-party/users/u-1/repos/hello", h.token(t, "u-1"), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://api.github.com/repos/octo/hello", h.gw.url)
	})

	t.Run("other user's proxy", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/third-party/users/u-1/repos", h.token(t, "u-2"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unsupported method", func(t *testing.T) {
		rec := h.do(http.MethodDelete, "/v1/third-party/users/u-1/repos", h.token(t, "u-1"), "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
