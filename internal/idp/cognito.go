package idp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	appconfig "github.com/chgasparoto/tf-aws-serverless/internal/config"
	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
)

// Cognito implementa Provider contra un user pool de Cognito.
type Cognito struct {
	client     *cip.Client
	userPoolID string
	clientID   string
	jwksURL    string
	httpClient *http.Client
}

// NewCognito arma el cliente AWS. Con credenciales estáticas en la config
// se usan esas; si no, la cadena por defecto del SDK. Endpoint opcional
// para emuladores locales.
//
// La config incompleta no impide construir el cliente: cada operación
// retorna ErrNotConfigured hasta que el pool y el client id estén seteados.
func NewCognito(ctx context.Context, cfg *appconfig.Config) (*Cognito, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.IDP.Region),
	}
	if cfg.IDP.AccessKeyID != "" && cfg.IDP.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.IDP.AccessKeyID, cfg.IDP.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("idp: loading aws config: %w", err)
	}

	client := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.IDP.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.IDP.Endpoint)
		}
	})

	jwksURL := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json",
		cfg.IDP.Region, cfg.IDP.UserPoolID)
	if cfg.IDP.Endpoint != "" {
		jwksURL = strings.TrimRight(cfg.IDP.Endpoint, "/") + "/" + cfg.IDP.UserPoolID + "/.well-known/jwks.json"
	}

	return &Cognito{
		client:     client,
		userPoolID: cfg.IDP.UserPoolID,
		clientID:   cfg.IDP.ClientID,
		jwksURL:    jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// configured chequea la config mínima antes de cada operación.
func (c *Cognito) configured() error {
	if c.userPoolID == "" || c.clientID == "" {
		return ErrNotConfigured
	}
	return nil
}

func (c *Cognito) CreateAccount(ctx context.Context, email, tempPassword string) (string, error) {
	if err := c.configured(); err != nil {
		return "", err
	}
	out, err := c.client.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
		UserAttributes: []ciptypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
		// Sin mail de bienvenida: el alta es transparente para el usuario.
		MessageAction:     ciptypes.MessageActionTypeSuppress,
		TemporaryPassword: aws.String(tempPassword),
	})
	if err != nil {
		var exists *ciptypes.UsernameExistsException
		if errors.As(err, &exists) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("idp: creating account: %w", err)
	}
	if out.User == nil || out.User.Username == nil || *out.User.Username == "" {
		return "", fmt.Errorf("idp: provider returned no user id")
	}
	return *out.User.Username, nil
}

func (c *Cognito) SetPermanentPassword(ctx context.Context, email, password string) error {
	if err := c.configured(); err != nil {
		return err
	}
	_, err := c.client.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return fmt.Errorf("idp: setting permanent password: %w", err)
	}
	return nil
}

func (c *Cognito) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	out, err := c.client.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId: aws.String(c.userPoolID),
		ClientId:   aws.String(c.clientID),
		AuthFlow:   ciptypes.AuthFlowTypeAdminNoSrpAuth,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("idp: authentication failed: %w", err)
	}
	res := out.AuthenticationResult
	if res == nil {
		return nil, fmt.Errorf("idp: no authentication result (challenge pending?)")
	}
	return &Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    int64(res.ExpiresIn),
		TokenType:    aws.ToString(res.TokenType),
	}, nil
}

// FetchSigningKeys baja el jwks.json publicado del pool. El endpoint es
// público, no requiere firma AWS.
func (c *Cognito) FetchSigningKeys(ctx context.Context) (*jwtx.JWKSet, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("idp: building jwks request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("idp: fetching jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("idp: jwks endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("idp: reading jwks response: %w", err)
	}
	return jwtx.ParseJWKSet(body)
}
