package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/chgasparoto/tf-aws-serverless/internal/config"
)

// SecretsManagerAPI es el subconjunto del cliente AWS que usamos. Mantenerlo
// como interfaz permite fakes en tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager implementa Vault sobre AWS Secrets Manager.
type SecretsManager struct {
	api SecretsManagerAPI
}

// NewSecretsManager construye el cliente desde la config del proceso. Región
// y credenciales se comparten con el bloque idp; el endpoint del vault se
// puede pisar por separado para emuladores locales.
func NewSecretsManager(ctx context.Context, cfg *config.Config) (*SecretsManager, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.IDP.Region),
	}
	if cfg.IDP.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.IDP.AccessKeyID, cfg.IDP.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vault: load aws config: %w", err)
	}
	api := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Vault.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Vault.Endpoint)
		}
	})
	return &SecretsManager{api: api}, nil
}

// NewSecretsManagerWithAPI inyecta un cliente ya construido. Pensado para tests.
func NewSecretsManagerWithAPI(api SecretsManagerAPI) *SecretsManager {
	return &SecretsManager{api: api}
}

func (s *SecretsManager) GetCredentials(ctx context.Context, locator string) (*Credentials, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(locator),
	})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("vault: get secret value: %w", err)
	}
	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return nil, fmt.Errorf("%w: empty secret", ErrMalformedSecret)
	}
	return DecodeCredentials(raw)
}
