// Package proxy contiene el servicio que arma el contexto de una llamada
// proxeada: perfil, locator y bundle de credenciales.
package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
	"github.com/chgasparoto/tf-aws-serverless/internal/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// Service ejecuta requests proxeados hacia el servicio de terceros del caller.
type Service interface {
	Execute(ctx context.Context, userID string, req proxy.Request) (*gateway.Response, error)
}

// Deps contains dependencies for the proxy service.
type Deps struct {
	Profiles   core.ProfileRepository
	Vault      vault.Vault
	Dispatcher *proxy.Dispatcher
}

type service struct {
	deps Deps
}

// NewService creates a new proxy Service.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

// Proxy service errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoLocator    = errors.New("no third-party service credentials found for user")

	// ErrVault marca fallas del secret store, no del caller.
	ErrVault = errors.New("secret retrieval failure")
)

func (s *service) Execute(ctx context.Context, userID string, req proxy.Request) (*gateway.Response, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("proxy"),
		logger.Op("Execute"),
		logger.UserID(userID),
	)

	p, err := s.deps.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("profile not found")
			return nil, ErrUserNotFound
		}
		log.Error("profile lookup failed", logger.Err(err))
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if p.CredentialLocator == "" {
		log.Debug("profile has no credential locator")
		return nil, ErrNoLocator
	}

	creds, err := s.deps.Vault.GetCredentials(ctx, p.CredentialLocator)
	if err != nil {
		log.Error("credential retrieval failed",
			logger.Locator(p.CredentialLocator),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrVault, err)
	}

	res, err := s.deps.Dispatcher.Dispatch(ctx, creds, req)
	if err != nil {
		return nil, err
	}

	if !res.Success {
		log.Warn("upstream reported failure", logger.Upstream(string(creds.Service)))
	}
	return res, nil
}
