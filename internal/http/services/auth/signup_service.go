// Package auth contiene el servicio de registro de usuarios.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	dto "github.com/chgasparoto/tf-aws-serverless/internal/http/dto/auth"
	"github.com/chgasparoto/tf-aws-serverless/internal/idp"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
	"github.com/chgasparoto/tf-aws-serverless/internal/validation"
)

// SignupService define el alta de usuarios.
type SignupService interface {
	// Signup crea la cuenta en el identity provider, el perfil local y la
	// primera sesión, en ese orden. No hay rollback: si un paso posterior
	// falla, la cuenta del provider queda huérfana y el error reporta el
	// paso que falló.
	Signup(ctx context.Context, in dto.SignupRequest) (*dto.SignupResponse, error)
}

// SignupDeps contains dependencies for the signup service.
type SignupDeps struct {
	IDP      idp.Provider
	Profiles core.ProfileRepository
}

type signupService struct {
	deps SignupDeps
}

// NewSignupService creates a new SignupService.
func NewSignupService(deps SignupDeps) SignupService {
	return &signupService{deps: deps}
}

// Signup service errors
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrEmailTaken       = errors.New("user already exists")

	// ErrProvider marca fallas del identity provider que no son culpa del
	// caller. Siempre va wrapeado con el paso que falló.
	ErrProvider = errors.New("identity provider failure")
)

func (s *signupService) Signup(ctx context.Context, in dto.SignupRequest) (*dto.SignupResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.signup"),
		logger.Op("Signup"),
	)

	// Validación antes de tocar cualquier colaborador externo.
	switch {
	case in.Email == "":
		return nil, ErrEmailRequired
	case !validation.ValidEmail(in.Email):
		return nil, ErrEmailInvalid
	case in.Password == "":
		return nil, ErrPasswordRequired
	case !validation.ValidPassword(in.Password):
		return nil, ErrPasswordTooShort
	}

	log = log.With(logger.Email(in.Email))

	// Chequeo de duplicado en el store propio. Si ya existe, no se llama al
	// provider.
	if _, err := s.deps.Profiles.GetByEmail(ctx, in.Email); err == nil {
		log.Debug("email already registered")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		log.Error("profile lookup failed", logger.Err(err))
		return nil, fmt.Errorf("lookup profile by email: %w", err)
	}

	userID, err := s.deps.IDP.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, idp.ErrUserExists) {
			log.Debug("provider reports existing account")
			return nil, ErrEmailTaken
		}
		if errors.Is(err, idp.ErrNotConfigured) {
			log.Error("identity provider not configured")
			return nil, err
		}
		log.Error("account creation failed", logger.Err(err))
		return nil, fmt.Errorf("%w: create account: %v", ErrProvider, err)
	}

	if err := s.deps.IDP.SetPermanentPassword(ctx, in.Email, in.Password); err != nil {
		log.Error("set permanent password failed", logger.UserID(userID), logger.Err(err))
		if errors.Is(err, idp.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: set permanent password: %v", ErrProvider, err)
	}

	now := time.Now().UTC()
	profile := &core.Profile{
		UserID:    userID,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deps.Profiles.Put(ctx, profile); err != nil {
		log.Error("profile creation failed", logger.UserID(userID), logger.Err(err))
		return nil, fmt.Errorf("create profile: %w", err)
	}

	tokens, err := s.deps.IDP.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		log.Error("post-signup sign-in failed", logger.UserID(userID), logger.Err(err))
		if errors.Is(err, idp.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: sign in: %v", ErrProvider, err)
	}

	log.Info("user signup successful", logger.UserID(userID))

	return &dto.SignupResponse{
		Message: "User created successfully",
		UserID:  userID,
		Email:   in.Email,
		Tokens: dto.SignupTokens{
			IDToken:      tokens.IDToken,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			TokenType:    tokens.TokenType,
		},
	}, nil
}
