// Package profile contiene el servicio de gestión de perfiles.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
	"github.com/chgasparoto/tf-aws-serverless/internal/validation"
)

// Service define las operaciones sobre el perfil propio.
type Service interface {
	// Get retorna el perfil del caller autenticado.
	Get(ctx context.Context, userID string) (*core.Profile, error)

	// UpdateCredentials actualiza el locator de credenciales del caller.
	UpdateCredentials(ctx context.Context, userID, locator string) error

	// Bootstrap implementa el alta sin token previo: si el email ya tiene
	// perfil exige token y ownership para actualizar; si no, crea un perfil
	// bajo un id temporal hasta la primera sesión autenticada.
	Bootstrap(ctx context.Context, in BootstrapInput) (*BootstrapResult, error)
}

// BootstrapInput es el input del flujo de alta sin token.
type BootstrapInput struct {
	Email   string
	Locator string
	// CallerSubject es el sub del token si el request venía autenticado.
	CallerSubject string
}

// BootstrapResult distingue alta nueva de update sobre perfil existente.
type BootstrapResult struct {
	Created    bool
	TempUserID string
	Email      string
}

// Deps contains dependencies for the profile service.
type Deps struct {
	Profiles core.ProfileRepository
}

type service struct {
	deps Deps
}

// NewService creates a new profile Service.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

// Profile service errors
var (
	ErrProfileNotFound = errors.New("user not found")
	ErrNoCredentials   = errors.New("no credentials provided for update")
	ErrEmailRequired   = errors.New("email is required")
	ErrEmailInvalid    = errors.New("invalid email format")
	ErrAuthRequired    = errors.New("authorization required for profile updates")
	ErrOwnership       = errors.New("unauthorized access to user data")
)

func (s *service) Get(ctx context.Context, userID string) (*core.Profile, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("profile"),
		logger.Op("Get"),
		logger.UserID(userID),
	)

	p, err := s.deps.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("profile not found")
			return nil, ErrProfileNotFound
		}
		log.Error("profile lookup failed", logger.Err(err))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *service) UpdateCredentials(ctx context.Context, userID, locator string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("profile"),
		logger.Op("UpdateCredentials"),
		logger.UserID(userID),
	)

	if strings.TrimSpace(locator) == "" {
		return ErrNoCredentials
	}

	if err := s.deps.Profiles.UpdateCredentialLocator(ctx, userID, locator); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("profile not found")
			return ErrProfileNotFound
		}
		log.Error("credential update failed", logger.Err(err))
		return fmt.Errorf("update credentials: %w", err)
	}

	log.Info("credentials updated", logger.Locator(locator))
	return nil
}

func (s *service) Bootstrap(ctx context.Context, in BootstrapInput) (*BootstrapResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("profile"),
		logger.Op("Bootstrap"),
	)

	switch {
	case in.Email == "":
		return nil, ErrEmailRequired
	case !validation.ValidEmail(in.Email):
		return nil, ErrEmailInvalid
	}

	log = log.With(logger.Email(in.Email))

	existing, err := s.deps.Profiles.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		// El email ya tiene perfil: solo el dueño autenticado puede tocarlo.
		if in.CallerSubject == "" {
			return nil, ErrAuthRequired
		}
		if in.CallerSubject != existing.UserID {
			if existing.IsTemporary() {
				// Un perfil temporal no matchea ningún subject real hasta
				// que la primera sesión lo reconcilie.
				log.Warn("temporary profile not yet claimable", logger.UserID(in.CallerSubject))
			} else {
				log.Warn("ownership mismatch", logger.UserID(in.CallerSubject))
			}
			return nil, ErrOwnership
		}
		if strings.TrimSpace(in.Locator) == "" {
			return nil, ErrNoCredentials
		}
		if err := s.deps.Profiles.UpdateCredentialLocator(ctx, existing.UserID, in.Locator); err != nil {
			log.Error("credential update failed", logger.Err(err))
			return nil, fmt.Errorf("update credentials: %w", err)
		}
		log.Info("credentials updated", logger.UserID(existing.UserID))
		return &BootstrapResult{Created: false, Email: in.Email}, nil

	case errors.Is(err, core.ErrNotFound):
		// Alta nueva sin token: perfil temporal hasta la primera sesión.
		tempID := fmt.Sprintf("temp_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
		now := time.Now().UTC()
		p := &core.Profile{
			UserID:            tempID,
			Email:             in.Email,
			CredentialLocator: in.Locator,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.deps.Profiles.Put(ctx, p); err != nil {
			log.Error("temporary profile creation failed", logger.Err(err))
			return nil, fmt.Errorf("create temporary profile: %w", err)
		}
		log.Info("temporary profile created", logger.UserID(tempID))
		return &BootstrapResult{Created: true, TempUserID: tempID, Email: in.Email}, nil

	default:
		log.Error("profile lookup failed", logger.Err(err))
		return nil, fmt.Errorf("lookup profile by email: %w", err)
	}
}
