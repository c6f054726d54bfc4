// Package profile contiene el controller de gestión de perfiles.
package profile

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chgasparoto/tf-aws-serverless/internal/authz"
	dto "github.com/chgasparoto/tf-aws-serverless/internal/http/dto/profile"
	httperrors "github.com/chgasparoto/tf-aws-serverless/internal/http/errors"
	"github.com/chgasparoto/tf-aws-serverless/internal/http/helpers"
	mw "github.com/chgasparoto/tf-aws-serverless/internal/http/middlewares"
	svc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/profile"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

// Controller handles /v1/users[/{userId}].
type Controller struct {
	service svc.Service
	// allowBootstrap habilita el POST sin token que crea perfiles
	// temporales. Apagado, POST exige token igual que PUT.
	allowBootstrap bool
}

// NewController creates a new profile controller.
func NewController(service svc.Service, allowBootstrap bool) *Controller {
	return &Controller{service: service, allowBootstrap: allowBootstrap}
}

// Get handles GET /v1/users[/{userId}]. Requires authentication; a path
// userId distinto del sub del token es 403.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Get"))

	userID := mw.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrAuthRequired)
		return
	}

	if target := chi.URLParam(r, "userId"); !authz.Authorize(userID, target) {
		log.Warn("ownership mismatch", logger.UserID(userID))
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("unauthorized access to user data"))
		return
	}

	p, err := c.service.Get(ctx, userID)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	resp := dto.Response{
		UserID:                       p.UserID,
		Email:                        p.Email,
		ThirdPartyServiceCredentials: p.CredentialLocator,
		CreatedAt:                    p.CreatedAt,
		UpdatedAt:                    p.UpdatedAt,
	}

	// El perfil es PII: que ningún intermediario lo cachee.
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Update handles PUT /v1/users[/{userId}] y, con bootstrap apagado, también
// POST. Requires authentication y ownership del userId del path.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Update"))

	userID := mw.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrAuthRequired)
		return
	}

	if target := chi.URLParam(r, "userId"); !authz.Authorize(userID, target) {
		log.Warn("ownership mismatch", logger.UserID(userID))
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("unauthorized access to user data"))
		return
	}

	var req dto.UpsertRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.UpdateCredentials(ctx, userID, req.ThirdPartyServiceCredentials); err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.UpdatedResponse{
		Message: "User credentials updated successfully",
	})
}

// Upsert handles POST /v1/users con bootstrap habilitado: crea un perfil
// temporal para emails nuevos, o exige token y ownership para existentes.
func (c *Controller) Upsert(w http.ResponseWriter, r *http.Request) {
	if !c.allowBootstrap {
		c.Update(w, r)
		return
	}

	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Upsert"))

	var req dto.UpsertRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Bootstrap(ctx, svc.BootstrapInput{
		Email:         req.Email,
		Locator:       req.ThirdPartyServiceCredentials,
		CallerSubject: mw.GetUserID(ctx),
	})
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	if result.Created {
		helpers.WriteJSON(w, http.StatusCreated, dto.BootstrapResponse{
			Message:    "User created successfully. Please authenticate to complete setup.",
			TempUserID: result.TempUserID,
			Email:      result.Email,
		})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.UpdatedResponse{
		Message: "User credentials updated successfully",
	})
}

// handleError maps service errors to HTTP responses.
func (c *Controller) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrProfileNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("user not found"))
	case errors.Is(err, svc.ErrNoCredentials):
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("no credentials provided for update"))
	case errors.Is(err, svc.ErrEmailRequired), errors.Is(err, svc.ErrEmailInvalid):
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrAuthRequired):
		httperrors.WriteError(w, httperrors.ErrAuthRequired.WithDetail("authorization required for profile updates"))
	case errors.Is(err, svc.ErrOwnership):
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("unauthorized access to user data"))
	default:
		log.Error("unexpected error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
