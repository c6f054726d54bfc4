// Package auth contiene el controller de registro.
package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	dto "github.com/chgasparoto/tf-aws-serverless/internal/http/dto/auth"
	httperrors "github.com/chgasparoto/tf-aws-serverless/internal/http/errors"
	"github.com/chgasparoto/tf-aws-serverless/internal/http/helpers"
	svc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/auth"
	"github.com/chgasparoto/tf-aws-serverless/internal/idp"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

// SignupController handles POST /v1/auth/signup.
type SignupController struct {
	service svc.SignupService
}

// NewSignupController creates a new signup controller.
func NewSignupController(service svc.SignupService) *SignupController {
	return &SignupController{service: service}
}

// Signup handles the request to register a new user.
func (c *SignupController) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignupController.Signup"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.SignupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.service.Signup(ctx, req)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, resp)
	log.Debug("signup completed", logger.UserID(resp.UserID))
}

// handleError maps service errors to HTTP responses.
func (c *SignupController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case isValidationError(err):
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrEmailTaken):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("User already exists. Please use a different email."))
	case errors.Is(err, idp.ErrNotConfigured):
		log.Error("identity provider not configured", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrConfiguration)
	case errors.Is(err, svc.ErrProvider):
		log.Error("identity provider failure", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrExternalService)
	default:
		log.Error("unexpected error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, svc.ErrEmailRequired) ||
		errors.Is(err, svc.ErrEmailInvalid) ||
		errors.Is(err, svc.ErrPasswordRequired) ||
		errors.Is(err, svc.ErrPasswordTooShort)
}
