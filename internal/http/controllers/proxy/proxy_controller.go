// Package proxy contiene el controller del proxy de terceros.
package proxy

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chgasparoto/tf-aws-serverless/internal/authz"
	httperrors "github.com/chgasparoto/tf-aws-serverless/internal/http/errors"
	"github.com/chgasparoto/tf-aws-serverless/internal/http/helpers"
	mw "github.com/chgasparoto/tf-aws-serverless/internal/http/middlewares"
	svc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
	proxypkg "github.com/chgasparoto/tf-aws-serverless/internal/proxy"
)

// Controller handles /v1/third-party/users/{userId}[/{action}[/{resourceId}]].
type Controller struct {
	service svc.Service
}

// NewController creates a new proxy controller.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// failureResponse es la respuesta para fallos etiquetados del upstream.
type failureResponse struct {
	Message string `json:"message"`
}

// Handle atiende cualquier método sobre el proxy. El sub-ruteo por servicio
// vive en el dispatcher; acá solo se normaliza el request y se chequea
// ownership.
func (c *Controller) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProxyController.Handle"))

	userID := mw.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrAuthRequired)
		return
	}
	if claims := mw.GetClaims(ctx); claims != nil && claims.Email != "" {
		log = log.With(logger.Email(claims.Email))
	}

	if target := chi.URLParam(r, "userId"); !authz.Authorize(userID, target) {
		log.Warn("ownership mismatch", logger.UserID(userID))
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("unauthorized access to user data"))
		return
	}

	var body map[string]any
	if !helpers.ReadJSON(w, r, &body) {
		return
	}

	params := proxypkg.Params{
		Action:     chi.URLParam(r, "action"),
		ResourceID: chi.URLParam(r, "resourceId"),
		JQL:        r.URL.Query().Get("jql"),
	}
	// En el path de jira el segmento final es la project key.
	if params.Action == "project" {
		params.ProjectKey = params.ResourceID
		params.ResourceID = ""
	}

	res, err := c.service.Execute(ctx, userID, proxypkg.Request{
		Method: r.Method,
		Params: params,
		Body:   body,
	})
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	if !res.Success {
		// Falla del upstream: se reporta como error del request proxeado.
		helpers.WriteJSON(w, http.StatusBadRequest, failureResponse{Message: res.Message})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res.Data)
}

// handleError maps service errors to HTTP responses.
func (c *Controller) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	var badReq *proxypkg.BadRequestError
	var unsupported *proxypkg.UnsupportedMethodError

	switch {
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("user not found"))
	case errors.Is(err, svc.ErrNoLocator):
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("service not configured for user"))
	case errors.As(err, &badReq):
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(badReq.Error()))
	case errors.As(err, &unsupported):
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed.WithDetail(unsupported.Error()))
	case errors.Is(err, svc.ErrVault):
		log.Error("secret retrieval failure", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrExternalService)
	default:
		log.Error("unexpected error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
