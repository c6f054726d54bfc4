package proxy

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// Operaciones del passthrough genérico: un CRUD REST contra la URL base del
// bundle, con paths /resource/{id} y /resources.

func genericBase(creds *vault.Credentials) (string, error) {
	base := strings.TrimRight(creds.BaseURL, "/")
	if base == "" {
		return "", badRequest("credential bundle has no base url")
	}
	return base, nil
}

func genericResourcePath(req Request) string {
	return "/resource/" + url.PathEscape(req.Params.ResourceID)
}

func genericGetResource(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := genericBase(creds)
	if err != nil {
		return nil, err
	}
	return d.gw.Call(ctx, http.MethodGet, base+genericResourcePath(req), auth, nil), nil
}

func genericListResources(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, _ Request) (*gateway.Response, error) {
	base, err := genericBase(creds)
	if err != nil {
		return nil, err
	}
	return d.gw.Call(ctx, http.MethodGet, base+"/resources", auth, nil), nil
}

func genericCreateResource(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := genericBase(creds)
	if err != nil {
		return nil, err
	}
	return d.gw.Call(ctx, http.MethodPost, base+"/resource", auth, req.Body), nil
}

func genericUpdateResource(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := genericBase(creds)
	if err != nil {
		return nil, err
	}
	return d.gw.Call(ctx, http.MethodPut, base+genericResourcePath(req), auth, req.Body), nil
}

func genericDeleteResource(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := genericBase(creds)
	if err != nil {
		return nil, err
	}
	return d.gw.Call(ctx, http.MethodDelete, base+genericResourcePath(req), auth, nil), nil
}

// genericMissingResourceID cubre PUT/DELETE sin resourceId.
func genericMissingResourceID(_ *Dispatcher, _ context.Context, _ *vault.Credentials, _ string, req Request) (*gateway.Response, error) {
	return nil, badRequest("resource id is required for %s requests", req.Method)
}
