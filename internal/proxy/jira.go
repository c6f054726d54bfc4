package proxy

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// Operaciones del issue tracker. La instancia es del cliente, así que la URL
// base sale del bundle.

func jiraBase(creds *vault.Credentials) (string, error) {
	base := strings.TrimRight(creds.BaseURL, "/")
	if base == "" {
		return "", badRequest("jira credential bundle has no base url")
	}
	return base, nil
}

func jiraSearchIssues(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := jiraBase(creds)
	if err != nil {
		return nil, err
	}
	u := base + "/rest/api/3/search"
	if req.Params.JQL != "" {
		u += "?jql=" + url.QueryEscape(req.Params.JQL)
	}
	return d.gw.Call(ctx, http.MethodGet, u, auth, nil), nil
}

func jiraGetProject(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := jiraBase(creds)
	if err != nil {
		return nil, err
	}
	if req.Params.ProjectKey == "" {
		return nil, badRequest("invalid endpoint for jira")
	}
	u := base + "/rest/api/3/project/" + url.PathEscape(req.Params.ProjectKey)
	return d.gw.Call(ctx, http.MethodGet, u, auth, nil), nil
}

func jiraCreateIssue(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	base, err := jiraBase(creds)
	if err != nil {
		return nil, err
	}
	return d.gw.Call(ctx, http.MethodPost, base+"/rest/api/3/issue", auth, req.Body), nil
}
