package proxy

import (
	"context"
	"net/http"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

const githubBaseURL = "https://api.github.com"

// Operaciones del servicio de hosting de código. El owner del repo puntual
// es el username del bundle.

func githubSingleRepo(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	url := githubBaseURL + "/repos/" + creds.Username + "/" + req.Params.ResourceID
	return d.gw.Call(ctx, http.MethodGet, url, auth, nil), nil
}

func githubUser(d *Dispatcher, ctx context.Context, _ *vault.Credentials, auth string, _ Request) (*gateway.Response, error) {
	return d.gw.Call(ctx, http.MethodGet, githubBaseURL+"/user", auth, nil), nil
}

func githubListRepos(d *Dispatcher, ctx context.Context, _ *vault.Credentials, auth string, _ Request) (*gateway.Response, error) {
	return d.gw.Call(ctx, http.MethodGet, githubBaseURL+"/user/repos", auth, nil), nil
}

func githubCreateRepo(d *Dispatcher, ctx context.Context, _ *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	return d.gw.Call(ctx, http.MethodPost, githubBaseURL+"/user/repos", auth, req.Body), nil
}
