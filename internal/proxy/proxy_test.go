package proxy_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// recordingCaller captura la forma de la llamada al gateway sin red.
type recordingCaller struct {
	calls  int
	method string
	url    string
	auth   string
	body   any
}

func (r *recordingCaller) Call(ctx context.Context, method, url, auth string, body any) *gateway.Response {
	r.calls++
	r.method, r.url, r.auth, r.body = method, url, auth, body
	return &gateway.Response{Success: true}
}

func githubCreds() *vault.Credentials {
	return &vault.Credentials{Service: vault.ServiceGitHub, APIKey: "ghp-1", Username: "octo"}
}

func TestInferService(t *testing.T) {
	cases := []struct {
		name   string
		bundle vault.Service
		want   vault.Service
	}{
		{"declared github", vault.ServiceGitHub, vault.ServiceGitHub},
		{"declared slack", vault.ServiceSlack, vault.ServiceSlack},
		{"declared jira", vault.ServiceJira, vault.ServiceJira},
		{"unknown falls back to generic", vault.Service("acme"), vault.ServiceGeneric},
		{"empty falls back to generic", vault.Service(""), vault.ServiceGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, proxy.InferService(tc.bundle))
		})
	}
}

func TestDispatch_GitHub(t *testing.T) {
	ctx := context.Background()

	t.Run("get with resource id fetches single repo", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		res, err := d.Dispatch(ctx, githubCreds(), proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "repos", ResourceID: "hello-world"},
		})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, http.MethodGet, gw.method)
		assert.Equal(t, "https://api.github.com/repos/octo/hello-world", gw.url)
		assert.Equal(t, "Bearer ghp-1", gw.auth)
	})

	t.Run("plain get lists repos", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, githubCreds(), proxy.Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, "https://api.github.com/user/repos", gw.url)
	})

	t.Run("user action fetches account", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, githubCreds(), proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "user"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://api.github.com/user", gw.url)
	})

	t.Run("post creates repo from body", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		body := map[string]any{"name": "new-repo"}
		_, err := d.Dispatch(ctx, githubCreds(), proxy.Request{Method: http.MethodPost, Body: body})
		require.NoError(t, err)
		assert.Equal(t, "https://api.github.com/user/repos", gw.url)
		assert.Equal(t, body, gw.body)
	})

	t.Run("delete is unsupported", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, githubCreds(), proxy.Request{Method: http.MethodDelete})
		var ume *proxy.UnsupportedMethodError
		require.ErrorAs(t, err, &ume)
		assert.Equal(t, 0, gw.calls)
	})
}

func TestDispatch_Slack(t *testing.T) {
	ctx := context.Background()
	creds := &vault.Credentials{Service: vault.ServiceSlack, APIKey: "xoxb-1"}

	t.Run("channels action lists channels", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "channels"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://slack.com/api/conversations.list", gw.url)
	})

	t.Run("message posts channel and text", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodPost,
			Params: proxy.Params{Action: "message"},
			Body:   map[string]any{"channel": "#general", "text": "hola"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://slack.com/api/chat.postMessage", gw.url)
		assert.Equal(t, map[string]string{"channel": "#general", "text": "hola"}, gw.body)
	})

	t.Run("message missing text fails before the gateway", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodPost,
			Params: proxy.Params{Action: "message"},
			Body:   map[string]any{"channel": "#general"},
		})
		var bre *proxy.BadRequestError
		require.ErrorAs(t, err, &bre)
		assert.Equal(t, 0, gw.calls)
	})

	t.Run("get without channels action is invalid", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{Method: http.MethodGet})
		var bre *proxy.BadRequestError
		require.ErrorAs(t, err, &bre)
	})

	t.Run("put is unsupported", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{Method: http.MethodPut})
		var ume *proxy.UnsupportedMethodError
		require.ErrorAs(t, err, &ume)
	})
}

func TestDispatch_Jira(t *testing.T) {
	ctx := context.Background()
	creds := &vault.Credentials{
		Service:  vault.ServiceJira,
		BaseURL:  "https://acme.atlassian.net",
		Username: "bot@acme.io",
		Password: "tok",
	}

	t.Run("issues with jql filter", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "issues", JQL: "project = ACME"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://acme.atlassian.net/rest/api/3/search?jql=project+%3D+ACME", gw.url)
	})

	t.Run("issues without jql", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "issues"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://acme.atlassian.net/rest/api/3/search", gw.url)
	})

	t.Run("project by key", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "project", ProjectKey: "ACME"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://acme.atlassian.net/rest/api/3/project/ACME", gw.url)
	})

	t.Run("basic auth header", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodPost,
			Params: proxy.Params{Action: "issue"},
			Body:   map[string]any{"fields": map[string]any{}},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://acme.atlassian.net/rest/api/3/issue", gw.url)
		assert.Contains(t, gw.auth, "Basic ")
	})

	t.Run("project without key is invalid", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{Action: "project"},
		})
		var bre *proxy.BadRequestError
		require.ErrorAs(t, err, &bre)
		assert.Equal(t, 0, gw.calls)
	})
}

func TestDispatch_Generic(t *testing.T) {
	ctx := context.Background()
	creds := &vault.Credentials{Service: "", BaseURL: "https://api.acme.io/v2", APIKey: "k"}

	t.Run("get lists resources", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, "https://api.acme.io/v2/resources", gw.url)
	})

	t.Run("get with resource id", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodGet,
			Params: proxy.Params{ResourceID: "42"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://api.acme.io/v2/resource/42", gw.url)
	})

	t.Run("put without resource id is invalid", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{Method: http.MethodPut})
		var bre *proxy.BadRequestError
		require.ErrorAs(t, err, &bre)
		assert.Equal(t, 0, gw.calls)
	})

	t.Run("delete without resource id is invalid", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{Method: http.MethodDelete})
		var bre *proxy.BadRequestError
		require.ErrorAs(t, err, &bre)
	})

	t.Run("delete with resource id goes through", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{
			Method: http.MethodDelete,
			Params: proxy.Params{ResourceID: "42"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.MethodDelete, gw.method)
		assert.Equal(t, "https://api.acme.io/v2/resource/42", gw.url)
		assert.Nil(t, gw.body)
	})

	t.Run("patch is unsupported", func(t *testing.T) {
		gw := &recordingCaller{}
		d := proxy.NewDispatcher(gw)

		_, err := d.Dispatch(ctx, creds, proxy.Request{Method: http.MethodPatch})
		var ume *proxy.UnsupportedMethodError
		require.ErrorAs(t, err, &ume)
	})
}

func TestRoutingTableValidates(t *testing.T) {
	d := proxy.NewDispatcher(&recordingCaller{})
	require.NoError(t, d.Validate())
}
