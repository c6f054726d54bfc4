package proxy

import (
	"context"
	"net/http"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

const slackBaseURL = "https://slack.com/api"

// Operaciones del servicio de mensajería.

func slackListChannels(d *Dispatcher, ctx context.Context, _ *vault.Credentials, auth string, _ Request) (*gateway.Response, error) {
	return d.gw.Call(ctx, http.MethodGet, slackBaseURL+"/conversations.list", auth, nil), nil
}

// slackPostMessage exige channel y text en el body; sin ellos no se toca el
// upstream.
func slackPostMessage(d *Dispatcher, ctx context.Context, _ *vault.Credentials, auth string, req Request) (*gateway.Response, error) {
	channel, _ := req.Body["channel"].(string)
	text, _ := req.Body["text"].(string)
	if channel == "" || text == "" {
		return nil, badRequest("channel and text are required for slack message")
	}
	payload := map[string]string{"channel": channel, "text": text}
	return d.gw.Call(ctx, http.MethodPost, slackBaseURL+"/chat.postMessage", auth, payload), nil
}
