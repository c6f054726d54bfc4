// Package gateway hace las llamadas HTTP a los servicios de terceros.
//
// El resultado siempre es un Response etiquetado: un status no-2xx o un
// error de red producen Success=false con el detalle en Message, nunca un
// error de Go hacia arriba. Un solo intento por llamada, sin retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

const maxResponseBytes = 4 << 20 // 4 MiB

// Response es el resultado etiquetado de una llamada al upstream.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Gateway ejecuta requests contra upstreams de terceros.
type Gateway struct {
	client *http.Client
}

// New crea un Gateway con el timeout dado. Si timeout es 0 se usan 15s.
func New(timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{client: &http.Client{Timeout: timeout}}
}

// Call ejecuta method sobre url con el header Authorization dado. body, si no
// es nil, se serializa como JSON.
func (g *Gateway) Call(ctx context.Context, method, url, authHeader string, body any) *Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return failure(fmt.Sprintf("encode request body: %v", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return failure(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	res, err := g.client.Do(req)
	if err != nil {
		logger.From(ctx).Warn("upstream call failed",
			logger.Method(method),
			logger.URL(url),
			logger.Err(err),
		)
		return failure("upstream request failed")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return failure("read upstream response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.From(ctx).Warn("upstream returned non-2xx",
			logger.Method(method),
			logger.URL(url),
			logger.Status(res.StatusCode),
		)
		return failure(fmt.Sprintf("upstream returned status %d", res.StatusCode))
	}

	if len(raw) == 0 || !json.Valid(raw) {
		// Algunos upstreams responden 204 o texto plano en 2xx.
		raw, _ = json.Marshal(string(raw))
	}
	return &Response{Success: true, Data: raw}
}

func failure(msg string) *Response {
	return &Response{Success: false, Message: msg}
}
