package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
)

func TestGateway_Call(t *testing.T) {
	g := gateway.New(time.Second)
	ctx := context.Background()

	t.Run("2xx json body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		res := g.Call(ctx, http.MethodGet, srv.URL, "Bearer tok", nil)
		require.True(t, res.Success)
		assert.JSONEq(t, `{"ok":true}`, string(res.Data))
		assert.Empty(t, res.Message)
	})

	t.Run("post sends json body and content type", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hello", body["text"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"created":true}`))
		}))
		defer srv.Close()

		res := g.Call(ctx, http.MethodPost, srv.URL, "Basic dTpw", map[string]string{"text": "hello"})
		require.True(t, res.Success)
	})

	t.Run("non-2xx becomes tagged failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		res := g.Call(ctx, http.MethodGet, srv.URL, "", nil)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "403")
	})

	t.Run("network error becomes tagged failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // cerrado a propósito

		res := g.Call(ctx, http.MethodGet, srv.URL, "", nil)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("empty 2xx body still succeeds", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		res := g.Call(ctx, http.MethodDelete, srv.URL, "", nil)
		assert.True(t, res.Success)
	})
}
