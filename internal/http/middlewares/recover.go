package middlewares

import (
	"net/http"

	"github.com/chgasparoto/tf-aws-serverless/internal/http/errors"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

// WithRecover atrapa panics del handler y responde 500 en vez de tirar la
// conexión. El stack queda en el log, nunca en la respuesta.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Path(r.URL.Path),
						logger.Any("panic", rec),
					)
					errors.WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
