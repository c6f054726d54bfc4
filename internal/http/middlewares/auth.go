package middlewares

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/chgasparoto/tf-aws-serverless/internal/http/errors"
	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

// bearerToken extrae el token del header Authorization. El prefijo "Bearer "
// es opcional: algunos clientes mandan el token pelado.
func bearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return strings.TrimSpace(ah[len("Bearer "):])
	}
	return ah
}

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el
// contexto. Sin token responde 401 AUTH_REQUIRED; con token inválido, 401
// INVALID_TOKEN. Un fallo al traer el key set no es culpa del caller y sale
// como 500.
func RequireAuth(verifier *jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrAuthRequired)
				return
			}

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				if stderrors.Is(err, jwtx.ErrKeyFetch) {
					logger.From(r.Context()).Error("signing key fetch failed", logger.Err(err))
					errors.WriteError(w, errors.ErrExternalService.WithCause(err))
					return
				}
				logger.From(r.Context()).Warn("token rejected", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrInvalidToken.WithCause(err))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth intenta validar el token pero NO falla si no está presente o
// es inválido. Para endpoints con comportamiento distinto según el caller
// venga autenticado o no.
func OptionalAuth(verifier *jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
