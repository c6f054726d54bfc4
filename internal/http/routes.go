package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	authctl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/auth"
	profilectl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/profile"
	proxyctl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/proxy"
	mw "github.com/chgasparoto/tf-aws-serverless/internal/http/middlewares"
	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
)

// MuxDeps agrupa lo que necesita el router.
type MuxDeps struct {
	Verifier *jwtx.Verifier

	Signup  *authctl.SignupController
	Profile *profilectl.Controller
	Proxy   *proxyctl.Controller

	Metrics stdhttp.Handler
	Readyz  stdhttp.Handler

	// AllowBootstrap decide si POST /v1/users acepta requests sin token.
	AllowBootstrap bool
}

// NewMux arma el router completo con la cadena de middlewares global.
func NewMux(deps MuxDeps) stdhttp.Handler {
	r := chi.NewRouter()

	// Health
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Readyz != nil {
		r.Method(stdhttp.MethodGet, "/readyz", deps.Readyz)
	}
	if deps.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", deps.Metrics)
	}

	requireAuth := mw.RequireAuth(deps.Verifier)
	optionalAuth := mw.OptionalAuth(deps.Verifier)

	// El POST de users cambia de semántica según el modo bootstrap: sin
	// bootstrap exige token como PUT; con bootstrap el token es opcional y
	// la decisión la toma el servicio según exista o no el email.
	postAuth := requireAuth
	if deps.AllowBootstrap {
		postAuth = optionalAuth
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(stdhttp.MethodPost, "/auth/signup", stdhttp.HandlerFunc(deps.Signup.Signup))

		r.Route("/users", func(r chi.Router) {
			r.Method(stdhttp.MethodGet, "/", mw.ChainFunc(deps.Profile.Get, requireAuth))
			r.Method(stdhttp.MethodPut, "/", mw.ChainFunc(deps.Profile.Update, requireAuth))
			r.Method(stdhttp.MethodPost, "/", mw.ChainFunc(deps.Profile.Upsert, postAuth))

			r.Method(stdhttp.MethodGet, "/{userId}", mw.ChainFunc(deps.Profile.Get, requireAuth))
			r.Method(stdhttp.MethodPut, "/{userId}", mw.ChainFunc(deps.Profile.Update, requireAuth))
			r.Method(stdhttp.MethodPost, "/{userId}", mw.ChainFunc(deps.Profile.Upsert, postAuth))
		})

		r.Route("/third-party/users/{userId}", func(r chi.Router) {
			proxyHandler := mw.ChainFunc(deps.Proxy.Handle, requireAuth)
			r.Handle("/", proxyHandler)
			r.Handle("/{action}", proxyHandler)
			r.Handle("/{action}/{resourceId}", proxyHandler)
		})
	})

	// Cadena global: request id primero, después logging (ya con el id) y
	// métricas; recover lo más adentro posible para loguear con contexto.
	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithLogging(),
		WithMetrics,
		mw.WithRecover(),
	)
}
