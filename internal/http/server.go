// Package http arma el servidor: wiring de colaboradores, router y ciclo de
// vida (arranque y shutdown).
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chgasparoto/tf-aws-serverless/internal/cache"
	"github.com/chgasparoto/tf-aws-serverless/internal/config"
	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	authctl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/auth"
	profilectl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/profile"
	proxyctl "github.com/chgasparoto/tf-aws-serverless/internal/http/controllers/proxy"
	authsvc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/auth"
	profilesvc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/profile"
	proxysvc "github.com/chgasparoto/tf-aws-serverless/internal/http/services/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/idp"
	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
	"github.com/chgasparoto/tf-aws-serverless/internal/proxy"
	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
	dynamostore "github.com/chgasparoto/tf-aws-serverless/internal/store/dynamo"
	pgstore "github.com/chgasparoto/tf-aws-serverless/internal/store/pg"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// Server es el servidor HTTP ya cableado.
type Server struct {
	cfg     *config.Config
	srv     *http.Server
	cleanup []func() error
}

// NewServer construye todos los colaboradores a partir de la config y arma
// el router. Los errores acá son de conectividad y deben abortar el
// arranque; la config incompleta del identity provider solo se advierte y
// cada request la reporta como error de configuración, igual que el
// deployment original.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.ValidateIDP(); err != nil {
		logger.L().Warn("identity provider not fully configured", logger.Err(err))
	}

	s := &Server{cfg: cfg}

	// Identity provider
	provider, err := idp.NewCognito(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wire idp: %w", err)
	}

	// Profile store
	profiles, err := s.buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wire store: %w", err)
	}

	// Token verification. Con shared_keys el JWK set (material público) se
	// comparte vía el cache configurado; los secretos del vault van siempre
	// directo al vault, nunca a un cache.
	var fetcher jwtx.KeysetFetcher = provider
	if cfg.JWT.SharedKeys {
		c, err := cache.New(cache.Config{
			Driver:   cfg.Cache.Driver,
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("wire cache: %w", err)
		}
		s.cleanup = append(s.cleanup, c.Close)
		fetcher = jwtx.NewSharedFetcher(provider, c, cfg.JWT.JWKSTTL)
	}
	keys := jwtx.NewKeysetCache(fetcher, cfg.JWT.JWKSTTL)
	verifier := jwtx.NewVerifier(keys)

	// Vault
	v, err := vault.NewSecretsManager(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wire vault: %w", err)
	}

	// Gateway y dispatcher
	gw := gateway.New(cfg.Gateway.Timeout)
	dispatcher := proxy.NewDispatcher(gw)
	if err := dispatcher.Validate(); err != nil {
		return nil, fmt.Errorf("proxy routing table: %w", err)
	}

	// Services
	signupSvc := authsvc.NewSignupService(authsvc.SignupDeps{IDP: provider, Profiles: profiles})
	profileSvc := profilesvc.NewService(profilesvc.Deps{Profiles: profiles})
	proxySvc := proxysvc.NewService(proxysvc.Deps{Profiles: profiles, Vault: v, Dispatcher: dispatcher})

	// Metrics
	metricsHandler, err := RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := NewMux(MuxDeps{
		Verifier:       verifier,
		Signup:         authctl.NewSignupController(signupSvc),
		Profile:        profilectl.NewController(profileSvc, cfg.Profile.AllowBootstrap),
		Proxy:          proxyctl.NewController(proxySvc),
		Metrics:        metricsHandler,
		Readyz:         s.readyz(keys),
		AllowBootstrap: cfg.Profile.AllowBootstrap,
	})

	s.srv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// buildStore elige la implementación del profile store según config.
func (s *Server) buildStore(ctx context.Context, cfg *config.Config) (core.ProfileRepository, error) {
	switch cfg.Storage.Driver {
	case "dynamodb":
		client, err := s.dynamoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return dynamostore.New(client, cfg.Storage.Table), nil
	case "postgres":
		store, err := pgstore.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		s.cleanup = append(s.cleanup, func() error { store.Close(); return nil })
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (s *Server) dynamoClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.IDP.Region),
	}
	if cfg.IDP.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.IDP.AccessKeyID, cfg.IDP.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Storage.DSN != "" && cfg.Storage.Driver == "dynamodb" {
			// Para dynamodb el DSN se reinterpreta como endpoint local.
			o.BaseEndpoint = aws.String(cfg.Storage.DSN)
		}
	}), nil
}

// readyz responde 200 cuando el key set se puede obtener; un fallo acá casi
// siempre es config de pool/region rota.
func (s *Server) readyz(keys *jwtx.KeysetCache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := keys.Get(ctx); err != nil {
			logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("signing keys unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Start bloquea sirviendo requests hasta que falle o se llame Shutdown.
func (s *Server) Start() error {
	logger.L().Info("server listening", logger.String("addr", s.cfg.Server.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown apaga el listener con gracia y libera recursos.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	for _, fn := range s.cleanup {
		if cerr := fn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
