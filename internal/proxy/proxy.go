// Package proxy enruta requests hacia servicios de terceros según el bundle
// de credenciales del usuario y la forma del path.
//
// El ruteo es una tabla explícita (servicio, método, indicador) -> operación;
// toda operación termina en la misma primitiva del gateway, acá solo se
// decide qué URL, método y body van al upstream.
package proxy

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

var upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "proxy_upstream_requests_total",
	Help: "Llamadas a upstreams de terceros por servicio y resultado",
}, []string{"service", "method", "outcome"})

// Params son los parámetros de path del request proxeado. Todos opcionales.
type Params struct {
	Action     string // "repos", "user", "channels", "message", "issues", ...
	ResourceID string // repo, resource o issue puntual
	ProjectKey string // solo jira
	JQL        string // filtro opcional para jira issues
}

// Request es el request entrante ya normalizado.
type Request struct {
	Method string
	Params Params
	Body   map[string]any
}

// Caller es la primitiva de llamada al upstream. La implementa gateway.Gateway.
type Caller interface {
	Call(ctx context.Context, method, url, authHeader string, body any) *gateway.Response
}

// BadRequestError marca un request proxeado inválido (endpoint o body).
type BadRequestError struct{ msg string }

func (e *BadRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &BadRequestError{msg: fmt.Sprintf(format, args...)}
}

// UnsupportedMethodError marca un método que el servicio no acepta.
type UnsupportedMethodError struct {
	Method  string
	Service vault.Service
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported method %q for %s", e.Method, e.Service)
}

// Dispatcher resuelve (servicio, método, indicador) contra la tabla de rutas.
type Dispatcher struct {
	gw       Caller
	table    map[routeKey]operation
	buildErr error
}

func NewDispatcher(gw Caller) *Dispatcher {
	table, err := buildTable(routes)
	return &Dispatcher{gw: gw, table: table, buildErr: err}
}

// Validate reporta si la tabla de rutas es consistente: servicios y métodos
// conocidos, sin claves duplicadas, toda entrada con operación y todo
// servicio con al menos una. Se chequea al levantar el server.
func (d *Dispatcher) Validate() error {
	return d.buildErr
}

// InferService decide el servicio efectivo a partir de lo declarado en el
// bundle; cualquier tag desconocido cae en el passthrough genérico.
func InferService(bundle vault.Service) vault.Service {
	switch bundle {
	case vault.ServiceGitHub, vault.ServiceSlack, vault.ServiceJira:
		return bundle
	default:
		return vault.ServiceGeneric
	}
}

// Dispatch ejecuta el request contra el upstream que corresponda.
func (d *Dispatcher) Dispatch(ctx context.Context, creds *vault.Credentials, req Request) (*gateway.Response, error) {
	auth, err := creds.AuthHeader()
	if err != nil {
		return nil, badRequest("credential bundle has no usable auth material")
	}

	service := InferService(creds.Service)
	logger.From(ctx).Debug("dispatching third-party request",
		logger.Method(req.Method),
		logger.Upstream(string(service)),
	)

	op, err := d.lookup(service, req.Method, req.Params.indicator())
	if err != nil {
		return nil, err
	}
	res, err := op(d, ctx, creds, auth, req)
	if err != nil {
		return nil, err
	}

	outcome := "failure"
	if res.Success {
		outcome = "success"
	}
	upstreamRequests.WithLabelValues(string(service), req.Method, outcome).Inc()
	return res, nil
}
