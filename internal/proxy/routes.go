package proxy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chgasparoto/tf-aws-serverless/internal/gateway"
	"github.com/chgasparoto/tf-aws-serverless/internal/vault"
)

// operation es una llamada concreta al upstream, ya resuelta por la tabla.
type operation func(d *Dispatcher, ctx context.Context, creds *vault.Credentials, auth string, req Request) (*gateway.Response, error)

type routeKey struct {
	service   vault.Service
	method    string
	indicator string
}

// route es una entrada de la tabla (servicio, método, indicador) -> operación.
// Indicador vacío actúa de comodín para el par (servicio, método).
type route struct {
	Service   vault.Service
	Method    string
	Indicator string
	Op        operation
}

// routes es la tabla completa de ruteo. Todo lo que el proxy sabe hacer
// está acá; Dispatch no tiene ramas de servicio propias.
var routes = []route{
	{vault.ServiceGitHub, http.MethodGet, indicatorResource, githubSingleRepo},
	{vault.ServiceGitHub, http.MethodGet, "user", githubUser},
	{vault.ServiceGitHub, http.MethodGet, "", githubListRepos},
	{vault.ServiceGitHub, http.MethodPost, "", githubCreateRepo},

	{vault.ServiceSlack, http.MethodGet, "channels", slackListChannels},
	{vault.ServiceSlack, http.MethodPost, "message", slackPostMessage},

	{vault.ServiceJira, http.MethodGet, "issues", jiraSearchIssues},
	{vault.ServiceJira, http.MethodGet, "project", jiraGetProject},
	{vault.ServiceJira, http.MethodPost, "issue", jiraCreateIssue},

	{vault.ServiceGeneric, http.MethodGet, indicatorResource, genericGetResource},
	{vault.ServiceGeneric, http.MethodGet, "", genericListResources},
	{vault.ServiceGeneric, http.MethodPost, "", genericCreateResource},
	{vault.ServiceGeneric, http.MethodPut, indicatorResource, genericUpdateResource},
	{vault.ServiceGeneric, http.MethodPut, "", genericMissingResourceID},
	{vault.ServiceGeneric, http.MethodDelete, indicatorResource, genericDeleteResource},
	{vault.ServiceGeneric, http.MethodDelete, "", genericMissingResourceID},
}

// indicatorResource marca un path con resourceId; los indicadores restantes
// son el segmento de acción tal cual llega.
const indicatorResource = "resource"

// indicator reduce los params a la clave de la tabla: un resourceId presente
// gana sobre la acción.
func (p Params) indicator() string {
	if p.ResourceID != "" {
		return indicatorResource
	}
	return p.Action
}

var knownServices = map[vault.Service]bool{
	vault.ServiceGitHub:  true,
	vault.ServiceSlack:   true,
	vault.ServiceJira:    true,
	vault.ServiceGeneric: true,
}

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

func buildTable(rs []route) (map[routeKey]operation, error) {
	table := make(map[routeKey]operation, len(rs))
	perService := make(map[vault.Service]int)
	for _, r := range rs {
		if !knownServices[r.Service] {
			return nil, fmt.Errorf("proxy: route for unknown service %q", r.Service)
		}
		if !knownMethods[r.Method] {
			return nil, fmt.Errorf("proxy: route %s %s has unknown method", r.Service, r.Indicator)
		}
		if r.Op == nil {
			return nil, fmt.Errorf("proxy: route %s %s %s has no operation", r.Service, r.Method, r.Indicator)
		}
		k := routeKey{r.Service, r.Method, r.Indicator}
		if _, dup := table[k]; dup {
			return nil, fmt.Errorf("proxy: duplicate route %s %s %q", r.Service, r.Method, r.Indicator)
		}
		table[k] = r.Op
		perService[r.Service]++
	}
	for svc := range knownServices {
		if perService[svc] == 0 {
			return nil, fmt.Errorf("proxy: service %s has no routes", svc)
		}
	}
	return table, nil
}

// lookup resuelve la operación para la clave dada. Sin match exacto cae al
// comodín del (servicio, método); si el método ni figura para el servicio es
// un método no soportado, y si figura pero el indicador no, el endpoint es
// inválido.
func (d *Dispatcher) lookup(service vault.Service, method, indicator string) (operation, error) {
	if op, ok := d.table[routeKey{service, method, indicator}]; ok {
		return op, nil
	}
	if op, ok := d.table[routeKey{service, method, ""}]; ok {
		return op, nil
	}
	for k := range d.table {
		if k.service == service && k.method == method {
			return nil, badRequest("invalid endpoint for %s", service)
		}
	}
	return nil, &UnsupportedMethodError{Method: method, Service: service}
}
