package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homeweave/dashboard/pkg/metrics"
)

// HealthModule serves GET /healthz and the Prometheus scrape endpoint.
type HealthModule struct {
	Lifecycle
	JSONEnvelope
}

// NewHealthModule creates the health module.
func NewHealthModule() *HealthModule {
	return &HealthModule{}
}

// Name implements Module.
func (m *HealthModule) Name() string { return "healthz" }

// Routes implements Module.
func (m *HealthModule) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/healthz", Handler: m.health},
		{
			Method: http.MethodGet,
			Path:   "/metrics",
			Raw:    promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		},
	}
}

func (m *HealthModule) health(context.Context, *Request) (any, error) {
	return "ok", nil
}
