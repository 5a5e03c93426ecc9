package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is the store-liveness probe used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

// NewObservability serves /healthz and /metrics. The health endpoint goes
// unhealthy when the backing store stops answering pings, since without the
// store no rate-limit decision can be computed.
func NewObservability(config Config, name, version string, store Pinger) (*http.Server, error) {
	h, err := health.New(
		health.WithComponent(health.Component{Name: name, Version: version}),
		health.WithChecks(health.Config{
			Name:    "store",
			Timeout: healthCheckTimeout,
			Check: func(ctx context.Context) error {
				return store.Ping(ctx)
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize health checks: %w", err)
	}

	router := http.NewServeMux()
	router.Handle("/healthz", h.Handler())
	router.Handle("/metrics", promhttp.Handler())

	return newServer(config, router), nil
}
