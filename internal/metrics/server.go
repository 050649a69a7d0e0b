package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusServer serves the Prometheus metrics endpoint over HTTP.
type PrometheusServer struct {
	registry *prometheus.Registry
	server   *http.Server
}

// NewPrometheusServer creates a metrics server listening on address and
// serving the registry at path. The returned server owns its registry;
// use Registry to obtain it for collector construction.
func NewPrometheusServer(address, path string) *PrometheusServer {
	registry := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &PrometheusServer{
		registry: registry,
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Registry returns the prometheus registry served by this server.
func (s *PrometheusServer) Registry() *prometheus.Registry {
	return s.registry
}

// Start begins serving metrics. It blocks until the context is canceled
// or the HTTP server fails.
func (s *PrometheusServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the metrics server.
func (s *PrometheusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
