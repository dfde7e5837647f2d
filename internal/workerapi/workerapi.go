// Package workerapi exposes the worker's own /health and /metrics endpoints
// (§C.2), mirroring internal/agentapi's agent-side surface.
package workerapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports whether the worker considers itself healthy: typically
// "the broker consumer group is connected and the TSDB is reachable."
type HealthFunc func() error

// NewRouter builds the worker's local HTTP surface: liveness on /health,
// Prometheus exposition on /metrics.
func NewRouter(health HealthFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
