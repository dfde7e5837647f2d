// Package agentapi exposes the agent's own /health and /metrics endpoints
// (§C.1), the way internal/workerapi exposes the worker's.
package agentapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports whether the agent considers itself healthy: typically
// "the WAL is open and the scheduler/send loop goroutines are running."
type HealthFunc func() error

// NewRouter builds the agent's local HTTP surface: liveness on /health,
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
