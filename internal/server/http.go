package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

// Router builds the HTTP surface a Server role exposes: the admission
// endpoint plus REST key rotation (§4.6).
type Router struct {
	handler *Handler
	agents  *registry.Store
	logger  log.Logger
}

// NewRouter wires routes onto a fresh gorilla/mux router.
func NewRouter(handler *Handler, agents *registry.Store, logger log.Logger) *mux.Router {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	rt := &Router{handler: handler, agents: agents, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/v1/agents/{agent_id}/metrics", rt.pushMetrics).Methods(http.MethodPost)
	r.HandleFunc("/v1/agents/{agent_id}/keys/rotate", rt.rotateKey).Methods(http.MethodPost)
	return r
}

// pushMetrics is the HTTP binding for the PushMetrics admission procedure.
// The batch body is wire-encoded bytes; headers carry the agent_id, key_id,
// and signature (§4.6 step 1).
func (rt *Router) pushMetrics(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	headers := PushHeaders{
		AgentID:   vars["agent_id"],
		KeyID:     req.Header.Get("X-Sentinel-Key-Id"),
		Signature: req.Header.Get("X-Sentinel-Signature"),
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	b, err := wire.Unmarshal(body)
	if err != nil {
		level.Warn(rt.logger).Log("msg", "admission rejected malformed batch", "agent_id", headers.AgentID, "err", err)
		http.Error(w, "malformed batch", http.StatusBadRequest)
		return
	}

	result, err := rt.handler.PushMetrics(headers, b)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, pushResultJSON{Status: result.Status.String(), Message: result.Message})
}

// rotateKey rotates an agent's current signing key, demoting the old one to
// deprecated-with-grace (§4.6).
func (rt *Router) rotateKey(w http.ResponseWriter, req *http.Request) {
	agentID := mux.Vars(req)["agent_id"]
	key, ok := rt.agents.RotateKey(agentID)
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rotateKeyJSON{KeyID: key.KeyID, Secret: key.Secret})
}

type pushResultJSON struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type rotateKeyJSON struct {
	KeyID  string `json:"key_id"`
	Secret []byte `json:"secret"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
