package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/rules"
	"github.com/sentinel-metrics/sentinel/internal/server/authmw"
)

// MountAdminRoutes adds the operator-facing REST surface (§C.8) onto an
// existing router: agent registration and listing, and rule CRUD.
// Registration is intentionally left outside the JWT middleware since an
// unregistered agent has no token to present yet; every other route requires
// a valid bearer token.
func MountAdminRoutes(r *mux.Router, agents *registry.Store, rulesStore *rules.Store, jwtSecret []byte) {
	ar := &adminRoutes{agents: agents, rules: rulesStore}

	r.HandleFunc("/v1/agents/register", ar.register).Methods(http.MethodPost)

	auth := authmw.New(jwtSecret)
	admin := r.PathPrefix("/v1").Subrouter()
	admin.Use(auth.Wrap)

	admin.HandleFunc("/agents", ar.listAgents).Methods(http.MethodGet)
	admin.HandleFunc("/agents/{agent_id}", ar.getAgent).Methods(http.MethodGet)
	admin.HandleFunc("/agents/{agent_id}/keys/{key_id}", ar.deleteKey).Methods(http.MethodDelete)
	admin.HandleFunc("/rules", ar.listRules).Methods(http.MethodGet)
	admin.HandleFunc("/rules", ar.createRule).Methods(http.MethodPost)
	admin.HandleFunc("/rules/{rule_id}", ar.getRule).Methods(http.MethodGet)
	admin.HandleFunc("/rules/{rule_id}", ar.updateRule).Methods(http.MethodPut)
	admin.HandleFunc("/rules/{rule_id}", ar.deleteRule).Methods(http.MethodDelete)
}

type adminRoutes struct {
	agents *registry.Store
	rules  *rules.Store
}

type registerRequest struct {
	HwID         string `json:"hw_id"`
	AgentVersion string `json:"agent_version"`
}

type registerResponse struct {
	AgentID string `json:"agent_id"`
	Secret  string `json:"secret"`
	IsNew   bool   `json:"is_new"`
}

func (ar *adminRoutes) register(w http.ResponseWriter, req *http.Request) {
	var in registerRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	if in.HwID == "" {
		http.Error(w, "hw_id is required", http.StatusBadRequest)
		return
	}
	agentID, secret, isNew := ar.agents.Register(in.HwID, in.AgentVersion)
	writeJSON(w, http.StatusOK, registerResponse{AgentID: agentID, Secret: secret, IsNew: isNew})
}

func (ar *adminRoutes) listAgents(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, ar.agents.List())
}

func (ar *adminRoutes) getAgent(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["agent_id"]
	rec, ok := ar.agents.Get(id)
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (ar *adminRoutes) deleteKey(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	if !ar.agents.DeleteDeprecatedKey(vars["agent_id"], vars["key_id"]) {
		http.Error(w, "unknown agent or key", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ar *adminRoutes) listRules(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, ar.rules.List())
}

func (ar *adminRoutes) createRule(w http.ResponseWriter, req *http.Request) {
	var in rules.Rule
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ar.rules.Create(in))
}

func (ar *adminRoutes) getRule(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["rule_id"]
	rule, ok := ar.rules.Get(id)
	if !ok {
		http.Error(w, "unknown rule", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (ar *adminRoutes) updateRule(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["rule_id"]
	var in rules.Rule
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	rule, ok := ar.rules.Update(id, in)
	if !ok {
		http.Error(w, "unknown rule", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (ar *adminRoutes) deleteRule(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["rule_id"]
	if !ar.rules.Delete(id) {
		http.Error(w, "unknown rule", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
