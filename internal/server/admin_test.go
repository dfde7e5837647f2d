package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/rules"
)

func bearerToken(t *testing.T, secret []byte) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "operator-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestRegisterIsUnauthenticated(t *testing.T) {
	agents := registry.NewStore()
	rulesStore := rules.NewStore()
	r := NewRouter(NewHandler(agents, nil, nil, Config{}, nil, nil), agents, nil)
	MountAdminRoutes(r, agents, rulesStore, []byte("secret"))

	body, _ := json.Marshal(registerRequest{HwID: "hw-1", AgentVersion: "1.0"})
	req := httptest.NewRequest(http.MethodPost, "/v1/agents/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out registerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out.IsNew)
	require.NotEmpty(t, out.AgentID)
}

func TestAdminRoutesRequireBearerToken(t *testing.T) {
	agents := registry.NewStore()
	rulesStore := rules.NewStore()
	r := NewRouter(NewHandler(agents, nil, nil, Config{}, nil, nil), agents, nil)
	MountAdminRoutes(r, agents, rulesStore, []byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/v1/agents", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRuleCRUD(t *testing.T) {
	agents := registry.NewStore()
	rulesStore := rules.NewStore()
	secret := []byte("secret")
	r := NewRouter(NewHandler(agents, nil, nil, Config{}, nil, nil), agents, nil)
	MountAdminRoutes(r, agents, rulesStore, secret)
	token := bearerToken(t, secret)

	body, _ := json.Marshal(rules.Rule{Name: "cpu-high", AgentPattern: "*", MetricName: "cpu.usage", Condition: rules.ConditionGreaterThan, Threshold: 90, Enabled: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/rules", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var created rules.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	req2 := httptest.NewRequest(http.MethodGet, "/v1/rules/"+created.ID, nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
}
