// Package sendloop drains the agent's WAL to a Server role: sign, transmit,
// interpret the response, ack or retry (§4.4).
package sendloop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/server"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

// PushClient is the agent-side transport for PushMetrics. It returns the same
// server.PushResult as internal/server.Handler.PushMetrics, so a sendloop can
// drive either a real HTTP transport or an in-process fake in tests.
type PushClient interface {
	PushMetrics(ctx context.Context, b *batch.Batch, keyID, signature string) (server.PushResult, error)
}

// HTTPClient is a PushClient backed by net/http, talking to the routes
// internal/server.Router exposes.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient builds an HTTPClient with a sane default timeout.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// PushMetrics POSTs a wire-encoded batch to /v1/agents/{agent_id}/metrics,
// carrying the key id and signature as headers the way
// internal/server.Router's pushMetrics handler expects them.
func (c *HTTPClient) PushMetrics(ctx context.Context, b *batch.Batch, keyID, signature string) (server.PushResult, error) {
	body := wire.Marshal(b)
	url := fmt.Sprintf("%s/v1/agents/%s/metrics", c.BaseURL, b.AgentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return server.PushResult{}, fmt.Errorf("sendloop: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Sentinel-Key-Id", keyID)
	req.Header.Set("X-Sentinel-Signature", signature)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return server.PushResult{}, fmt.Errorf("sendloop: transport error: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return server.PushResult{}, fmt.Errorf("sendloop: decode response: %w", err)
		}
		return server.PushResult{Status: statusFromString(out.Status), Message: out.Message}, nil
	case http.StatusUnauthorized:
		msg, _ := io.ReadAll(resp.Body)
		return server.PushResult{}, fmt.Errorf("sendloop: unauthenticated: %s", msg)
	case http.StatusBadRequest:
		msg, _ := io.ReadAll(resp.Body)
		return server.PushResult{}, fmt.Errorf("sendloop: invalid argument: %s", msg)
	default:
		msg, _ := io.ReadAll(resp.Body)
		return server.PushResult{Status: server.StatusRetry, Message: string(msg)}, nil
	}
}

func statusFromString(s string) server.Status {
	switch s {
	case "Ok":
		return server.StatusOk
	case "Rejected":
		return server.StatusRejected
	default:
		return server.StatusRetry
	}
}
