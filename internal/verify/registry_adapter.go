package verify

import "github.com/sentinel-metrics/sentinel/internal/registry"

// RegistryProvider adapts a registry.Store (shared with the server's
// admission handler) to the SecretProvider interface, honouring the same
// key-rotation grace period used there.
type RegistryProvider struct {
	Store         *registry.Store
	GracePeriodMs int64
}

// Secret implements SecretProvider.
func (p RegistryProvider) Secret(agentID, keyID string) ([]byte, bool) {
	return p.Store.ResolveSecret(agentID, keyID, p.GracePeriodMs)
}
