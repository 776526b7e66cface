// Package integrations registers the built-in token type schemas.
//
// Each subpackage owns one external service: its schema registration and
// a typed view over the generic store. Adding a service means adding a
// subpackage and listing its Register here; the vault itself never
// changes.
package integrations

import (
	"github.com/relayforge/agent-gateway/internal/vault"

	"github.com/relayforge/agent-gateway/internal/integrations/gdrive"
	"github.com/relayforge/agent-gateway/internal/integrations/github"
	"github.com/relayforge/agent-gateway/internal/integrations/jira"
	"github.com/relayforge/agent-gateway/internal/integrations/rhcp"
)

// RegisterAll adds every built-in token type to the registry.
func RegisterAll(r *vault.Registry) error {
	for _, register := range []func(*vault.Registry) error{
		gdrive.Register,
		github.Register,
		jira.Register,
		rhcp.Register,
	} {
		if err := register(r); err != nil {
			return err
		}
	}
	return nil
}
