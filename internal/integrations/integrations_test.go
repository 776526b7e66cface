package integrations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayforge/agent-gateway/internal/vault"
)

func TestRegisterAll(t *testing.T) {
	r := vault.NewRegistry()
	require.NoError(t, RegisterAll(r))

	assert.Equal(t, []string{"gdrive", "github", "jira", "rhcp"}, r.Services())
}

func TestRegisterAllTwiceFails(t *testing.T) {
	r := vault.NewRegistry()
	require.NoError(t, RegisterAll(r))

	err := RegisterAll(r)
	require.Error(t, err)

	var configErr *vault.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestBuiltinSchemas(t *testing.T) {
	r := vault.NewRegistry()
	require.NoError(t, RegisterAll(r))

	tests := []struct {
		service   string
		encrypted []string
		plain     []string
	}{
		{service: "jira", encrypted: []string{"token"}, plain: []string{"server_url", "username"}},
		{service: "github", encrypted: []string{"token"}, plain: []string{"server_url", "username"}},
		{
			service:   "gdrive",
			encrypted: []string{"token", "refresh_token", "client_secret"},
			plain:     []string{"token_uri", "client_id", "scopes", "expiry"},
		},
		{service: "rhcp", encrypted: []string{"offline_token"}},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			cfg, err := r.Lookup(tt.service)
			require.NoError(t, err)

			for _, field := range tt.encrypted {
				assert.True(t, cfg.HasField(field), field)
				assert.True(t, cfg.IsEncrypted(field), field)
			}
			for _, field := range tt.plain {
				assert.True(t, cfg.HasField(field), field)
				assert.False(t, cfg.IsEncrypted(field), field)
			}
		})
	}
}
