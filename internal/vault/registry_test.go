package vault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	err := r.Register(TokenTypeConfig{
		ServiceName:     "jira",
		Fields:          []string{"token", "server_url", "username"},
		EncryptedFields: []string{"token"},
	})
	require.NoError(t, err)

	cfg, err := r.Lookup("jira")
	require.NoError(t, err)
	assert.Equal(t, "jira", cfg.ServiceName)
	assert.True(t, cfg.HasField("token"))
	assert.True(t, cfg.HasField("server_url"))
	assert.False(t, cfg.HasField("password"))
	assert.True(t, cfg.IsEncrypted("token"))
	assert.False(t, cfg.IsEncrypted("server_url"))
}

func TestRegistryDuplicateRejected(t *testing.T) {
	r := NewRegistry()

	cfg := TokenTypeConfig{
		ServiceName:     "github",
		Fields:          []string{"token"},
		EncryptedFields: []string{"token"},
	}
	require.NoError(t, r.Register(cfg))

	err := r.Register(cfg)
	require.Error(t, err)

	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "github", configErr.Service)

	// The original registration is still intact.
	_, err = r.Lookup("github")
	assert.NoError(t, err)
}

func TestRegistryUnknownService(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(TokenTypeConfig{
		ServiceName: "jira", Fields: []string{"token"}, EncryptedFields: []string{"token"},
	}))
	require.NoError(t, r.Register(TokenTypeConfig{
		ServiceName: "github", Fields: []string{"token"}, EncryptedFields: []string{"token"},
	}))

	_, err := r.Lookup("gitlab")
	require.Error(t, err)

	var unknownErr *UnknownServiceError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "gitlab", unknownErr.Service)
	assert.Equal(t, []string{"github", "jira"}, unknownErr.Available)
	assert.Contains(t, err.Error(), "unknown token type: gitlab")
	assert.Contains(t, err.Error(), "Available types: github, jira")
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  TokenTypeConfig
	}{
		{
			name: "empty service name",
			cfg:  TokenTypeConfig{ServiceName: "  ", Fields: []string{"token"}},
		},
		{
			name: "no fields",
			cfg:  TokenTypeConfig{ServiceName: "svc"},
		},
		{
			name: "empty field name",
			cfg:  TokenTypeConfig{ServiceName: "svc", Fields: []string{"token", ""}},
		},
		{
			name: "duplicate field",
			cfg:  TokenTypeConfig{ServiceName: "svc", Fields: []string{"token", "token"}},
		},
		{
			name: "reserved characters in field name",
			cfg:  TokenTypeConfig{ServiceName: "svc", Fields: []string{"a.b"}},
		},
		{
			name: "encrypted field not in schema",
			cfg:  TokenTypeConfig{ServiceName: "svc", Fields: []string{"token"}, EncryptedFields: []string{"secret"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.cfg)
			require.Error(t, err)

			var configErr *ConfigError
			assert.True(t, errors.As(err, &configErr))
		})
	}
}

func TestRegistryServicesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"rhcp", "gdrive", "jira", "github"} {
		require.NoError(t, r.Register(TokenTypeConfig{
			ServiceName: name, Fields: []string{"token"}, EncryptedFields: []string{"token"},
		}))
	}

	assert.Equal(t, []string{"gdrive", "github", "jira", "rhcp"}, r.Services())
}
