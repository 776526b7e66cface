package jira

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayforge/agent-gateway/internal/vault"
)

func openStore(t *testing.T) *vault.Store {
	t.Helper()

	registry := vault.NewRegistry()
	require.NoError(t, Register(registry))

	encoded, err := vault.GenerateKey()
	require.NoError(t, err)
	key, err := vault.ParseKey(encoded)
	require.NoError(t, err)
	cipher, err := vault.NewCipher(key)
	require.NoError(t, err)

	store, err := vault.Open(context.Background(), vault.StoreConfig{
		Path:     filepath.Join(t.TempDir(), "vault.db"),
		Registry: registry,
		Cipher:   cipher,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCredentialsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	want := Credentials{
		Token:     "jira-pat-123",
		ServerURL: "https://issues.example.com",
		Username:  "alice",
	}
	require.NoError(t, Put(ctx, store, "alice", want))

	got, err := Get(ctx, store, "alice")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)

	_, err := Get(context.Background(), store, "nobody")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}
