// Package github wires GitHub credentials into the vault.
//
// Agents use fine-grained or classic personal access tokens. server_url
// covers GitHub Enterprise installs; it is empty for github.com.
package github

import (
	"context"

	"github.com/relayforge/agent-gateway/internal/vault"
)

// ServiceName is the registry key for GitHub credentials.
const ServiceName = "github"

// Field names in the stored record.
const (
	FieldToken     = "token"
	FieldServerURL = "server_url"
	FieldUsername  = "username"
)

// Register adds the GitHub token type to the registry.
func Register(r *vault.Registry) error {
	return r.Register(vault.TokenTypeConfig{
		ServiceName:     ServiceName,
		Fields:          []string{FieldToken, FieldServerURL, FieldUsername},
		EncryptedFields: []string{FieldToken},
	})
}

// Credentials is the typed view of a stored GitHub record.
type Credentials struct {
	Token     string
	ServerURL string
	Username  string
}

// Get reads and decrypts the GitHub credentials for a user.
func Get(ctx context.Context, store *vault.Store, userID string) (Credentials, error) {
	record, err := store.Get(ctx, ServiceName, userID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Token:     record.Fields[FieldToken],
		ServerURL: record.Fields[FieldServerURL],
		Username:  record.Fields[FieldUsername],
	}, nil
}

// Put stores the full GitHub credentials for a user, replacing any
// previous record.
func Put(ctx context.Context, store *vault.Store, userID string, creds Credentials) error {
	return store.Upsert(ctx, ServiceName, userID, map[string]string{
		FieldToken:     creds.Token,
		FieldServerURL: creds.ServerURL,
		FieldUsername:  creds.Username,
	})
}
