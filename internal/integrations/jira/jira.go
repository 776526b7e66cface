// Package jira wires Jira credentials into the vault.
//
// Jira agents authenticate with a personal access token against a cloud
// or self-hosted instance:
//   - token is the PAT and is encrypted at rest
//   - server_url and username travel with it so an agent can build a
//     client without extra lookups
package jira

import (
	"context"

	"github.com/relayforge/agent-gateway/internal/vault"
)

// ServiceName is the registry key for Jira credentials.
const ServiceName = "jira"

// Field names in the stored record.
const (
	FieldToken     = "token"
	FieldServerURL = "server_url"
	FieldUsername  = "username"
)

// Register adds the Jira token type to the registry.
func Register(r *vault.Registry) error {
	return r.Register(vault.TokenTypeConfig{
		ServiceName:     ServiceName,
		Fields:          []string{FieldToken, FieldServerURL, FieldUsername},
		EncryptedFields: []string{FieldToken},
	})
}

// Credentials is the typed view of a stored Jira record.
type Credentials struct {
	Token     string
	ServerURL string
	Username  string
}

// Get reads and decrypts the Jira credentials for a user.
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

// Put stores the full Jira credentials for a user, replacing any previous
// record.
func Put(ctx context.Context, store *vault.Store, userID string, creds Credentials) error {
	return store.Upsert(ctx, ServiceName, userID, map[string]string{
		FieldToken:     creds.Token,
		FieldServerURL: creds.ServerURL,
		FieldUsername:  creds.Username,
	})
}
