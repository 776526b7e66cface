// Package gdrive wires Google Drive OAuth credentials into the vault.
//
// Drive is the widest schema of the built-in services. The access token,
// refresh token, and client secret are encrypted; the OAuth bookkeeping
// fields (token_uri, client_id, scopes, expiry) are stored verbatim so an
// agent can rebuild a refreshing client from one read.
package gdrive

import (
	"context"

	"github.com/relayforge/agent-gateway/internal/vault"
)

// ServiceName is the registry key for Google Drive credentials.
const ServiceName = "gdrive"

// Field names in the stored record.
const (
	FieldToken        = "token"
	FieldRefreshToken = "refresh_token"
	FieldClientSecret = "client_secret"
	FieldTokenURI     = "token_uri"
	FieldClientID     = "client_id"
	FieldScopes       = "scopes"
	FieldExpiry       = "expiry"
)

// Register adds the Google Drive token type to the registry.
func Register(r *vault.Registry) error {
	return r.Register(vault.TokenTypeConfig{
		ServiceName: ServiceName,
		Fields: []string{
			FieldToken, FieldRefreshToken, FieldClientSecret,
			FieldTokenURI, FieldClientID, FieldScopes, FieldExpiry,
		},
		EncryptedFields: []string{FieldToken, FieldRefreshToken, FieldClientSecret},
	})
}

// Credentials is the typed view of a stored Google Drive record.
type Credentials struct {
	Token        string
	RefreshToken string
	ClientSecret string
	TokenURI     string
	ClientID     string
	Scopes       string
	Expiry       string
}

// Get reads and decrypts the Google Drive credentials for a user.
func Get(ctx context.Context, store *vault.Store, userID string) (Credentials, error) {
	record, err := store.Get(ctx, ServiceName, userID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Token:        record.Fields[FieldToken],
		RefreshToken: record.Fields[FieldRefreshToken],
		ClientSecret: record.Fields[FieldClientSecret],
		TokenURI:     record.Fields[FieldTokenURI],
		ClientID:     record.Fields[FieldClientID],
		Scopes:       record.Fields[FieldScopes],
		Expiry:       record.Fields[FieldExpiry],
	}, nil
}

// Put stores the full Google Drive credentials for a user, replacing any
// previous record.
func Put(ctx context.Context, store *vault.Store, userID string, creds Credentials) error {
	return store.Upsert(ctx, ServiceName, userID, map[string]string{
		FieldToken:        creds.Token,
		FieldRefreshToken: creds.RefreshToken,
		FieldClientSecret: creds.ClientSecret,
		FieldTokenURI:     creds.TokenURI,
		FieldClientID:     creds.ClientID,
		FieldScopes:       creds.Scopes,
		FieldExpiry:       creds.Expiry,
	})
}
