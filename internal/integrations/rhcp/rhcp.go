// Package rhcp wires Red Hat Customer Portal credentials into the vault.
//
// The portal issues a long-lived offline token that agents exchange for
// short-lived access tokens themselves. Only the offline token is stored,
// encrypted.
package rhcp

import (
	"context"

	"github.com/relayforge/agent-gateway/internal/vault"
)

// ServiceName is the registry key for Red Hat Customer Portal credentials.
const ServiceName = "rhcp"

// FieldOfflineToken is the single stored field.
const FieldOfflineToken = "offline_token"

// Register adds the Red Hat Customer Portal token type to the registry.
func Register(r *vault.Registry) error {
	return r.Register(vault.TokenTypeConfig{
		ServiceName:     ServiceName,
		Fields:          []string{FieldOfflineToken},
		EncryptedFields: []string{FieldOfflineToken},
	})
}

// Credentials is the typed view of a stored portal record.
type Credentials struct {
	OfflineToken string
}

// Get reads and decrypts the portal credentials for a user.
func Get(ctx context.Context, store *vault.Store, userID string) (Credentials, error) {
	record, err := store.Get(ctx, ServiceName, userID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{OfflineToken: record.Fields[FieldOfflineToken]}, nil
}

// Put stores the portal credentials for a user, replacing any previous
// record.
func Put(ctx context.Context, store *vault.Store, userID string, creds Credentials) error {
	return store.Upsert(ctx, ServiceName, userID, map[string]string{
		FieldOfflineToken: creds.OfflineToken,
	})
}
