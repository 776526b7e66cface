// Package vault stores per-user third-party credentials with field-level
// authenticated encryption. A registry of token type schemas drives which
// fields exist per service and which of them are encrypted at rest; the
// store persists one record per (service, user) pair.
package vault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no record exists for the requested
// (service, user) pair. Absence is a normal condition; a record that exists
// but cannot be decrypted is a DecryptionError instead.
var ErrNotFound = errors.New("credential record not found")

// ConfigError reports an invalid or conflicting token type registration.
// Registrations happen at startup, so a ConfigError means the deployment
// is misassembled, not that a request was bad.
type ConfigError struct {
	Service string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("token type %q: %s", e.Service, e.Reason)
}

// UnknownServiceError reports an operation against a service name that was
// never registered. Available carries the registered names, sorted, so the
// message tells the caller what would have worked.
type UnknownServiceError struct {
	Service   string
	Available []string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown token type: %s. Available types: %s",
		e.Service, strings.Join(e.Available, ", "))
}

// SchemaError reports a credential payload that does not match the
// registered schema for its service.
type SchemaError struct {
	Service string
	Field   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("service %q has no field %q", e.Service, e.Field)
}

// DecryptionError reports that a stored credential failed decryption or
// authentication. It carries which record and field failed, never key
// material or ciphertext. A read that hits one fails as a whole; partially
// decrypted records are never returned.
type DecryptionError struct {
	Service string
	UserID  string
	Field   string
	Err     error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decrypting field %q of %s credentials for user %s: %v",
		e.Field, e.Service, e.UserID, e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}
