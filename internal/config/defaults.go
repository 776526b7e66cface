// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// SERVER DEFAULTS
// =============================================================================

// DefaultHost is the listen address. The credential endpoints resolve the
// acting user from forwarded headers, so the gateway normally sits behind
// a frontend rather than on loopback.
const DefaultHost = "0.0.0.0"

// DefaultPort is the listen port (overridable via GATEWAY_PORT).
const DefaultPort = 8090

// DefaultServerReadTimeout for HTTP server reads.
const DefaultServerReadTimeout = 30 * time.Second

// DefaultServerWriteTimeout for HTTP server writes.
const DefaultServerWriteTimeout = 30 * time.Second

// DefaultShutdownTimeout bounds graceful drain on SIGTERM.
const DefaultShutdownTimeout = 10 * time.Second

// MaxRequestBodySize is the maximum allowed request body (1MB).
// Credential payloads are small; anything bigger is a mistake.
const MaxRequestBodySize = 1 * 1024 * 1024

// =============================================================================
// VAULT DEFAULTS
// =============================================================================

// DefaultDBPath is the SQLite file for credential records.
const DefaultDBPath = "data/credentials.db"

// DefaultKeySource loads the encryption key from the environment.
const DefaultKeySource = "env"

// =============================================================================
// AUDIT DEFAULTS
// =============================================================================

// DefaultAuditLogPath is the JSONL audit trail location.
const DefaultAuditLogPath = "logs/credential_audit.jsonl"

// =============================================================================
// ENROLLMENT DEFAULTS
// =============================================================================

// DefaultEnrollTimeoutSeconds bounds one enrollment session. Users have to
// click through a browser consent screen, so this is generous.
const DefaultEnrollTimeoutSeconds = 300

// =============================================================================
// LOGGING DEFAULTS
// =============================================================================

// DefaultLogLevel is the zerolog level when none is configured.
const DefaultLogLevel = "info"
