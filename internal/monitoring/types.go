// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by the gateway, the vault, and the cmd
// layer. Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - AuditConfig: where the credential audit trail is written
//   - AuditEntry:  one recorded vault operation
package monitoring

// =============================================================================
// CONFIG TYPES
// =============================================================================

// AuditConfig controls the credential operation audit trail.
type AuditConfig struct {
	// Enabled turns audit recording on. Off means Record is a no-op.
	Enabled bool

	// LogPath is the JSONL file audit entries are appended to.
	LogPath string

	// LogToStdout additionally logs a one-line summary per entry.
	LogToStdout bool
}

// =============================================================================
// EVENT TYPES
// =============================================================================

// AuditEntry captures one vault operation. Values are identifiers and
// outcomes only; credential material never appears here.
type AuditEntry struct {
	Timestamp string `json:"ts"`
	Op        string `json:"op"`
	Service   string `json:"service"`
	UserID    string `json:"user_id"`
	Outcome   string `json:"outcome"`
	RequestID string `json:"request_id,omitempty"`
}
