// Package monitoring - audit.go records credential operations to JSONL.
//
// DESIGN: Audit writes one JSON object per line for every vault operation:
//   - op (upsert/get/delete), service, user, outcome per entry
//   - decrypt failures are their own outcome so they can be alerted on
//
// Entries are appended to the file immediately after each operation.
package monitoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Audit handles audit entry recording to file and stdout.
type Audit struct {
	config     AuditConfig
	logPath    string
	entryCount int
	mu         sync.Mutex
}

// NewAudit creates a new audit recorder.
func NewAudit(cfg AuditConfig) (*Audit, error) {
	a := &Audit{
		config: cfg,
	}

	if !cfg.Enabled {
		return a, nil
	}

	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0750); err != nil {
			return nil, err
		}
		a.logPath = cfg.LogPath
		// Create empty file if it doesn't exist
		if _, err := os.Stat(cfg.LogPath); os.IsNotExist(err) {
			if f, err := os.Create(cfg.LogPath); err == nil {
				_ = f.Close()
			}
		}
	}

	return a, nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(data)
	return err
}

// Record records one vault operation. Safe to call on a disabled Audit.
func (a *Audit) Record(entry AuditEntry) {
	if a == nil || !a.config.Enabled {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Log summary to stdout if enabled
	if a.config.LogToStdout {
		log.Info().
			Str("op", entry.Op).
			Str("service", entry.Service).
			Str("user_id", entry.UserID).
			Str("outcome", entry.Outcome).
			Msg("audit")
	}

	// Append to JSONL file
	if a.logPath != "" {
		if err := appendJSONL(a.logPath, entry); err != nil {
			log.Error().Err(err).Str("path", a.logPath).Msg("audit: failed to write entry")
		} else {
			a.entryCount++
		}
	}
}

// Close logs a session summary. Safe to call on a disabled Audit.
func (a *Audit) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.logPath != "" && a.entryCount > 0 {
		log.Info().
			Str("path", a.logPath).
			Int("entries", a.entryCount).
			Msg("audit: session complete")
	}

	return nil
}
