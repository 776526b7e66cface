// Package monitoring - recent.go keeps recent vault operations in memory.
//
// DESIGN: Ring buffer of recent credential operations for the /stats debug
// view. Shows which services and users touched the vault lately without
// reading the audit file back.
package monitoring

import "sync"

const maxOpLogEntries = 100

// OpLog keeps a ring buffer of recent audit entries.
type OpLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

// NewOpLog creates a new operation log.
func NewOpLog() *OpLog {
	return &OpLog{
		entries: make([]AuditEntry, 0, maxOpLogEntries),
	}
}

// Record adds a vault operation to the log.
func (l *OpLog) Record(entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= maxOpLogEntries {
		// Shift: drop oldest
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = entry
	} else {
		l.entries = append(l.entries, entry)
	}
}

// Recent returns the most recent N entries (newest first).
func (l *OpLog) Recent(n int) []AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}

	// Return newest first
	result := make([]AuditEntry, n)
	for i := 0; i < n; i++ {
		result[i] = l.entries[len(l.entries)-1-i]
	}
	return result
}

// Count returns the total number of buffered entries.
func (l *OpLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// OpSummary is a brief per-outcome summary for inline display.
type OpSummary struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Failures int `json:"failures"`
}

// Summary returns a brief summary of the buffered entries.
func (l *OpLog) Summary() OpSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := OpSummary{Total: len(l.entries)}
	for _, e := range l.entries {
		if e.Outcome == "ok" || e.Outcome == "not_found" {
			s.OK++
		} else {
			s.Failures++
		}
	}
	return s
}
