// Package monitoring - recorder.go fans vault outcomes out to sinks.
package monitoring

import "time"

// Recorder receives every vault operation outcome and forwards it to the
// audit trail, the metrics counters, and the recent-operations buffer. It
// satisfies the store's observer contract.
type Recorder struct {
	audit   *Audit
	metrics *MetricsCollector
	recent  *OpLog
}

// NewRecorder wires the three sinks together. Any of them may be nil.
func NewRecorder(audit *Audit, metrics *MetricsCollector, recent *OpLog) *Recorder {
	return &Recorder{
		audit:   audit,
		metrics: metrics,
		recent:  recent,
	}
}

// CredentialOp records one completed vault operation.
func (r *Recorder) CredentialOp(op, service, userID, outcome string) {
	entry := AuditEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Op:        op,
		Service:   service,
		UserID:    userID,
		Outcome:   outcome,
	}

	if r.metrics != nil {
		r.metrics.RecordVaultOp(op, outcome)
	}
	if r.recent != nil {
		r.recent.Record(entry)
	}
	r.audit.Record(entry)
}
