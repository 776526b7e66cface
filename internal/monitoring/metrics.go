// Package monitoring - metrics.go provides operation counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - requests/successes:  HTTP requests through the gateway
//   - resolutions:         identity resolutions, split by winning source
//   - upserts/gets/deletes: vault operations
//   - decrypt_failures:    credential reads that failed authentication
//
// Every counter is mirrored to a Prometheus collector so /stats (flat
// JSON) and /metrics (scrape format) stay in agreement.
package monitoring

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	startedAt time.Time

	// Request counters
	requests  atomic.Int64
	successes atomic.Int64

	// Identity counters
	resolutions atomic.Int64
	anonymous   atomic.Int64

	bySourceMu sync.RWMutex
	bySource   map[string]int64

	// Vault counters
	upserts          atomic.Int64
	gets             atomic.Int64
	deletes          atomic.Int64
	notFound         atomic.Int64
	decryptFailures  atomic.Int64
	schemaRejections atomic.Int64

	prom *promMetrics
}

// promMetrics holds the Prometheus collectors. Registered once per
// process; collectors are shared when tests build several
// MetricsCollectors.
type promMetrics struct {
	requests    *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	vaultOps    *prometheus.CounterVec
}

var (
	promOnce   sync.Once
	promShared *promMetrics
)

func newPromMetrics() *promMetrics {
	promOnce.Do(func() {
		promShared = &promMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agent_gateway",
				Name:      "http_requests_total",
				Help:      "HTTP requests handled, by outcome.",
			}, []string{"outcome"}),
			resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agent_gateway",
				Name:      "identity_resolutions_total",
				Help:      "Identity resolutions, by winning source.",
			}, []string{"source"}),
			vaultOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agent_gateway",
				Name:      "vault_operations_total",
				Help:      "Credential vault operations, by op and outcome.",
			}, []string{"op", "outcome"}),
		}
		prometheus.MustRegister(promShared.requests, promShared.resolutions, promShared.vaultOps)
	})
	return promShared
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startedAt: time.Now(),
		bySource:  make(map[string]int64),
		prom:      newPromMetrics(),
	}
}

// RecordRequest records a request.
func (mc *MetricsCollector) RecordRequest(success bool, _ time.Duration) {
	mc.requests.Add(1)
	outcome := "error"
	if success {
		mc.successes.Add(1)
		outcome = "ok"
	}
	mc.prom.requests.WithLabelValues(outcome).Inc()
}

// RecordResolution records one identity resolution and which source won.
func (mc *MetricsCollector) RecordResolution(source string) {
	mc.resolutions.Add(1)
	if source == "none" {
		mc.anonymous.Add(1)
	}

	mc.bySourceMu.Lock()
	mc.bySource[source]++
	mc.bySourceMu.Unlock()

	mc.prom.resolutions.WithLabelValues(source).Inc()
}

// RecordVaultOp records one vault operation outcome.
func (mc *MetricsCollector) RecordVaultOp(op, outcome string) {
	switch op {
	case "upsert":
		mc.upserts.Add(1)
	case "get":
		mc.gets.Add(1)
	case "delete":
		mc.deletes.Add(1)
	}

	switch outcome {
	case "not_found":
		mc.notFound.Add(1)
	case "decrypt_failed":
		mc.decryptFailures.Add(1)
	case "schema_rejected":
		mc.schemaRejections.Add(1)
	}

	mc.prom.vaultOps.WithLabelValues(op, outcome).Inc()
}

// StartedAt returns when the metrics collector was created.
func (mc *MetricsCollector) StartedAt() time.Time { return mc.startedAt }

// DecryptFailures returns the failed-read count, for tests and health checks.
func (mc *MetricsCollector) DecryptFailures() int64 { return mc.decryptFailures.Load() }

// Stats returns current metrics as a flat map.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"requests":         mc.requests.Load(),
		"successes":        mc.successes.Load(),
		"resolutions":      mc.resolutions.Load(),
		"upserts":          mc.upserts.Load(),
		"gets":             mc.gets.Load(),
		"deletes":          mc.deletes.Load(),
		"decrypt_failures": mc.decryptFailures.Load(),
	}
}

// FullStats returns all metrics in a structured format for the /stats endpoint.
func (mc *MetricsCollector) FullStats() StatsResponse {
	uptime := time.Since(mc.startedAt)
	requests := mc.requests.Load()
	successes := mc.successes.Load()

	mc.bySourceMu.RLock()
	bySource := make(map[string]int64, len(mc.bySource))
	for source, n := range mc.bySource {
		bySource[source] = n
	}
	mc.bySourceMu.RUnlock()

	return StatsResponse{
		Uptime:        formatDuration(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		StartedAt:     mc.startedAt.Format(time.RFC3339),
		Requests: RequestStats{
			Total:      requests,
			Successful: successes,
			Failed:     requests - successes,
		},
		Identity: IdentityStats{
			Resolutions: mc.resolutions.Load(),
			Anonymous:   mc.anonymous.Load(),
			BySource:    bySource,
		},
		Vault: VaultStats{
			Upserts:          mc.upserts.Load(),
			Gets:             mc.gets.Load(),
			Deletes:          mc.deletes.Load(),
			NotFound:         mc.notFound.Load(),
			DecryptFailures:  mc.decryptFailures.Load(),
			SchemaRejections: mc.schemaRejections.Load(),
		},
	}
}

// Handler returns the Prometheus scrape handler for the /metrics endpoint.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// StatsResponse is the structured response for the /stats endpoint.
type StatsResponse struct {
	Uptime        string        `json:"uptime"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartedAt     string        `json:"started_at"`
	Requests      RequestStats  `json:"requests"`
	Identity      IdentityStats `json:"identity"`
	Vault         VaultStats    `json:"vault"`
}

// RequestStats holds request count metrics.
type RequestStats struct {
	Total      int64 `json:"total"`
	Successful int64 `json:"successful"`
	Failed     int64 `json:"failed"`
}

// IdentityStats holds identity resolution metrics.
type IdentityStats struct {
	Resolutions int64            `json:"resolutions"`
	Anonymous   int64            `json:"anonymous"`
	BySource    map[string]int64 `json:"by_source"`
}

// VaultStats holds credential vault metrics.
type VaultStats struct {
	Upserts          int64 `json:"upserts"`
	Gets             int64 `json:"gets"`
	Deletes          int64 `json:"deletes"`
	NotFound         int64 `json:"not_found"`
	DecryptFailures  int64 `json:"decrypt_failures"`
	SchemaRejections int64 `json:"schema_rejections"`
}

// formatDuration renders an uptime like "3h42m10s" without sub-second noise.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
