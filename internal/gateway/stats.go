// Package gateway - stats.go exposes aggregated metrics as JSON.
//
// GET /stats returns combined request, identity, and vault metrics.
package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/relayforge/agent-gateway/internal/monitoring"
)

// statsResponse is the JSON response for GET /stats.
type statsResponse struct {
	monitoring.StatsResponse

	Services  []string                `json:"services"`
	RecentOps monitoring.OpSummary    `json:"recent_ops"`
	LastOps   []monitoring.AuditEntry `json:"last_ops,omitempty"`
}

// handleStats returns aggregated metrics as JSON.
// Restricted to localhost to prevent external access to operational metrics.
func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	resp := statsResponse{
		StatsResponse: g.metrics.FullStats(),
		Services:      g.registry.Services(),
		RecentOps:     g.recent.Summary(),
		LastOps:       g.recent.Recent(10),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
