// HTTP request handling for the agent gateway.
//
// DESIGN: Main request flow:
//   - handleIdentity():       Report who a request resolves to
//   - handleCredentialList(): Enrollment status across registered services
//   - handleCredential():     GET/PUT/DELETE one service credential
//   - handleEnroll():         Browser enrollment via the auth backend
//
// Also includes health check and error helpers.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/relayforge/agent-gateway/internal/config"
	"github.com/relayforge/agent-gateway/internal/enroll"
	"github.com/relayforge/agent-gateway/internal/identity"
	"github.com/relayforge/agent-gateway/internal/utils"
	"github.com/relayforge/agent-gateway/internal/vault"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// connectTimeout bounds the auth backend handshake during enrollment.
// The full wait for user authorization uses the configured enroll timeout.
const connectTimeout = 30 * time.Second

// writeError writes a JSON error response.
func (g *Gateway) writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"message": msg, "type": "gateway_error"},
	})
}

// writeVaultError maps vault errors onto HTTP statuses.
func (g *Gateway) writeVaultError(w http.ResponseWriter, requestID string, err error) {
	var unknownErr *vault.UnknownServiceError
	var schemaErr *vault.SchemaError
	var decryptErr *vault.DecryptionError

	switch {
	case errors.As(err, &unknownErr):
		g.writeError(w, unknownErr.Error(), http.StatusNotFound)
	case errors.As(err, &schemaErr):
		g.writeError(w, schemaErr.Error(), http.StatusBadRequest)
	case errors.As(err, &decryptErr):
		// Which field failed goes to the log, not the client.
		log.Error().
			Str("request_id", requestID).
			Str("service", decryptErr.Service).
			Str("field", decryptErr.Field).
			Msg("credential decryption failed")
		g.writeError(w, "stored credential could not be decrypted", http.StatusConflict)
	case errors.Is(err, vault.ErrNotFound):
		g.writeError(w, "no credential stored for this service", http.StatusNotFound)
	default:
		log.Error().Str("request_id", requestID).Err(err).Msg("vault operation failed")
		g.writeError(w, "credential store error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readBody reads a size-capped request body.
func (g *Gateway) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.writeError(w, "failed to read request", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// resolveIdentity resolves the caller's identity and records which source won.
func (g *Gateway) resolveIdentity(r *http.Request, body []byte) identity.Context {
	idCtx := identity.Resolve(hintsFromRequest(r, body))
	g.metrics.RecordResolution(string(idCtx.Source))
	return idCtx
}

// requireUser resolves identity and rejects anonymous requests. Credential
// records are keyed by user; without one there is nothing to operate on.
func (g *Gateway) requireUser(w http.ResponseWriter, r *http.Request, body []byte) (identity.Context, bool) {
	idCtx := g.resolveIdentity(r, body)
	if idCtx.Anonymous() {
		g.writeError(w, "no user identity in request (set "+HeaderUserID+" or body metadata)",
			http.StatusUnauthorized)
		return idCtx, false
	}
	return idCtx, true
}

// getRequestID gets or generates a request ID.
func (g *Gateway) getRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return uuid.New().String()
}

// handleHealth returns gateway health status.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"version": Version,
	}

	if err := g.store.Ping(r.Context()); err != nil {
		health["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if health["status"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(health)
}

// handleIdentity reports the identity a request resolves to. Useful for
// checking frontend header wiring without touching the vault.
func (g *Gateway) handleIdentity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := g.readBody(w, r)
	if !ok {
		return
	}

	idCtx := g.resolveIdentity(r, body)

	resp := map[string]interface{}{"identity": idCtx}
	if !idCtx.Anonymous() && idCtx.SessionID == "" {
		resp["default_session_id"] = identity.DefaultSessionID(idCtx.UserID)
	}
	g.writeJSON(w, http.StatusOK, resp)
}

// handleCredentialList reports which services are registered and which of
// them the calling user has a credential for.
func (g *Gateway) handleCredentialList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idCtx, ok := g.requireUser(w, r, nil)
	if !ok {
		return
	}

	enrolled, err := g.store.ServicesForUser(r.Context(), idCtx.UserID)
	if err != nil {
		g.writeVaultError(w, g.getRequestID(r), err)
		return
	}
	enrolledSet := make(map[string]bool, len(enrolled))
	for _, s := range enrolled {
		enrolledSet[s] = true
	}

	type serviceStatus struct {
		Service  string   `json:"service"`
		Enrolled bool     `json:"enrolled"`
		Fields   []string `json:"fields"`
	}

	resp := struct {
		User     string          `json:"user"`
		Services []serviceStatus `json:"services"`
	}{User: idCtx.UserID}

	for _, name := range g.registry.Services() {
		cfg, err := g.registry.Lookup(name)
		if err != nil {
			continue
		}
		resp.Services = append(resp.Services, serviceStatus{
			Service:  name,
			Enrolled: enrolledSet[name],
			Fields:   cfg.Fields,
		})
	}

	g.writeJSON(w, http.StatusOK, resp)
}

// handleCredential routes /v1/credentials/{service} and
// /v1/credentials/{service}/enroll.
func (g *Gateway) handleCredential(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/credentials/")
	service, action, _ := strings.Cut(rest, "/")
	if service == "" {
		g.writeError(w, "missing service name", http.StatusBadRequest)
		return
	}

	if action == "enroll" {
		g.handleEnroll(w, r, service)
		return
	}
	if action != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		g.handleCredentialGet(w, r, service)
	case http.MethodPut:
		g.handleCredentialPut(w, r, service)
	case http.MethodDelete:
		g.handleCredentialDelete(w, r, service)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCredentialGet returns the user's credential for one service.
// Encrypted fields are masked unless ?reveal=true is passed.
func (g *Gateway) handleCredentialGet(w http.ResponseWriter, r *http.Request, service string) {
	idCtx, ok := g.requireUser(w, r, nil)
	if !ok {
		return
	}

	record, err := g.store.Get(r.Context(), service, idCtx.UserID)
	if err != nil {
		g.writeVaultError(w, g.getRequestID(r), err)
		return
	}

	fields := record.Fields
	if r.URL.Query().Get("reveal") != "true" {
		if cfg, err := g.registry.Lookup(service); err == nil {
			masked := make(map[string]string, len(fields))
			for name, value := range fields {
				if cfg.IsEncrypted(name) {
					masked[name] = utils.MaskSecret(value)
				} else {
					masked[name] = value
				}
			}
			fields = masked
		}
	}

	g.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    service,
		"user_id":    record.UserID,
		"fields":     fields,
		"created_at": record.CreatedAt.Format(time.RFC3339),
		"updated_at": record.UpdatedAt.Format(time.RFC3339),
	})
}

// handleCredentialPut stores a complete credential for one service,
// replacing any previous record.
func (g *Gateway) handleCredentialPut(w http.ResponseWriter, r *http.Request, service string) {
	body, ok := g.readBody(w, r)
	if !ok {
		return
	}

	idCtx, ok := g.requireUser(w, r, body)
	if !ok {
		return
	}

	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &req); err != nil || len(req.Fields) == 0 {
		g.writeError(w, `request body must be {"fields": {...}}`, http.StatusBadRequest)
		return
	}

	if err := g.store.Upsert(r.Context(), service, idCtx.UserID, req.Fields); err != nil {
		g.writeVaultError(w, g.getRequestID(r), err)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": service,
		"user_id": idCtx.UserID,
		"stored":  len(req.Fields),
	})
}

// handleCredentialDelete removes the user's credential for one service.
// Deleting a credential that does not exist succeeds.
func (g *Gateway) handleCredentialDelete(w http.ResponseWriter, r *http.Request, service string) {
	idCtx, ok := g.requireUser(w, r, nil)
	if !ok {
		return
	}

	if err := g.store.Delete(r.Context(), service, idCtx.UserID); err != nil {
		g.writeVaultError(w, g.getRequestID(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleEnroll starts a browser enrollment for one service. The response
// carries the authorize URL; the credential lands in the vault in the
// background once the user approves.
func (g *Gateway) handleEnroll(w http.ResponseWriter, r *http.Request, service string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := g.getRequestID(r)

	body, ok := g.readBody(w, r)
	if !ok {
		return
	}

	idCtx, ok := g.requireUser(w, r, body)
	if !ok {
		return
	}

	if g.config.Enroll.BackendURL == "" {
		g.writeError(w, "enrollment backend not configured", http.StatusServiceUnavailable)
		return
	}

	if _, err := g.registry.Lookup(service); err != nil {
		g.writeVaultError(w, requestID, err)
		return
	}

	client, err := enroll.NewClient(g.config.Enroll.BackendURL, service)
	if err != nil {
		log.Error().Str("request_id", requestID).Err(err).Msg("enrollment setup failed")
		g.writeError(w, "failed to start enrollment", http.StatusInternalServerError)
		return
	}

	connectCtx, cancel := context.WithTimeout(r.Context(), connectTimeout)
	defer cancel()

	authorizeURL, err := client.Connect(connectCtx)
	if err != nil {
		_ = client.Close()
		log.Error().Str("request_id", requestID).Err(err).Msg("enrollment connect failed")
		g.writeError(w, "auth backend unavailable", http.StatusBadGateway)
		return
	}

	timeout := time.Duration(g.config.Enroll.TimeoutSeconds) * time.Second
	go g.finishEnrollment(client, service, idCtx.UserID, timeout)

	data, err := utils.MarshalNoEscape(map[string]interface{}{
		"service":       service,
		"user_id":       idCtx.UserID,
		"authorize_url": authorizeURL,
		"status":        "pending",
	})
	if err != nil {
		g.writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// finishEnrollment waits for the backend to push the credential, then
// stores it for the user. Runs detached from the originating request.
func (g *Gateway) finishEnrollment(client *enroll.Client, service, userID string, timeout time.Duration) {
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fields, err := client.WaitForCredential(ctx)
	if err != nil {
		log.Warn().
			Str("service", service).
			Str("user_id", userID).
			Err(err).
			Msg("enrollment did not complete")
		return
	}

	if err := g.store.Upsert(ctx, service, userID, fields); err != nil {
		log.Error().
			Str("service", service).
			Str("user_id", userID).
			Err(err).
			Msg("failed to store enrolled credential")
		return
	}

	log.Info().Str("service", service).Str("user_id", userID).Msg("credential enrolled")
}
