// Package gateway - gateway.go wires the identity resolver and the
// credential vault behind one HTTP server.
//
// DESIGN: Startup order matters:
//   1. Load the encryption key (fatal if unavailable, nothing works without it)
//   2. Register token types for the built-in integrations
//   3. Open the credential store with the monitoring recorder attached
//   4. Register routes and serve
//
// The raw key is loaded exactly once here and handed to the cipher. No
// other component sees key material, and it is never logged.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relayforge/agent-gateway/internal/config"
	"github.com/relayforge/agent-gateway/internal/integrations"
	"github.com/relayforge/agent-gateway/internal/monitoring"
	"github.com/relayforge/agent-gateway/internal/vault"
)

// Gateway is the HTTP front end for identity resolution and credential
// storage.
type Gateway struct {
	config   *config.Config
	registry *vault.Registry
	store    *vault.Store
	metrics  *monitoring.MetricsCollector
	recent   *monitoring.OpLog
	audit    *monitoring.Audit

	server *http.Server
}

// New wires a gateway from config. Loading the encryption key is the
// first step: without it the vault cannot operate and startup must fail.
func New(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	key, err := vault.LoadKey(ctx, vault.KeyConfig{
		Source:   cfg.Vault.KeySource,
		File:     cfg.Vault.KeyFile,
		SecretID: cfg.Vault.KeySecretID,
		Region:   cfg.Vault.AWSRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("encryption key unavailable: %w", err)
	}

	cipher, err := vault.NewCipher(key)
	if err != nil {
		return nil, err
	}

	registry := vault.NewRegistry()
	if err := integrations.RegisterAll(registry); err != nil {
		return nil, err
	}

	audit, err := monitoring.NewAudit(monitoring.AuditConfig{
		Enabled:     cfg.Audit.Enabled,
		LogPath:     cfg.Audit.LogPath,
		LogToStdout: cfg.Audit.LogToStdout,
	})
	if err != nil {
		return nil, fmt.Errorf("audit log setup failed: %w", err)
	}

	metrics := monitoring.NewMetricsCollector()
	recent := monitoring.NewOpLog()

	store, err := vault.Open(ctx, vault.StoreConfig{
		Path:     cfg.Vault.DBPath,
		Registry: registry,
		Cipher:   cipher,
		Observer: monitoring.NewRecorder(audit, metrics, recent),
	})
	if err != nil {
		return nil, fmt.Errorf("credential store unavailable: %w", err)
	}

	log.Info().
		Str("db_path", cfg.Vault.DBPath).
		Str("key_source", cfg.Vault.KeySource).
		Strs("services", registry.Services()).
		Msg("gateway initialized")

	return &Gateway{
		config:   cfg,
		registry: registry,
		store:    store,
		metrics:  metrics,
		recent:   recent,
		audit:    audit,
	}, nil
}

// Handler returns the gateway's route table.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/v1/identity", g.handleIdentity)
	mux.HandleFunc("/v1/credentials", g.handleCredentialList)
	mux.HandleFunc("/v1/credentials/", g.handleCredential)
	mux.HandleFunc("/stats", g.handleStats)
	mux.Handle("/metrics", g.metrics.Handler())
	return g.withRequestMetrics(mux)
}

// Start runs the HTTP server. Blocks until the server exits; returns nil
// on graceful shutdown.
func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)

	g.server = &http.Server{
		Addr:         addr,
		Handler:      g.Handler(),
		ReadTimeout:  config.DefaultServerReadTimeout,
		WriteTimeout: config.DefaultServerWriteTimeout,
	}

	log.Info().Str("addr", addr).Msg("gateway listening")

	err := g.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, then closes the store and the
// audit trail.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var firstErr error

	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := g.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.audit.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// withRequestMetrics counts every request and logs a one-line summary.
func (g *Gateway) withRequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		g.metrics.RecordRequest(rec.status < 400, time.Since(start))
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// isLoopback reports whether the remote address is a loopback interface.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
