package vault

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TokenTypeConfig describes the credential schema for one external service.
type TokenTypeConfig struct {
	// ServiceName identifies the service ("jira", "github", ...).
	ServiceName string

	// Fields lists every field a credential record for this service may
	// carry, in presentation order.
	Fields []string

	// EncryptedFields names the subset of Fields encrypted at rest.
	// Everything else is stored verbatim.
	EncryptedFields []string
}

// HasField reports whether name is part of the schema.
func (c TokenTypeConfig) HasField(name string) bool {
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// IsEncrypted reports whether name is stored encrypted.
func (c TokenTypeConfig) IsEncrypted(name string) bool {
	for _, f := range c.EncryptedFields {
		if f == name {
			return true
		}
	}
	return false
}

// Registry maps service names to their token type schemas. Services
// register during startup; the store consults the registry on every
// operation. Registration of a name is permanent for the process
// lifetime, there is no unregister.
type Registry struct {
	mu    sync.RWMutex
	types map[string]TokenTypeConfig
}

// NewRegistry creates an empty token type registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]TokenTypeConfig),
	}
}

// Register adds a token type. Duplicate service names and malformed
// schemas are rejected with a ConfigError.
func (r *Registry) Register(cfg TokenTypeConfig) error {
	if err := validateTokenType(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[cfg.ServiceName]; exists {
		return &ConfigError{Service: cfg.ServiceName, Reason: "already registered"}
	}
	r.types[cfg.ServiceName] = cfg
	return nil
}

// Lookup returns the schema for a service. Unknown names fail with an
// UnknownServiceError naming every registered service.
func (r *Registry) Lookup(service string) (TokenTypeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.types[service]
	if !ok {
		return TokenTypeConfig{}, &UnknownServiceError{
			Service:   service,
			Available: r.servicesLocked(),
		}
	}
	return cfg, nil
}

// Services returns the registered service names, sorted.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.servicesLocked()
}

func (r *Registry) servicesLocked() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateTokenType(cfg TokenTypeConfig) error {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return &ConfigError{Service: cfg.ServiceName, Reason: "service name is empty"}
	}
	if len(cfg.Fields) == 0 {
		return &ConfigError{Service: cfg.ServiceName, Reason: "schema has no fields"}
	}

	seen := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if strings.TrimSpace(f) == "" {
			return &ConfigError{Service: cfg.ServiceName, Reason: "schema has an empty field name"}
		}
		// Field names become JSON document paths in the store.
		if strings.ContainsAny(f, ".*?|#@\\") {
			return &ConfigError{Service: cfg.ServiceName, Reason: fmt.Sprintf("field %q contains reserved characters", f)}
		}
		if seen[f] {
			return &ConfigError{Service: cfg.ServiceName, Reason: fmt.Sprintf("field %q listed twice", f)}
		}
		seen[f] = true
	}
	for _, f := range cfg.EncryptedFields {
		if !seen[f] {
			return &ConfigError{Service: cfg.ServiceName, Reason: fmt.Sprintf("encrypted field %q is not in the schema", f)}
		}
	}
	return nil
}
