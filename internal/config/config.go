// Package config loads gateway configuration from YAML.
//
// DESIGN: One Config struct mirrors the config file one to one. String
// values support ${VAR:-default} expansion so a single file works across
// environments; Load expands first, then fills defaults, then validates.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root gateway configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Vault  VaultConfig  `yaml:"vault"`
	Enroll EnrollConfig `yaml:"enroll"`
	Audit  AuditConfig  `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// VaultConfig controls the credential store and its encryption key.
type VaultConfig struct {
	// DBPath is the SQLite file holding credential records.
	DBPath string `yaml:"db_path"`

	// KeySource is env (default), file, or aws-secrets-manager.
	KeySource string `yaml:"key_source"`

	// KeyFile is the key file path when KeySource is file.
	KeyFile string `yaml:"key_file"`

	// KeySecretID is the secret name or ARN when KeySource is
	// aws-secrets-manager.
	KeySecretID string `yaml:"key_secret_id"`

	// AWSRegion overrides the ambient region for the secrets fetch.
	AWSRegion string `yaml:"aws_region"`
}

// EnrollConfig controls the websocket enrollment client.
type EnrollConfig struct {
	// BackendURL is the auth backend base URL ("wss://auth.example.com").
	// Empty disables enrollment.
	BackendURL string `yaml:"backend_url"`

	// TimeoutSeconds bounds one enrollment session end to end.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// AuditConfig controls the credential operation audit trail.
type AuditConfig struct {
	Enabled     bool   `yaml:"enabled"`
	LogPath     string `yaml:"log_path"`
	LogToStdout bool   `yaml:"log_to_stdout"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `yaml:"level"`
}

// Load reads the config file, expands environment references, fills in
// defaults, and validates. An empty path skips the file and yields pure
// defaults, so the gateway runs with nothing configured but the
// encryption key.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.expand()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expand applies ResolveEnvVar to every string field.
func (c *Config) expand() {
	for _, field := range []*string{
		&c.Server.Host,
		&c.Vault.DBPath,
		&c.Vault.KeySource,
		&c.Vault.KeyFile,
		&c.Vault.KeySecretID,
		&c.Vault.AWSRegion,
		&c.Enroll.BackendURL,
		&c.Audit.LogPath,
		&c.Log.Level,
	} {
		*field = ResolveEnvVar(*field)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
		if v := os.Getenv("GATEWAY_PORT"); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Server.Port = port
			}
		}
	}
	if c.Vault.DBPath == "" {
		c.Vault.DBPath = DefaultDBPath
	}
	if c.Vault.KeySource == "" {
		c.Vault.KeySource = DefaultKeySource
	}
	if c.Enroll.TimeoutSeconds == 0 {
		c.Enroll.TimeoutSeconds = DefaultEnrollTimeoutSeconds
	}
	if c.Audit.LogPath == "" {
		c.Audit.LogPath = DefaultAuditLogPath
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d is out of range", c.Server.Port)
	}
	switch c.Vault.KeySource {
	case "env", "file", "aws-secrets-manager":
	default:
		return fmt.Errorf("config: unknown key_source %q", c.Vault.KeySource)
	}
	if c.Vault.KeySource == "file" && c.Vault.KeyFile == "" {
		return fmt.Errorf("config: key_source file requires key_file")
	}
	if c.Vault.KeySource == "aws-secrets-manager" && c.Vault.KeySecretID == "" {
		return fmt.Errorf("config: key_source aws-secrets-manager requires key_secret_id")
	}
	return nil
}

// ResolveEnvVar expands ${VAR:-default} syntax in config values.
func ResolveEnvVar(value string) string {
	if !strings.HasPrefix(value, "${") {
		return value
	}

	// Parse ${VAR:-default} or ${VAR}
	content := strings.TrimPrefix(value, "${")
	content = strings.TrimSuffix(content, "}")

	var varName, defaultVal string
	if idx := strings.Index(content, ":-"); idx != -1 {
		varName = content[:idx]
		defaultVal = content[idx+2:]
	} else {
		varName = content
	}

	if envVal := os.Getenv(varName); envVal != "" {
		return envVal
	}
	return defaultVal
}
