package vault

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// EnvKeyVar is the environment variable consulted by the default key source.
const EnvKeyVar = "GATEWAY_TOKEN_ENCRYPTION_KEY"

// Key source names accepted in configuration.
const (
	KeySourceEnv            = "env"
	KeySourceFile           = "file"
	KeySourceSecretsManager = "aws-secrets-manager"
)

// KeyConfig selects where the vault encryption key comes from. Exactly one
// source is consulted, exactly once, during startup; nothing re-reads the
// environment or the secret after that.
type KeyConfig struct {
	// Source is one of env (default), file, aws-secrets-manager.
	Source string

	// File is the key file path when Source is file. Only the first line
	// is read, so trailing newlines are harmless.
	File string

	// SecretID is the secret name or ARN when Source is aws-secrets-manager.
	SecretID string

	// Region overrides the ambient AWS region when set.
	Region string
}

// LoadKey reads and parses the vault encryption key from the configured
// source. A missing or malformed key is an error; serve treats it as fatal
// before binding the listener. The decoded key is handed to NewCipher by
// the caller and is not retained here.
func LoadKey(ctx context.Context, cfg KeyConfig) ([]byte, error) {
	source := cfg.Source
	if source == "" {
		source = KeySourceEnv
	}

	switch source {
	case KeySourceEnv:
		encoded := os.Getenv(EnvKeyVar)
		if encoded == "" {
			return nil, fmt.Errorf("environment variable %s is not set", EnvKeyVar)
		}
		return ParseKey(encoded)

	case KeySourceFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("key source %q requires a key file path", source)
		}
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		encoded, _, _ := strings.Cut(string(data), "\n")
		return ParseKey(encoded)

	case KeySourceSecretsManager:
		if cfg.SecretID == "" {
			return nil, fmt.Errorf("key source %q requires a secret id", source)
		}
		return loadKeyFromSecretsManager(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown key source %q", cfg.Source)
	}
}

func loadKeyFromSecretsManager(ctx context.Context, cfg KeyConfig) ([]byte, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(cfg.SecretID),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching encryption key from Secrets Manager: %w", err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", cfg.SecretID)
	}
	return ParseKey(*out.SecretString)
}
