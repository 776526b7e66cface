package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/relayforge/agent-gateway/internal/config"
	"github.com/relayforge/agent-gateway/internal/integrations"
	"github.com/relayforge/agent-gateway/internal/utils"
	"github.com/relayforge/agent-gateway/internal/vault"
)

// runCredentialCommand manages stored credentials from the terminal,
// operating on the database directly without a running gateway.
func runCredentialCommand(args []string) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printCredentialHelp()
		return
	}

	action := args[0]
	var (
		service    string
		userFlag   string
		configFlag string
		revealFlag bool
		fieldFlags []string
	)

	i := 1
	for i < len(args) {
		switch args[i] {
		case "-h", "--help":
			printCredentialHelp()
			return
		case "-u", "--user":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --user requires a value")
				os.Exit(1)
			}
			userFlag = args[i+1]
			i += 2
		case "-c", "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --config requires a value")
				os.Exit(1)
			}
			configFlag = args[i+1]
			i += 2
		case "--reveal":
			revealFlag = true
			i++
		case "--field":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --field requires key=value")
				os.Exit(1)
			}
			fieldFlags = append(fieldFlags, args[i+1])
			i += 2
		default:
			if strings.HasPrefix(args[i], "-") {
				fmt.Fprintf(os.Stderr, "Error: unknown option: %s\n", args[i])
				os.Exit(1)
			}
			service = args[i]
			i++
		}
	}

	if userFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: --user is required")
		os.Exit(1)
	}

	loadEnvFiles()

	cfg, err := config.Load(configFlag)
	if err != nil {
		printError(fmt.Sprintf("loading config: %v", err))
		os.Exit(1)
	}
	setupLogging("error", false)

	store, registry, err := openVault(cfg)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	switch action {
	case "set":
		err = credentialSet(ctx, store, registry, service, userFlag, fieldFlags)
	case "get":
		err = credentialGet(ctx, store, registry, service, userFlag, revealFlag)
	case "delete":
		err = credentialDelete(ctx, store, service, userFlag)
	case "list":
		err = credentialList(ctx, store, registry, userFlag)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action: %s\n\n", action)
		printCredentialHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

// openVault wires the credential store the same way the server does,
// minus the HTTP and monitoring layers.
func openVault(cfg *config.Config) (*vault.Store, *vault.Registry, error) {
	ctx := context.Background()

	key, err := vault.LoadKey(ctx, vault.KeyConfig{
		Source:   cfg.Vault.KeySource,
		File:     cfg.Vault.KeyFile,
		SecretID: cfg.Vault.KeySecretID,
		Region:   cfg.Vault.AWSRegion,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key unavailable: %w", err)
	}

	cipher, err := vault.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	registry := vault.NewRegistry()
	if err := integrations.RegisterAll(registry); err != nil {
		return nil, nil, err
	}

	store, err := vault.Open(ctx, vault.StoreConfig{
		Path:     cfg.Vault.DBPath,
		Registry: registry,
		Cipher:   cipher,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("credential store unavailable: %w", err)
	}
	return store, registry, nil
}

func credentialSet(ctx context.Context, store *vault.Store, registry *vault.Registry, service, user string, fieldFlags []string) error {
	if service == "" {
		return fmt.Errorf("service name required (one of: %s)", strings.Join(registry.Services(), ", "))
	}
	schema, err := registry.Lookup(service)
	if err != nil {
		return err
	}

	fields, err := parseFieldFlags(fieldFlags)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		fields, err = promptFields(schema)
		if err != nil {
			return err
		}
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields provided, nothing stored")
	}

	if err := store.Upsert(ctx, service, user, fields); err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Stored %s credential for %s (%d fields)", service, user, len(fields)))
	return nil
}

func credentialGet(ctx context.Context, store *vault.Store, registry *vault.Registry, service, user string, reveal bool) error {
	if service == "" {
		return fmt.Errorf("service name required")
	}

	record, err := store.Get(ctx, service, user)
	if err != nil {
		return err
	}
	schema, err := registry.Lookup(service)
	if err != nil {
		return err
	}

	fmt.Printf("%s credential for %s (updated %s)\n", service, user,
		record.UpdatedAt.Format("2006-01-02 15:04:05"))
	for _, name := range schema.Fields {
		value, ok := record.Fields[name]
		if !ok {
			continue
		}
		if schema.IsEncrypted(name) && !reveal {
			value = utils.MaskSecret(value)
		}
		fmt.Printf("  %-16s %s\n", name, value)
	}
	if !reveal {
		printInfo("Pass --reveal to show secret values")
	}
	return nil
}

func credentialDelete(ctx context.Context, store *vault.Store, service, user string) error {
	if service == "" {
		return fmt.Errorf("service name required")
	}
	if err := store.Delete(ctx, service, user); err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Deleted %s credential for %s", service, user))
	return nil
}

func credentialList(ctx context.Context, store *vault.Store, registry *vault.Registry, user string) error {
	enrolled, err := store.ServicesForUser(ctx, user)
	if err != nil {
		return err
	}
	enrolledSet := make(map[string]bool, len(enrolled))
	for _, s := range enrolled {
		enrolledSet[s] = true
	}

	fmt.Printf("Services for %s:\n", user)
	for _, name := range registry.Services() {
		marker := " "
		if enrolledSet[name] {
			marker = "*"
		}
		fmt.Printf("  [%s] %s\n", marker, name)
	}
	printInfo("* = credential stored")
	return nil
}

// parseFieldFlags turns repeated --field key=value flags into a field map.
func parseFieldFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, found := strings.Cut(f, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --field %q (expected key=value)", f)
		}
		fields[key] = value
	}
	return fields, nil
}

// promptFields asks for each schema field interactively. Secret fields are
// read without echo. Empty input skips a field.
func promptFields(schema vault.TokenTypeConfig) (map[string]string, error) {
	reader := bufio.NewReader(os.Stdin)
	fields := make(map[string]string)

	for _, name := range schema.Fields {
		if schema.IsEncrypted(name) {
			fmt.Printf("%s (hidden, empty to skip): ", name)
			value, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			if v := strings.TrimSpace(string(value)); v != "" {
				fields[name] = v
			}
			continue
		}

		fmt.Printf("%s (empty to skip): ", name)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if v := strings.TrimSpace(line); v != "" {
			fields[name] = v
		}
	}

	return fields, nil
}

func printCredentialHelp() {
	fmt.Println("Manage stored credentials from the terminal")
	fmt.Println()
	fmt.Println("Usage: agent-gateway credential ACTION [SERVICE] [OPTIONS]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  set SERVICE      Store a credential (prompts for each field)")
	fmt.Println("  get SERVICE      Show a stored credential (secrets masked)")
	fmt.Println("  delete SERVICE   Remove a stored credential")
	fmt.Println("  list             Show which services have stored credentials")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -u, --user USER      User the credential belongs to (required)")
	fmt.Println("  -c, --config FILE    Gateway config YAML (optional)")
	fmt.Println("  --field KEY=VALUE    Set a field non-interactively (repeatable)")
	fmt.Println("  --reveal             Show secret values with 'get'")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  agent-gateway credential set jira --user alice")
	fmt.Println("  agent-gateway credential set jira --user alice --field token=abc --field server_url=https://jira.example.com")
	fmt.Println("  agent-gateway credential get jira --user alice --reveal")
	fmt.Println("  agent-gateway credential list --user alice")
}
