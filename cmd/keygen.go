package main

import (
	"fmt"
	"os"

	"github.com/relayforge/agent-gateway/internal/utils"
	"github.com/relayforge/agent-gateway/internal/vault"
)

// runKeygenCommand generates a fresh credential encryption key and prints
// it with setup instructions. The key is printed once and never stored.
func runKeygenCommand(args []string) {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			fmt.Println("Generate a new credential encryption key")
			fmt.Println()
			fmt.Println("Usage: agent-gateway keygen")
			return
		}
	}

	key, err := vault.GenerateKey()
	if err != nil {
		printError(fmt.Sprintf("key generation failed: %v", err))
		os.Exit(1)
	}

	printSuccess("Generated new credential encryption key")
	fmt.Println()
	fmt.Println("  " + key)
	fmt.Println()
	printInfo("Add it to your environment or .env file:")
	fmt.Printf("  export %s=%s\n", vault.EnvKeyVar, utils.ShellQuote(key))
	fmt.Println()
	printWarn("Store it safely. Credentials encrypted with a lost key cannot be recovered.")
}
