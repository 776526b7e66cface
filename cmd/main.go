// Command agent-gateway runs the credential vault and identity gateway,
// plus a small operator CLI around it.
package main

import (
	"fmt"
	"os"

	"github.com/relayforge/agent-gateway/internal/gateway"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printMainHelp()
		return
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		runServeCommand(rest)
	case "keygen":
		runKeygenCommand(rest)
	case "credential":
		runCredentialCommand(rest)
	case "version", "--version":
		fmt.Println("agent-gateway " + gateway.Version)
	case "help", "-h", "--help":
		printMainHelp()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", cmd)
		printMainHelp()
		os.Exit(1)
	}
}

func printMainHelp() {
	fmt.Println("Agent Gateway - per-user credential vault and identity resolver")
	fmt.Println()
	fmt.Println("Usage: agent-gateway COMMAND [OPTIONS]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       Run the gateway server")
	fmt.Println("  keygen      Generate a new credential encryption key")
	fmt.Println("  credential  Manage stored credentials from the terminal")
	fmt.Println("  version     Print the gateway version")
	fmt.Println("  help        Show this help")
	fmt.Println()
	fmt.Println("Run 'agent-gateway COMMAND --help' for command options.")
}
