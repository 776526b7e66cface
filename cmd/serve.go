package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/relayforge/agent-gateway/internal/config"
	"github.com/relayforge/agent-gateway/internal/gateway"
	"github.com/relayforge/agent-gateway/internal/vault"
)

// runServeCommand runs the gateway server in the foreground.
func runServeCommand(args []string) {
	var (
		configFlag string
		portFlag   int
		debugFlag  bool
	)

	i := 0
	for i < len(args) {
		switch args[i] {
		case "-h", "--help":
			printServeHelp()
			return
		case "-c", "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --config requires a value")
				os.Exit(1)
			}
			configFlag = args[i+1]
			i += 2
		case "-p", "--port":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --port requires a value")
				os.Exit(1)
			}
			port, err := strconv.Atoi(args[i+1])
			if err != nil || port <= 0 || port > 65535 {
				fmt.Fprintf(os.Stderr, "Error: invalid port '%s'\n", args[i+1])
				os.Exit(1)
			}
			portFlag = port
			i += 2
		case "-d", "--debug":
			debugFlag = true
			i++
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown option: %s\n", args[i])
			os.Exit(1)
		}
	}

	loadEnvFiles()

	cfg, err := config.Load(configFlag)
	if err != nil {
		printError(fmt.Sprintf("loading config: %v", err))
		os.Exit(1)
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}

	setupLogging(cfg.Log.Level, debugFlag)

	g, err := gateway.New(context.Background(), cfg)
	if err != nil {
		printError(err.Error())
		if strings.Contains(err.Error(), "encryption key") {
			printInfo("Generate one with: agent-gateway keygen")
		}
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		if err := g.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	printSuccess(fmt.Sprintf("Gateway listening on %s:%d", cfg.Server.Host, cfg.Server.Port))
	if err := g.Start(); err != nil {
		printError(fmt.Sprintf("server failed: %v", err))
		os.Exit(1)
	}
}

func printServeHelp() {
	fmt.Println("Run the gateway server")
	fmt.Println()
	fmt.Println("Usage: agent-gateway serve [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -c, --config FILE    Gateway config YAML (optional, defaults apply)")
	fmt.Println("  -p, --port PORT      Override the listen port")
	fmt.Println("  -d, --debug          Enable debug logging")
	fmt.Println("  -h, --help           Show this help")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %s\n", vault.EnvKeyVar)
	fmt.Println("      Credential encryption key (required unless the config selects a")
	fmt.Println("      file or AWS key source). Generate one with 'agent-gateway keygen'.")
	fmt.Println("  GATEWAY_PORT")
	fmt.Println("      Listen port when the config leaves it unset.")
}
