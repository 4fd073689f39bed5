package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tapcraft-io/kubesync/internal/config"
)

// version is set at build time.
var version = "dev"

func main() {
	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg, version).ExecuteContext(ctx); err != nil {
		// Cobra prints the error.
		cancel()
		os.Exit(1)
	}
}
