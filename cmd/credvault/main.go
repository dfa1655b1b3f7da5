package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/ericfisherdev/credvault/internal/adapter/driving/cli"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation. Failures are reported to stderr by the
// command tree, so only the exit status is left to main.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wipe every enclave and locked buffer on the way out.
	defer memguard.Purge()

	return cli.Execute(ctx, newBackend, os.Args[1:], os.Stdout, os.Stderr)
}
