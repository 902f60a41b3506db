// Command api serves the alert webhook and the read API over stored rows.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/alertledger/internal/cli"
)

func main() {
	flags, err := cli.ParseServeFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.RunServe(ctx, cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		stop()
		os.Exit(1)
	}
}
