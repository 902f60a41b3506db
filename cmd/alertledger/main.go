// Command alertledger turns bank alert messages into ledger rows.
//
// Usage:
//
//	alertledger [-config config.yaml] [-rules rules.yaml] [-dry-run] [-json] [file ...]
//
// Each file is one alert; .html files are read as HTML bodies. With no files
// the alert is read from stdin.
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
	flags, err := cli.ParseIngestFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.RunIngest(ctx, flags, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "alertledger: %v\n", err)
		stop()
		os.Exit(1)
	}
}
