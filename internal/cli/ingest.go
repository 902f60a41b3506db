package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eshaffer321/alertledger/internal/application/service"
	"github.com/eshaffer321/alertledger/internal/clients"
	"github.com/eshaffer321/alertledger/internal/infrastructure/config"
	"github.com/eshaffer321/alertledger/internal/infrastructure/logging"
)

// LoadConfig reads an explicit config file, or falls back to config.yaml and
// then the environment when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// RunIngest parses the alerts named by flags and prints the rows produced.
// Logs go to stderr so stdout stays machine-readable with -json.
func RunIngest(ctx context.Context, flags IngestFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	if flags.RulesPath != "" && flags.RulesURL != "" {
		return errors.New("-rules and -rules-url are mutually exclusive")
	}

	cfg, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.RulesPath != "" {
		cfg.Rules.Path, cfg.Rules.URL = flags.RulesPath, ""
	}
	if flags.RulesURL != "" {
		cfg.Rules.Path, cfg.Rules.URL = "", flags.RulesURL
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerTo(stderr, loggingCfg).With("system", "cli")

	bodies, err := ReadMessages(flags.Files, stdin, flags.HTML)
	if err != nil {
		return err
	}

	svc, err := clients.NewClients(cfg, logger, clients.Options{NoStorage: flags.DryRun})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if !flags.JSON {
		PrintHeader(stdout, svc.Rules.Describe(), flags.DryRun)
	}

	result, err := svc.Ingest.Ingest(ctx, service.IngestRequest{
		Messages: bodies,
		DryRun:   flags.DryRun,
		Source:   service.SourceCLI,
	})
	if err != nil {
		return err
	}

	if flags.JSON {
		return PrintJSON(stdout, result.Channels)
	}
	PrintRows(stdout, result.Channels)
	fmt.Fprintln(stdout)
	PrintSummary(stdout, result)
	return nil
}
