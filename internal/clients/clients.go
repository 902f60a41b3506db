// Package clients provides centralized service initialization with dependency injection.
//
// This package eliminates duplicated setup code across commands by providing
// a single point of initialization for the rule source, storage and ingest
// service.
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	clients, err := clients.NewClients(cfg, logger, clients.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer clients.Close()
//	// Use clients.Ingest, clients.Storage, etc.
package clients

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/alertledger/internal/application/pipeline"
	"github.com/eshaffer321/alertledger/internal/application/service"
	"github.com/eshaffer321/alertledger/internal/domain/router"
	"github.com/eshaffer321/alertledger/internal/infrastructure/config"
	"github.com/eshaffer321/alertledger/internal/infrastructure/rulestore"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

// Options adjust initialization.
type Options struct {
	// NoStorage skips opening the database; every ingest is a dry run.
	NoStorage bool
}

// Clients holds all initialized services
type Clients struct {
	Rules   rulestore.Source
	Storage storage.Repository // nil with Options.NoStorage
	Ingest  *service.IngestService
}

// NewClients initializes all services from configuration.
// Returns error if the configuration is invalid or the database cannot be opened.
func NewClients(cfg *config.Config, logger *slog.Logger, opts Options) (*Clients, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	pipelineOpts, err := PipelineOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	c := &Clients{
		Rules: rulestore.FromConfig(cfg.Rules, logger),
	}

	if !opts.NoStorage {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		c.Storage = store
	}

	c.Ingest = service.NewIngestService(c.Rules, c.Storage, pipelineOpts, logger)

	return c, nil
}

// Close releases the database, if one was opened.
func (c *Clients) Close() error {
	if c.Storage == nil {
		return nil
	}
	return c.Storage.Close()
}

// PipelineOptions maps configuration onto engine options.
func PipelineOptions(cfg *config.Config, logger *slog.Logger) (pipeline.Options, error) {
	loc, err := cfg.Pipeline.Location()
	if err != nil {
		return pipeline.Options{}, err
	}

	policy, err := pipeline.ParseUnmatchedPolicy(cfg.Pipeline.UnmatchedPolicy)
	if err != nil {
		return pipeline.Options{}, err
	}

	holders := make([]router.Holder, 0, len(cfg.Accounts.Holders))
	for _, h := range cfg.Accounts.Holders {
		holders = append(holders, router.Holder{Name: h.Name, Markers: h.Markers})
	}

	return pipeline.Options{
		Unmatched: policy,
		Router:    router.New(cfg.Accounts.Enabled, cfg.Accounts.Primary, holders),
		Location:  loc,
		Logger:    logger,
	}, nil
}
