// Package service coordinates an ingest invocation: rule loading, the
// extraction pipeline and persistence of the resulting rows.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/alertledger/internal/application/pipeline"
	"github.com/eshaffer321/alertledger/internal/domain/ledger"
	"github.com/eshaffer321/alertledger/internal/domain/message"
	"github.com/eshaffer321/alertledger/internal/infrastructure/rulestore"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

// Run sources
const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

// IngestRequest holds the messages of one invocation.
type IngestRequest struct {
	Messages []message.Body
	DryRun   bool
	Source   string // SourceAPI, SourceCLI
}

// IngestResult is what one invocation produced.
type IngestResult struct {
	RunID    string
	DryRun   bool
	Channels map[string][]ledger.OutputRow
	Records  []ledger.TransactionRecord
	Stats    pipeline.Stats
}

// IngestService runs alert messages through the pipeline. It is safe for
// concurrent use; every call gets its own run.
type IngestService struct {
	rules   rulestore.Source
	storage storage.Repository
	options pipeline.Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewIngestService creates an ingest service. A nil store makes every
// request a dry run.
func NewIngestService(rules rulestore.Source, store storage.Repository, opts pipeline.Options, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &IngestService{
		rules:   rules,
		storage: store,
		options: opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Ingest processes every message of req through one pipeline run, so repeat
// alerts within the request are deduplicated. Rows are persisted unless the
// request is a dry run.
//
// An unavailable rule table (rules.ErrRuleTableUnavailable) or a message with
// no text (message.ErrNoTextFound) fails the whole invocation; no rows are
// persisted in either case and the run is recorded as failed.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if len(req.Messages) == 0 {
		return nil, message.ErrNoTextFound
	}

	dryRun := req.DryRun || s.storage == nil
	record := &storage.Run{
		ID:        uuid.NewString(),
		Source:    req.Source,
		StartedAt: s.now().UTC(),
		DryRun:    dryRun,
		Status:    storage.RunStatusRunning,
	}
	logger := s.logger.With("run_id", record.ID)

	if !dryRun {
		if err := s.storage.SaveRun(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
	}

	result, err := s.process(ctx, req.Messages, record, logger)
	if err != nil {
		if !dryRun {
			s.markFailed(ctx, record, err, logger)
		}
		logger.Error("ingest failed", "error", err)
		return nil, err
	}

	if !dryRun {
		if err := s.markCompleted(ctx, record, result); err != nil {
			return nil, err
		}
	}

	logger.Info("ingest completed",
		"messages", result.Stats.Messages,
		"rows", result.Stats.Produced,
		"excluded", result.Stats.Excluded,
		"deduplicated", result.Stats.Deduplicated,
		"dry_run", dryRun)
	return result, nil
}

func (s *IngestService) process(ctx context.Context, messages []message.Body, record *storage.Run, logger *slog.Logger) (*IngestResult, error) {
	compiled, err := rulestore.LoadCompiled(ctx, s.rules)
	if err != nil {
		return nil, err
	}
	logger.Debug("rule table loaded", "source", s.rules.Describe(), "extraction_rules", len(compiled.Extraction))

	opts := s.options
	opts.Logger = logger
	run := pipeline.NewEngine(compiled, opts).NewRun()

	for i, body := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := run.Ingest(body); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}

	records := run.Records()
	if !record.DryRun && len(records) > 0 {
		rows := make([]storage.Row, 0, len(records))
		for _, rec := range records {
			rows = append(rows, storage.RowFromRecord(rec.AccountTarget, rec))
		}
		if err := s.storage.AppendRows(ctx, record.ID, rows); err != nil {
			return nil, fmt.Errorf("failed to store rows: %w", err)
		}
	}

	return &IngestResult{
		RunID:    record.ID,
		DryRun:   record.DryRun,
		Channels: run.Rows(),
		Records:  records,
		Stats:    run.Stats(),
	}, nil
}

func (s *IngestService) markCompleted(ctx context.Context, record *storage.Run, result *IngestResult) error {
	stats, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}

	completed := s.now().UTC()
	record.CompletedAt = &completed
	record.Status = storage.RunStatusCompleted
	record.RowCount = len(result.Records)
	record.Stats = stats

	if err := s.storage.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// markFailed records the failure, detached from ctx cancellation.
func (s *IngestService) markFailed(ctx context.Context, record *storage.Run, cause error, logger *slog.Logger) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	completed := s.now().UTC()
	record.CompletedAt = &completed
	record.Status = storage.RunStatusFailed
	record.ErrorMessage = cause.Error()

	if err := s.storage.SaveRun(saveCtx, record); err != nil {
		logger.Warn("failed to record run failure", "error", errors.Join(cause, err))
	}
}
