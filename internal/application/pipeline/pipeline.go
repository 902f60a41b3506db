// Package pipeline runs alert messages through classification, extraction,
// exclusion, enrichment, deduplication and routing, producing ledger rows.
//
// An Engine is built from one compiled rule table and is read-only. A Run
// carries the state of one invocation: the accumulated records and the
// deduplication keys. Feed every message of an invocation through the same Run.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eshaffer321/alertledger/internal/domain/enricher"
	"github.com/eshaffer321/alertledger/internal/domain/ledger"
	"github.com/eshaffer321/alertledger/internal/domain/message"
	"github.com/eshaffer321/alertledger/internal/domain/router"
	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

// UnmatchedPolicy decides what an alert no rule recognizes produces.
type UnmatchedPolicy string

const (
	// UnmatchedReview emits one manual-review placeholder when the text
	// carries a bare currency amount, and nothing otherwise.
	UnmatchedReview UnmatchedPolicy = "review"
	// UnmatchedDrop emits nothing.
	UnmatchedDrop UnmatchedPolicy = "drop"
)

// ParseUnmatchedPolicy validates a configured policy name. Empty means review.
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, error) {
	switch UnmatchedPolicy(s) {
	case "", UnmatchedReview:
		return UnmatchedReview, nil
	case UnmatchedDrop:
		return UnmatchedDrop, nil
	default:
		return "", fmt.Errorf("unknown unmatched policy %q (want %q or %q)", s, UnmatchedReview, UnmatchedDrop)
	}
}

// Options configure an Engine.
type Options struct {
	Unmatched UnmatchedPolicy
	Router    *router.Router
	// Location is the time zone used for "today" on single alerts.
	Location *time.Location
	// Now is the clock; defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Engine processes alerts against one rule table.
type Engine struct {
	rules    *rules.Compiled
	enricher *enricher.Enricher
	router   *router.Router
	policy   UnmatchedPolicy
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewEngine creates an engine. Zero-valued options fall back to defaults.
func NewEngine(rs *rules.Compiled, opts Options) *Engine {
	e := &Engine{
		rules:    rs,
		enricher: enricher.New(rs),
		router:   opts.Router,
		policy:   opts.Unmatched,
		location: opts.Location,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if e.router == nil {
		e.router = router.Disabled()
	}
	if e.policy == "" {
		e.policy = UnmatchedReview
	}
	if e.location == nil {
		e.location = time.Local
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// DefaultChannel is the channel unrouted records land in.
func (e *Engine) DefaultChannel() string {
	return e.router.DefaultChannel()
}

// Process runs a single message in its own run and returns its rows.
func (e *Engine) Process(body message.Body) (map[string][]ledger.OutputRow, error) {
	run := e.NewRun()
	if _, err := run.Ingest(body); err != nil {
		return nil, err
	}
	return run.Rows(), nil
}

// NewRun starts an invocation.
func (e *Engine) NewRun() *Run {
	return &Run{
		engine: e,
		dedup:  ledger.NewDeduper(),
	}
}

func (e *Engine) today() string {
	return ledger.FormatDate(e.now().In(e.location))
}
