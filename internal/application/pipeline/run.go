package pipeline

import (
	"github.com/eshaffer321/alertledger/internal/domain/extractor"
	"github.com/eshaffer321/alertledger/internal/domain/ledger"
	"github.com/eshaffer321/alertledger/internal/domain/message"
)

// Stats counts what happened during a run.
type Stats struct {
	Messages      int `json:"messages"`
	BatchAlerts   int `json:"batch_alerts"`
	SingleAlerts  int `json:"single_alerts"`
	DuplicateSrc  int `json:"duplicate_source"`
	Ignored       int `json:"ignored"`
	Unmatched     int `json:"unmatched"`
	SkippedBlocks int `json:"skipped_blocks"`
	Excluded      int `json:"excluded"`
	Deduplicated  int `json:"deduplicated"`
	Produced      int `json:"produced"`
}

// Run is the state of one invocation. It is not safe for concurrent use.
type Run struct {
	engine  *Engine
	dedup   *ledger.Deduper
	records []ledger.TransactionRecord
	stats   Stats
}

// Ingest processes one message and returns the records it produced. The
// records are also accumulated on the run. ErrNoTextFound is returned for a
// body without usable text; nothing is accumulated in that case.
func (r *Run) Ingest(body message.Body) ([]ledger.TransactionRecord, error) {
	text, err := message.Normalize(body)
	if err != nil {
		return nil, err
	}
	r.stats.Messages++

	var produced []ledger.TransactionRecord
	kind := extractor.Classify(text, r.engine.rules)
	switch kind {
	case extractor.KindBatch:
		r.stats.BatchAlerts++
		produced = r.ingestBatch(text)
	case extractor.KindDuplicate:
		r.stats.DuplicateSrc++
		r.engine.logger.Debug("dropping alert superseded by batch alert")
	default:
		r.stats.SingleAlerts++
		produced = r.ingestSingle(text)
	}

	r.records = append(r.records, produced...)
	r.stats.Produced += len(produced)
	r.engine.logger.Debug("processed alert", "kind", kind.String(), "produced", len(produced))
	return produced, nil
}

func (r *Run) ingestBatch(text string) []ledger.TransactionRecord {
	e := r.engine
	blocks, skipped := extractor.SplitBatch(text, e.rules)
	for _, s := range skipped {
		e.logger.Debug("skipping batch block", "block", s.Index, "reason", s.Reason)
	}
	r.stats.SkippedBlocks += len(skipped)

	// one routing decision per batch alert
	channel := e.router.Route(text)

	var out []ledger.TransactionRecord
	for _, b := range blocks {
		if extractor.Excluded(b.RawDescription, e.rules) || extractor.Excluded(b.Description, e.rules) {
			r.stats.Excluded++
			e.logger.Debug("excluding internal transfer", "block", b.Index, "description", b.RawDescription)
			continue
		}

		out = append(out, r.enrich(ledger.FormatAmount(b.Amount), b.Description, b.PaymentMethod, b.Date, channel))
	}
	return out
}

func (r *Run) ingestSingle(text string) []ledger.TransactionRecord {
	e := r.engine
	outcome, err := extractor.MatchSingle(text, e.rules)
	if err != nil {
		e.logger.Warn("matched alert has an unusable amount", "rule", outcome.Rule, "error", err)
		return nil
	}

	switch outcome.Kind {
	case extractor.Ignored:
		r.stats.Ignored++
		e.logger.Debug("alert recognized and ignored", "rule", outcome.Rule)
		return nil
	case extractor.NoMatch:
		r.stats.Unmatched++
		return r.unmatched(text)
	}

	c := outcome.Candidate
	if extractor.Excluded(c.RawPayee, e.rules) {
		r.stats.Excluded++
		e.logger.Debug("excluding internal transfer", "rule", outcome.Rule, "payee", c.RawPayee)
		return nil
	}

	rec := r.enrich(ledger.FormatAmount(c.Amount), c.RawPayee, c.PaymentMethod, e.today(), e.router.Route(text))
	if !r.dedup.Add(rec.DedupKey()) {
		r.stats.Deduplicated++
		e.logger.Info("suppressing repeat alert", "payee", rec.CanonicalPayee, "amount", rec.Amount)
		return nil
	}
	return []ledger.TransactionRecord{rec}
}

func (r *Run) unmatched(text string) []ledger.TransactionRecord {
	e := r.engine
	if e.policy == UnmatchedDrop {
		e.logger.Warn("unrecognized alert dropped")
		return nil
	}

	amount, ok := extractor.LooseAmount(text, e.rules)
	if !ok {
		e.logger.Warn("unrecognized alert without an amount")
		return nil
	}

	fb := e.rules.Fallback
	e.logger.Warn("unrecognized alert needs manual review", "amount", ledger.FormatAmount(amount))
	return []ledger.TransactionRecord{{
		Date:           e.today(),
		Amount:         ledger.FormatAmount(amount),
		CanonicalPayee: fb.Payee,
		RawPayee:       fb.Payee,
		PaymentMethod:  fb.PaymentMethod,
		Category:       fb.Category,
		Description:    fb.Description,
		AccountTarget:  e.router.Route(text),
	}}
}

func (r *Run) enrich(amount, rawPayee, method, date, channel string) ledger.TransactionRecord {
	en := r.engine.enricher.Enrich(rawPayee)
	return ledger.TransactionRecord{
		Date:           date,
		Amount:         amount,
		CanonicalPayee: en.CanonicalName,
		RawPayee:       rawPayee,
		PaymentMethod:  method,
		Category:       en.Category,
		Business:       en.Business,
		Shared:         en.Shared,
		Description:    en.Description,
		AccountTarget:  channel,
	}
}

// Records returns every record produced so far, in production order.
func (r *Run) Records() []ledger.TransactionRecord {
	out := make([]ledger.TransactionRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Rows returns the run's output rows keyed by channel. The default channel is
// always present, possibly empty.
func (r *Run) Rows() map[string][]ledger.OutputRow {
	rows := ledger.BuildRows(r.records, r.engine.DefaultChannel())
	if _, ok := rows[r.engine.DefaultChannel()]; !ok {
		rows[r.engine.DefaultChannel()] = []ledger.OutputRow{}
	}
	return rows
}

// Stats returns the run counters.
func (r *Run) Stats() Stats {
	return r.stats
}
