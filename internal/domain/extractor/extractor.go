// Package extractor recognizes alert shapes and pulls raw transactions out
// of normalized alert text.
//
// Single alerts are matched against the ordered extraction rules; batch alerts
// are split into blocks that are parsed independently.
package extractor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/alertledger/internal/domain/ledger"
	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

// Kind is the classification of an alert.
type Kind int

const (
	// KindSingle alerts describe at most one transaction.
	KindSingle Kind = iota
	// KindBatch alerts carry several transactions in delimited blocks.
	KindBatch
	// KindDuplicate alerts are always superseded by a batch alert and are dropped.
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindBatch:
		return "batch"
	case KindDuplicate:
		return "duplicate"
	default:
		return "single"
	}
}

// Classify decides how an alert is handled. The batch marker is tested first,
// then the duplicate-source markers.
func Classify(text string, rs *rules.Compiled) Kind {
	if rs.Batch.Marker != "" && strings.Contains(text, rs.Batch.Marker) {
		return KindBatch
	}
	for _, marker := range rs.DuplicateMarkers {
		if strings.Contains(text, marker) {
			return KindDuplicate
		}
	}
	return KindSingle
}

// OutcomeKind tags the result of single-alert matching.
type OutcomeKind int

const (
	// NoMatch means no extraction rule applied.
	NoMatch OutcomeKind = iota
	// Matched means a rule applied and produced a candidate.
	Matched
	// Ignored means a rule applied but the alert must produce nothing.
	Ignored
)

func (k OutcomeKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Ignored:
		return "ignored"
	default:
		return "no_match"
	}
}

// Candidate is a raw transaction before exclusion and enrichment.
type Candidate struct {
	Amount        decimal.Decimal
	RawPayee      string
	PaymentMethod string
}

// Outcome is the tagged result of MatchSingle. Candidate is only meaningful
// when Kind is Matched.
type Outcome struct {
	Kind      OutcomeKind
	Rule      string
	Candidate Candidate
}

// MatchSingle tries the extraction rules in declaration order and stops at the
// first structural match, whether that rule extracts or ignores.
func MatchSingle(text string, rs *rules.Compiled) (Outcome, error) {
	for _, rule := range rs.Extraction {
		m := rule.Regexp.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		if rule.Ignore {
			return Outcome{Kind: Ignored, Rule: rule.Name}, nil
		}

		amount, err := ledger.ParseAmount(m[rule.AmountGroup])
		if err != nil {
			return Outcome{Kind: NoMatch, Rule: rule.Name}, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if rule.Credit {
			amount = amount.Neg()
		}

		return Outcome{
			Kind: Matched,
			Rule: rule.Name,
			Candidate: Candidate{
				Amount:        amount,
				RawPayee:      strings.Join(strings.Fields(m[rule.PayeeGroup]), " "),
				PaymentMethod: rule.PaymentMethod,
			},
		}, nil
	}

	return Outcome{Kind: NoMatch}, nil
}

// LooseAmount scans for any bare currency amount, used for the manual review
// placeholder when no rule matched.
func LooseAmount(text string, rs *rules.Compiled) (decimal.Decimal, bool) {
	m := rs.Fallback.Amount.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	amount, err := ledger.ParseAmount(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// Excluded reports whether the raw payee contains an internal-transfer marker.
// Comparison is case-insensitive and whitespace-normalized.
func Excluded(rawPayee string, rs *rules.Compiled) bool {
	normalized := rules.NormalizeMarker(rawPayee)
	if normalized == "" {
		return false
	}
	for _, marker := range rs.Exclusions {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
