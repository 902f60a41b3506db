package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults applied when a document leaves a field empty.
const (
	DefaultDelimiter     = "***"
	DefaultBatchMethod   = "Debit Card"
	DefaultFallbackPayee = "Manual Review Required"
	DefaultFallbackCat   = "Other"
	DefaultFallbackDesc  = "Manual review"
	DefaultUnknownMethod = "Unknown"
	defaultAmountPattern = `\$([\d,]+\.\d{2})`
)

// blockGroups is the number of capture groups a block pattern must have.
const blockGroups = 5

// CompiledExtraction is an ExtractionRule with its pattern compiled.
type CompiledExtraction struct {
	ExtractionRule
	Regexp *regexp.Regexp
}

// CompiledPayee is a PayeeRule with its case-insensitive pattern compiled.
type CompiledPayee struct {
	PayeeRule
	Regexp *regexp.Regexp
}

// CompiledBatch holds the batch alert settings ready for use.
type CompiledBatch struct {
	Marker        string
	Delimiter     string
	Block         *regexp.Regexp
	Strip         []*regexp.Regexp
	PeerMarker    string // normalized
	PeerMethod    string
	DefaultMethod string
}

// CompiledFallback holds the unrecognized-alert and low-confidence settings.
type CompiledFallback struct {
	Payee         string
	PaymentMethod string
	Category      string
	Description   string
	Amount        *regexp.Regexp
}

// Compiled is the read-only rule table used for a single invocation.
type Compiled struct {
	Extraction       []CompiledExtraction
	Payees           []CompiledPayee
	Exclusions       []string // normalized
	DuplicateMarkers []string
	Batch            CompiledBatch
	Fallback         CompiledFallback
}

// Compile validates the rule set and compiles every pattern. Rule order is
// preserved exactly.
func (rs *RuleSet) Compile() (*Compiled, error) {
	c := &Compiled{
		Extraction: make([]CompiledExtraction, 0, len(rs.ExtractionRules)),
		Payees:     make([]CompiledPayee, 0, len(rs.PayeeRules)),
	}

	for i, rule := range rs.ExtractionRules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: extraction rule %d (%s): %w", ErrRuleTableUnavailable, i, rule.Name, err)
		}
		if !rule.Ignore {
			if err := checkGroup(re, rule.AmountGroup, "amount_group"); err != nil {
				return nil, fmt.Errorf("%w: extraction rule %d (%s): %w", ErrRuleTableUnavailable, i, rule.Name, err)
			}
			if err := checkGroup(re, rule.PayeeGroup, "payee_group"); err != nil {
				return nil, fmt.Errorf("%w: extraction rule %d (%s): %w", ErrRuleTableUnavailable, i, rule.Name, err)
			}
			if rule.PaymentMethod == "" {
				return nil, fmt.Errorf("%w: extraction rule %d (%s): payment_method is required", ErrRuleTableUnavailable, i, rule.Name)
			}
		}
		c.Extraction = append(c.Extraction, CompiledExtraction{ExtractionRule: rule, Regexp: re})
	}

	for i, rule := range rs.PayeeRules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: payee rule %d (%q): %w", ErrRuleTableUnavailable, i, rule.Pattern, err)
		}
		c.Payees = append(c.Payees, CompiledPayee{PayeeRule: rule, Regexp: re})
	}

	for _, ex := range rs.Exclusions {
		if n := NormalizeMarker(ex); n != "" {
			c.Exclusions = append(c.Exclusions, n)
		}
	}
	for _, m := range rs.DuplicateMarkers {
		if m = strings.TrimSpace(m); m != "" {
			c.DuplicateMarkers = append(c.DuplicateMarkers, m)
		}
	}

	batch, err := compileBatch(rs.Batch)
	if err != nil {
		return nil, err
	}
	c.Batch = batch

	fallback, err := compileFallback(rs.Fallback)
	if err != nil {
		return nil, err
	}
	c.Fallback = fallback

	return c, nil
}

func compileBatch(b BatchSettings) (CompiledBatch, error) {
	out := CompiledBatch{
		Marker:        strings.TrimSpace(b.Marker),
		Delimiter:     orDefault(b.Delimiter, DefaultDelimiter),
		PeerMarker:    NormalizeMarker(b.PeerMarker),
		PeerMethod:    b.PeerMethod,
		DefaultMethod: orDefault(b.DefaultMethod, DefaultBatchMethod),
	}
	if out.Marker == "" {
		// batch alerts disabled
		return out, nil
	}

	re, err := regexp.Compile(b.BlockPattern)
	if err != nil {
		return out, fmt.Errorf("%w: batch block pattern: %w", ErrRuleTableUnavailable, err)
	}
	if re.NumSubexp() < blockGroups {
		return out, fmt.Errorf("%w: batch block pattern needs %d capture groups, has %d",
			ErrRuleTableUnavailable, blockGroups, re.NumSubexp())
	}
	out.Block = re

	for i, p := range b.StripPatterns {
		sre, err := regexp.Compile(p)
		if err != nil {
			return out, fmt.Errorf("%w: batch strip pattern %d: %w", ErrRuleTableUnavailable, i, err)
		}
		out.Strip = append(out.Strip, sre)
	}

	if out.PeerMarker != "" && out.PeerMethod == "" {
		return out, fmt.Errorf("%w: batch peer_marker set without peer_method", ErrRuleTableUnavailable)
	}
	return out, nil
}

func compileFallback(f FallbackSettings) (CompiledFallback, error) {
	re, err := regexp.Compile(orDefault(f.AmountPattern, defaultAmountPattern))
	if err != nil {
		return CompiledFallback{}, fmt.Errorf("%w: fallback amount pattern: %w", ErrRuleTableUnavailable, err)
	}
	if re.NumSubexp() < 1 {
		return CompiledFallback{}, fmt.Errorf("%w: fallback amount pattern needs a capture group", ErrRuleTableUnavailable)
	}
	return CompiledFallback{
		Payee:         orDefault(f.Payee, DefaultFallbackPayee),
		PaymentMethod: orDefault(f.PaymentMethod, DefaultUnknownMethod),
		Category:      orDefault(f.Category, DefaultFallbackCat),
		Description:   orDefault(f.Description, DefaultFallbackDesc),
		Amount:        re,
	}, nil
}

func checkGroup(re *regexp.Regexp, group int, field string) error {
	if group < 1 || group > re.NumSubexp() {
		return fmt.Errorf("%s %d out of range (pattern has %d groups)", field, group, re.NumSubexp())
	}
	return nil
}

// NormalizeMarker upper-cases s and collapses whitespace runs, the form used
// for every containment test against exclusion and peer-payment markers.
func NormalizeMarker(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
