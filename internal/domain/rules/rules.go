// Package rules defines the rule table document that drives alert parsing:
// the ordered extraction rules, the payee enrichment table, exclusion and
// duplicate markers, and the batch alert settings.
//
// A RuleSet is plain data as loaded from YAML or JSON. Compile turns it into
// an immutable Compiled value that the extractor and enricher read from.
package rules

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrRuleTableUnavailable is returned when the rule table cannot be fetched,
// decoded or compiled. It is always fatal to an invocation.
var ErrRuleTableUnavailable = errors.New("rule table unavailable")

//go:embed default.yaml
var defaultDocument []byte

// ExtractionRule recognizes one single-transaction alert shape.
//
// The extractor is declarative: AmountGroup and PayeeGroup index the
// pattern's capture groups. Ignore marks an alert that is recognized but must
// never produce a transaction (payment confirmations and the like).
type ExtractionRule struct {
	Name          string `yaml:"name" json:"name"`
	Pattern       string `yaml:"pattern" json:"pattern"`
	PaymentMethod string `yaml:"payment_method" json:"payment_method"`
	AmountGroup   int    `yaml:"amount_group" json:"amount_group"`
	PayeeGroup    int    `yaml:"payee_group" json:"payee_group"`
	Credit        bool   `yaml:"credit" json:"credit"` // amount is money returned
	Ignore        bool   `yaml:"ignore" json:"ignore"`
}

// PayeeRule maps raw payee text to a canonical classification.
// An empty CanonicalName means "no confident classification".
type PayeeRule struct {
	Pattern       string `yaml:"pattern" json:"pattern"`
	CanonicalName string `yaml:"canonical_name" json:"canonical_name"`
	Category      string `yaml:"category" json:"category"`
	Business      bool   `yaml:"business" json:"business"`
	Shared        bool   `yaml:"shared" json:"shared"`
	Description   string `yaml:"description" json:"description"`
}

// BatchSettings describes the multi-transaction alert format.
type BatchSettings struct {
	Marker    string `yaml:"marker" json:"marker"`
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// BlockPattern captures amount, description, month name, day and year, in that order.
	BlockPattern  string   `yaml:"block_pattern" json:"block_pattern"`
	StripPatterns []string `yaml:"strip_patterns" json:"strip_patterns"`
	PeerMarker    string   `yaml:"peer_marker" json:"peer_marker"`
	PeerMethod    string   `yaml:"peer_method" json:"peer_method"`
	DefaultMethod string   `yaml:"default_method" json:"default_method"`
}

// FallbackSettings shape the placeholder emitted for unrecognized alerts and
// the enrichment used when no payee rule is confident.
type FallbackSettings struct {
	Payee         string `yaml:"payee" json:"payee"`
	PaymentMethod string `yaml:"payment_method" json:"payment_method"`
	Category      string `yaml:"category" json:"category"`
	Description   string `yaml:"description" json:"description"`
	AmountPattern string `yaml:"amount_pattern" json:"amount_pattern"`
}

// RuleSet is the serializable rule table document.
type RuleSet struct {
	Version          int              `yaml:"version" json:"version"`
	ExtractionRules  []ExtractionRule `yaml:"extraction_rules" json:"extraction_rules"`
	PayeeRules       []PayeeRule      `yaml:"payee_rules" json:"payee_rules"`
	Exclusions       []string         `yaml:"exclusions" json:"exclusions"`
	DuplicateMarkers []string         `yaml:"duplicate_markers" json:"duplicate_markers"`
	Batch            BatchSettings    `yaml:"batch" json:"batch"`
	Fallback         FallbackSettings `yaml:"fallback" json:"fallback"`
}

// Decode parses a YAML or JSON rule document.
func Decode(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode rule document: %w", ErrRuleTableUnavailable, err)
	}
	if len(rs.ExtractionRules) == 0 && len(rs.PayeeRules) == 0 && rs.Batch.Marker == "" {
		return nil, fmt.Errorf("%w: rule document is empty", ErrRuleTableUnavailable)
	}
	return &rs, nil
}

// DefaultDocument returns the rule table shipped with the binary.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// Default decodes the rule table shipped with the binary.
func Default() (*RuleSet, error) {
	return Decode(defaultDocument)
}
