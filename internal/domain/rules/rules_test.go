package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Compiles(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	compiled, err := rs.Compile()
	require.NoError(t, err)

	assert.Len(t, compiled.Extraction, len(rs.ExtractionRules))
	assert.Len(t, compiled.Payees, len(rs.PayeeRules))
	assert.Equal(t, "chase-card-not-present", compiled.Extraction[0].Name)
	assert.Equal(t, "***", compiled.Batch.Delimiter)
	assert.Equal(t, "VENMO", compiled.Batch.PeerMarker)
	assert.Contains(t, compiled.Exclusions, "CHASE CREDIT CRD - EPAY")
	assert.Equal(t, "Manual Review Required", compiled.Fallback.Payee)

	last := compiled.Payees[len(compiled.Payees)-1]
	assert.Empty(t, last.CanonicalName, "table should end in a catch-all")
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"extraction_rules": [{"name": "a", "pattern": "paid \\$(\\d+\\.\\d{2}) at (.+)", "payment_method": "Card", "amount_group": 1, "payee_group": 2}], ` +
		`"payee_rules": [{"pattern": "shop", "canonical_name": "Shop", "category": "Shopping"}]}`

	rs, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, rs.ExtractionRules, 1)
	assert.Equal(t, 2, rs.ExtractionRules[0].PayeeGroup)

	compiled, err := rs.Compile()
	require.NoError(t, err)
	assert.True(t, compiled.Payees[0].Regexp.MatchString("SHOP 12"), "payee patterns are case-insensitive")
	assert.Nil(t, compiled.Batch.Block, "no batch marker means no batch format")
	assert.Equal(t, DefaultUnknownMethod, compiled.Fallback.PaymentMethod)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "malformed yaml", doc: "extraction_rules: [\n"},
		{name: "empty document", doc: "version: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrRuleTableUnavailable)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		rs   RuleSet
	}{
		{
			name: "bad extraction pattern",
			rs:   RuleSet{ExtractionRules: []ExtractionRule{{Name: "x", Pattern: "(", PaymentMethod: "Card", AmountGroup: 1, PayeeGroup: 1}}},
		},
		{
			name: "amount group out of range",
			rs:   RuleSet{ExtractionRules: []ExtractionRule{{Name: "x", Pattern: `\$(\d+)`, PaymentMethod: "Card", AmountGroup: 2, PayeeGroup: 1}}},
		},
		{
			name: "missing payment method",
			rs:   RuleSet{ExtractionRules: []ExtractionRule{{Name: "x", Pattern: `\$(\d+) (.+)`, AmountGroup: 1, PayeeGroup: 2}}},
		},
		{
			name: "bad payee pattern",
			rs:   RuleSet{PayeeRules: []PayeeRule{{Pattern: "[", CanonicalName: "X"}}},
		},
		{
			name: "block pattern with too few groups",
			rs:   RuleSet{Batch: BatchSettings{Marker: "Batch", BlockPattern: `(\d+) (.+)`}},
		},
		{
			name: "peer marker without method",
			rs: RuleSet{Batch: BatchSettings{
				Marker:       "Batch",
				BlockPattern: `(\d+) (.+) (\w+) (\d+) (\d+)`,
				PeerMarker:   "VENMO",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rs.Compile()
			assert.ErrorIs(t, err, ErrRuleTableUnavailable)
		})
	}
}

func TestCompile_IgnoreRuleNeedsNoGroups(t *testing.T) {
	rs := RuleSet{ExtractionRules: []ExtractionRule{{Name: "payment", Pattern: "You paid", Ignore: true}}}

	compiled, err := rs.Compile()
	require.NoError(t, err)
	assert.True(t, compiled.Extraction[0].Ignore)
}

func TestNormalizeMarker(t *testing.T) {
	assert.Equal(t, "ACH DEBIT CHASE CREDIT CRD - EPAY", NormalizeMarker("  ACH Debit CHASE CREDIT CRD  - EPAY "))
	assert.Equal(t, "", NormalizeMarker("   "))
}

func TestDefaultDocument_IsCopy(t *testing.T) {
	doc := DefaultDocument()
	require.NotEmpty(t, doc)
	doc[0] = 'X'
	assert.NotEqual(t, doc[0], DefaultDocument()[0])
}
