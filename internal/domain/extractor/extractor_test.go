package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/alertledger/internal/domain/ledger"
	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

func defaultRules(t *testing.T) *rules.Compiled {
	t.Helper()
	rs, err := rules.Default()
	require.NoError(t, err)
	compiled, err := rs.Compile()
	require.NoError(t, err)
	return compiled
}

func TestClassify(t *testing.T) {
	rs := defaultRules(t)

	tests := []struct {
		name     string
		text     string
		expected Kind
	}{
		{
			name:     "batch alert",
			text:     "Transaction Alert from First Tech Federal Credit Union.\n***5267 had a transaction of ($1.00).",
			expected: KindBatch,
		},
		{
			name:     "known duplicate source",
			text:     "Debit Card Purchase Alert from First Tech Federal Credit Union. ACCT: Checking TRAN AMT: $180.32",
			expected: KindDuplicate,
		},
		{
			name:     "single alert",
			text:     "Prime Visa: You made a $75.96 transaction with COSTCO WHSE #1696 on Nov 12, 2025 at 7:40 PM ET.",
			expected: KindSingle,
		},
		{
			name:     "unrecognized text is still single",
			text:     "hello there",
			expected: KindSingle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.text, rs))
		})
	}
}

func TestMatchSingle_DefaultRules(t *testing.T) {
	rs := defaultRules(t)

	tests := []struct {
		name   string
		text   string
		kind   OutcomeKind
		rule   string
		amount string
		payee  string
		method string
	}{
		{
			name:   "chase purchase",
			text:   "Prime Visa: You made a $75.96 transaction with COSTCO WHSE #1696 on Nov 12, 2025 at 7:40 PM ET.",
			kind:   Matched,
			rule:   "chase-purchase",
			amount: "75.96",
			payee:  "COSTCO WHSE #1696",
			method: "Chase Card",
		},
		{
			name:   "chase online, phone, or mail",
			text:   "Prime Visa: You made an online, phone, or mail transaction of $75.99 with Amazon.com on Nov 12, 2025 at 7:53 PM ET.",
			kind:   Matched,
			rule:   "chase-card-not-present",
			amount: "75.99",
			payee:  "Amazon.com",
			method: "Chase Card",
		},
		{
			name:   "chase pending credit is negative",
			text:   "Prime Visa: You have a $24.97 pending credit from COSTCO WHSE #0692. More at chase.com",
			kind:   Matched,
			rule:   "chase-pending-credit",
			amount: "-24.97",
			payee:  "COSTCO WHSE #0692",
			method: "Chase Card",
		},
		{
			name:   "capital one charge",
			text:   "Capital One: A chrge or hold for $20.00 on November 16, 2025 was placed on your Savor Credit Card (8385) at ANDALE ANDALE. Std carrier chrges apply",
			kind:   Matched,
			rule:   "capital-one-charge",
			amount: "20.00",
			payee:  "ANDALE ANDALE",
			method: "Savor Card",
		},
		{
			name:   "capital one thousands separator",
			text:   "Capital One: A chrge or hold for $1,141.60 on August 11, 2025 was placed on your Savor Credit Card (8385) at CASA LOLA CORNELIUS.",
			kind:   Matched,
			rule:   "capital-one-charge",
			amount: "1141.60",
			payee:  "CASA LOLA CORNELIUS",
			method: "Savor Card",
		},
		{
			name: "capital one scheduled payment is ignored",
			text: "Capital One Alert: Your payment of $250.00 is scheduled for November 20, 2025.",
			kind: Ignored,
			rule: "capital-one-payment-scheduled",
		},
		{
			name: "capital one payment confirmation is ignored",
			text: "Capital One Alert: You paid $250.00 to your Savor Credit Card ending in 8385 on November 20, 2025.",
			kind: Ignored,
			rule: "capital-one-payment-confirmation",
		},
		{
			name:   "citi in person",
			text:   "Citi Alert: A $43.38 transaction was made at CAMP ABBOT ACE HARDW on card ending in 0569. View details at citi.com/citimobileapp",
			kind:   Matched,
			rule:   "citi-in-person",
			amount: "43.38",
			payee:  "CAMP ABBOT ACE HARDW",
			method: "Citibank Card",
		},
		{
			name:   "citi card not present",
			text:   "Citi Alert: Card ending in 0569 was not present for a $101.54 transaction at THE HOME DEP. View at citi.com/citimobileapp",
			kind:   Matched,
			rule:   "citi-card-not-present",
			amount: "101.54",
			payee:  "THE HOME DEP",
			method: "Citibank Card",
		},
		{
			name: "no rule applies",
			text: "Your statement is ready to view.",
			kind: NoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := MatchSingle(tt.text, rs)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Equal(t, tt.rule, outcome.Rule)
			if tt.kind != Matched {
				return
			}
			assert.Equal(t, tt.amount, ledger.FormatAmount(outcome.Candidate.Amount))
			assert.Equal(t, tt.payee, outcome.Candidate.RawPayee)
			assert.Equal(t, tt.method, outcome.Candidate.PaymentMethod)
		})
	}
}

func overlappingRules(t *testing.T, ignoreFirst bool) *rules.Compiled {
	t.Helper()
	ignore := rules.ExtractionRule{Name: "refund-notice", Pattern: `Refund of \$(\d+\.\d{2})`, Ignore: true}
	generic := rules.ExtractionRule{Name: "generic", Pattern: `\$(\d+\.\d{2}) at (.+)`, PaymentMethod: "Card", AmountGroup: 1, PayeeGroup: 2}

	rs := rules.RuleSet{ExtractionRules: []rules.ExtractionRule{ignore, generic}}
	if !ignoreFirst {
		rs.ExtractionRules = []rules.ExtractionRule{generic, ignore}
	}
	compiled, err := rs.Compile()
	require.NoError(t, err)
	return compiled
}

func TestMatchSingle_FirstRuleWins(t *testing.T) {
	text := "Refund of $10.00 at CORNER SHOP"

	t.Run("earlier ignore rule suppresses later match", func(t *testing.T) {
		outcome, err := MatchSingle(text, overlappingRules(t, true))
		require.NoError(t, err)
		assert.Equal(t, Ignored, outcome.Kind)
		assert.Equal(t, "refund-notice", outcome.Rule)
	})

	t.Run("reordering changes the outcome", func(t *testing.T) {
		outcome, err := MatchSingle(text, overlappingRules(t, false))
		require.NoError(t, err)
		assert.Equal(t, Matched, outcome.Kind)
		assert.Equal(t, "generic", outcome.Rule)
		assert.Equal(t, "CORNER SHOP", outcome.Candidate.RawPayee)
	})
}

func TestMatchSingle_UnparseableAmount(t *testing.T) {
	rs := rules.RuleSet{ExtractionRules: []rules.ExtractionRule{
		{Name: "loose", Pattern: `paid ([\d,]+) to (.+)`, PaymentMethod: "Card", AmountGroup: 1, PayeeGroup: 2},
	}}
	compiled, err := rs.Compile()
	require.NoError(t, err)

	outcome, err := MatchSingle("paid ,,, to SOMEONE", compiled)
	assert.Error(t, err)
	assert.Equal(t, NoMatch, outcome.Kind)
}

func TestLooseAmount(t *testing.T) {
	rs := defaultRules(t)

	amount, ok := LooseAmount("Something odd happened for $1,019.99 today", rs)
	require.True(t, ok)
	assert.Equal(t, "1019.99", ledger.FormatAmount(amount))

	_, ok = LooseAmount("no money here", rs)
	assert.False(t, ok)
}

func TestExcluded(t *testing.T) {
	rs := defaultRules(t)

	tests := []struct {
		payee    string
		expected bool
	}{
		{payee: "CHASE CREDIT CRD - EPAY", expected: true},
		{payee: "ach debit chase credit crd   - epay .", expected: true},
		{payee: "ACH Debit CITI CARD ONLINE - PAYMENT", expected: true},
		{payee: "Capital One - Mobile Pmt", expected: true},
		{payee: "CHASE CREDIT CRD", expected: false},
		{payee: "COSTCO WHSE #1696", expected: false},
		{payee: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.payee, func(t *testing.T) {
			assert.Equal(t, tt.expected, Excluded(tt.payee, rs))
		})
	}
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "batch", KindBatch.String())
	assert.Equal(t, "duplicate", KindDuplicate.String())
	assert.Equal(t, "single", KindSingle.String())
	assert.Equal(t, "ignored", Ignored.String())
	assert.Equal(t, "matched", Matched.String())
	assert.Equal(t, "no_match", NoMatch.String())
}
