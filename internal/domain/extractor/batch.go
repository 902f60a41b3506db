package extractor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/alertledger/internal/domain/ledger"
	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

// Block is one parsed transaction block of a batch alert.
type Block struct {
	Index          int // position among all delimiter-separated segments
	Amount         decimal.Decimal
	RawDescription string // as captured, trailing period removed
	Description    string // cleaned, used for enrichment
	Date           string
	PaymentMethod  string
}

// SkippedBlock records a segment that did not yield a transaction.
type SkippedBlock struct {
	Index  int
	Reason string
}

// SplitBatch partitions a batch alert into blocks. Text before the first
// delimiter is the alert header and is discarded. Segments that fail the block
// pattern are reported as skipped; they never abort the rest of the batch.
func SplitBatch(text string, rs *rules.Compiled) ([]Block, []SkippedBlock) {
	b := rs.Batch
	if b.Block == nil {
		return nil, nil
	}

	segments := strings.Split(text, b.Delimiter)
	if len(segments) < 2 {
		return nil, nil
	}

	var blocks []Block
	var skipped []SkippedBlock
	for i, segment := range segments[1:] {
		block, reason := parseBlock(segment, b)
		if reason != "" {
			skipped = append(skipped, SkippedBlock{Index: i, Reason: reason})
			continue
		}
		block.Index = i
		blocks = append(blocks, block)
	}
	return blocks, skipped
}

func parseBlock(segment string, b rules.CompiledBatch) (Block, string) {
	m := b.Block.FindStringSubmatch(segment)
	if m == nil {
		return Block{}, "no match"
	}

	amount, err := ledger.ParseAmount(m[1])
	if err != nil {
		return Block{}, err.Error()
	}

	date, err := ledger.DateFromParts(m[3], m[4], m[5])
	if err != nil {
		return Block{}, err.Error()
	}

	raw := strings.TrimSpace(m[2])
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "."))
	description := CleanDescription(m[2], b.Strip)

	method := b.DefaultMethod
	if b.PeerMarker != "" && strings.Contains(rules.NormalizeMarker(description), b.PeerMarker) {
		method = b.PeerMethod
	}

	return Block{
		Amount:         amount,
		RawDescription: raw,
		Description:    description,
		Date:           date,
		PaymentMethod:  method,
	}, ""
}

// CleanDescription applies the strip patterns in order and collapses whitespace.
func CleanDescription(raw string, strip []*regexp.Regexp) string {
	s := strings.TrimSpace(raw)
	for _, re := range strip {
		s = strings.TrimSpace(re.ReplaceAllString(s, ""))
	}
	return strings.Join(strings.Fields(s), " ")
}
