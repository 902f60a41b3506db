// Package ledger holds the transaction record produced by the alert pipeline
// and the fixed row shape appended to the household ledger.
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the MM/DD/YYYY format every record date uses.
const DateLayout = "01/02/2006"

// TransactionRecord is one normalized transaction.
type TransactionRecord struct {
	Date           string `json:"date"`
	Amount         string `json:"amount"`
	CanonicalPayee string `json:"canonical_payee"`
	RawPayee       string `json:"raw_payee"`
	PaymentMethod  string `json:"payment_method"`
	Category       string `json:"category"`
	Business       bool   `json:"business"`
	Shared         bool   `json:"shared"`
	Description    string `json:"description"`
	AccountTarget  string `json:"account_target,omitempty"`
}

// DedupKey is the composite identity used to suppress repeat alerts.
func (r TransactionRecord) DedupKey() string {
	return strings.Join([]string{r.Amount, r.CanonicalPayee, r.Date, r.PaymentMethod}, "|")
}

// ParseAmount parses a captured currency amount such as "1,234.56" or "$9.26".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two fraction digits. Negative
// amounts keep their sign.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate renders t as MM/DD/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// DateFromParts assembles MM/DD/YYYY from a month name ("Nov" or "November"),
// a day and a four digit year.
func DateFromParts(monthName, day, year string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(monthName))
	if len(name) < 3 {
		return "", fmt.Errorf("unknown month %q", monthName)
	}
	month, ok := months[name[:3]]
	if !ok {
		return "", fmt.Errorf("unknown month %q", monthName)
	}

	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", day, err)
	}

	date := fmt.Sprintf("%s/%02d/%s", month, d, strings.TrimSpace(year))
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return date, nil
}

// Deduper remembers the keys seen during one run.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper creates an empty key set.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Add records the key and reports whether it was new.
func (d *Deduper) Add(key string) bool {
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}
