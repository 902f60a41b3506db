package ledger

import (
	"encoding/json"
	"fmt"
)

// RowVersion identifies the column contract of OutputRow. Bump it whenever
// columns are added or reordered.
const RowVersion = 1

// RowWidth is the number of columns in an output row.
const RowWidth = 10

// OutputRow is the positional row appended to the ledger:
//
//	[date, payee, description, category, amount, payment method, business, shared, reserved, reserved]
//
// It encodes to JSON as an array.
type OutputRow struct {
	Date          string
	Payee         string
	Description   string
	Category      string
	Amount        string
	PaymentMethod string
	Business      bool
	Shared        bool
}

// NewRow maps a record to its output row.
func NewRow(r TransactionRecord) OutputRow {
	return OutputRow{
		Date:          r.Date,
		Payee:         r.CanonicalPayee,
		Description:   r.Description,
		Category:      r.Category,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Business:      r.Business,
		Shared:        r.Shared,
	}
}

// Values returns the row in column order.
func (o OutputRow) Values() []any {
	return []any{o.Date, o.Payee, o.Description, o.Category, o.Amount, o.PaymentMethod, o.Business, o.Shared, "", ""}
}

// MarshalJSON encodes the row as a fixed-width array.
func (o OutputRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Values())
}

// UnmarshalJSON decodes a fixed-width array.
func (o *OutputRow) UnmarshalJSON(data []byte) error {
	var cols []json.RawMessage
	if err := json.Unmarshal(data, &cols); err != nil {
		return err
	}
	if len(cols) != RowWidth {
		return fmt.Errorf("output row has %d columns, want %d", len(cols), RowWidth)
	}

	strs := []*string{&o.Date, &o.Payee, &o.Description, &o.Category, &o.Amount, &o.PaymentMethod}
	for i, dst := range strs {
		if err := json.Unmarshal(cols[i], dst); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	if err := json.Unmarshal(cols[6], &o.Business); err != nil {
		return fmt.Errorf("column 6: %w", err)
	}
	if err := json.Unmarshal(cols[7], &o.Shared); err != nil {
		return fmt.Errorf("column 7: %w", err)
	}
	return nil
}

// BuildRows groups records into per-channel row lists, preserving order.
// Records without an account target go to defaultChannel.
func BuildRows(records []TransactionRecord, defaultChannel string) map[string][]OutputRow {
	out := make(map[string][]OutputRow)
	for _, r := range records {
		channel := r.AccountTarget
		if channel == "" {
			channel = defaultChannel
		}
		out[channel] = append(out[channel], NewRow(r))
	}
	return out
}
