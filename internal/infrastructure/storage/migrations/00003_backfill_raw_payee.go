// Package migrations registers the Go migrations that run alongside the
// embedded SQL files.
package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upBackfillRawPayee, downBackfillRawPayee)
}

// upBackfillRawPayee fills raw_payee for rows written before the column
// existed. The canonical payee is the best value available for them.
func upBackfillRawPayee(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE ledger_rows SET raw_payee = payee
		WHERE raw_payee = ''
	`)
	return err
}

// downBackfillRawPayee is a no-op; the column is dropped by the previous migration's down step.
func downBackfillRawPayee(ctx context.Context, tx *sql.Tx) error {
	return nil
}
