package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bankledger/audit"
	"bankledger/transfer"
)

var _ audit.Trail = (*Trail)(nil)

// Trail is the append-only store of transfer outcomes. It writes through the
// pool rather than any unit of work, so records of failed attempts are not
// swept away by the rollback they describe.
type Trail struct {
	db *sqlx.DB
}

func NewTrail(db *sqlx.DB) *Trail {
	return &Trail{db: db}
}

func (t *Trail) Append(ctx context.Context, r *audit.Record) error {
	_, err := sqlx.NamedExecContext(ctx, t.db,
		`INSERT INTO transfer_records (source_id, destination_id, amount, status, message)
		VALUES (:source_id, :destination_id, :amount, :status, :message)`,
		r,
	)
	if err != nil {
		return &transfer.StorageError{Op: "append audit record", Err: err}
	}
	return nil
}
