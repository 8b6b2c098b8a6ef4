package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a transfer attempt
type Status string

const (
	Success Status = "SUCCESS"
	Failed  Status = "FAILED"
)

// Record is the durable evidence of one transfer attempt. Exactly one record
// exists per attempt, written for successes and failures alike; a party that
// never resolved is recorded as uuid.Nil.
type Record struct {
	ID            uuid.UUID       `db:"id"`
	SourceID      uuid.UUID       `db:"source_id"`
	DestinationID uuid.UUID       `db:"destination_id"`
	Amount        decimal.Decimal `db:"amount"`
	CreatedAt     time.Time       `db:"created_at"`
	Status        Status          `db:"status"`
	Message       string          `db:"message"`
}

// Trail is the append-only store of transfer outcomes. It lives outside the
// ledger's unit of work so that records of failed attempts survive rollback.
type Trail interface {
	Append(ctx context.Context, r *Record) error
}
