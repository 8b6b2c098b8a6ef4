package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction of a ledger entry relative to its owning account
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

// Transaction is one append-only ledger entry. Entries are immutable once
// appended; corrections are new offsetting entries, never edits.
type Transaction struct {
	// assigned at append time, monotonically increasing
	ID        int64           `db:"id"`
	AccountID uuid.UUID       `db:"account_id"`
	Direction Direction       `db:"direction"`
	Amount    decimal.Decimal `db:"amount"`
	// the other party of a transfer, unset for standalone entries
	Counterparty uuid.NullUUID `db:"counterparty_id"`
	CreatedAt    time.Time     `db:"created_at"`
	Description  string        `db:"description"`
	Actor        string        `db:"actor"`
}
