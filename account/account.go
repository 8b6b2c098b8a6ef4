package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported account products
type Type string

const (
	Savings Type = "SAVINGS"
	Current Type = "CURRENT"
)

// Account holds the balance and status of a single account row.
// The balance is never negative while the account is active and is
// mutated only by the transfer orchestrator under a row lock.
type Account struct {
	ID uuid.UUID `db:"id"`
	// external account number, unique and immutable
	Number    string          `db:"number"`
	Holder    string          `db:"holder"`
	Type      Type            `db:"type"`
	Balance   decimal.Decimal `db:"balance"`
	Active    bool            `db:"active"`
	UpdatedAt time.Time       `db:"updated_at"`
}
