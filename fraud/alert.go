package fraud

import (
	"time"

	"github.com/google/uuid"
)

// AlertType enumerates the deterministic rules that can raise an alert
type AlertType string

const (
	HighValueTxn      AlertType = "HIGH_VALUE_TXN"
	MultiMediumDebits AlertType = "MULTI_MEDIUM_DEBITS"
)

// Alert is a flagged condition on an account. Alerts are advisory and
// never block the transfer that raised them.
type Alert struct {
	// assigned by the store when the alert is persisted
	ID        uuid.UUID `db:"id"`
	AccountID uuid.UUID `db:"account_id"`
	// the entry that tripped the rule, if any
	TransactionID *int64    `db:"transaction_id"`
	Type          AlertType `db:"type"`
	Message       string    `db:"message"`
	CreatedAt     time.Time `db:"created_at"`
	Resolved      bool      `db:"resolved"`
}
