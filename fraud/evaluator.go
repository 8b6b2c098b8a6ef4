package fraud

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bankledger/transaction"
)

// number of qualifying debits inside the window that trips the velocity rule
const velocityCount = 3

// Rules holds the deterministic fraud thresholds. All comparisons are
// inclusive: an amount exactly at a threshold trips the rule.
type Rules struct {
	HighValueThreshold decimal.Decimal
	MediumThreshold    decimal.Decimal
	Window             time.Duration
}

// DefaultRules returns the standard production thresholds
func DefaultRules() Rules {
	return Rules{
		HighValueThreshold: decimal.NewFromInt(250000),
		MediumThreshold:    decimal.NewFromInt(50000),
		Window:             60 * time.Minute,
	}
}

// Evaluate runs every rule against one newly appended ledger entry and
// returns the alerts raised. history holds the owning account's recent DEBIT
// entries; it may or may not already contain txn itself, which is counted
// either way. Evaluate is pure: persistence of the returned alerts is the
// caller's responsibility, and re-evaluating the same inputs yields the
// same alerts.
func (r Rules) Evaluate(txn *transaction.Transaction, history []*transaction.Transaction) []*Alert {
	var alerts []*Alert

	if txn.Amount.GreaterThanOrEqual(r.HighValueThreshold) {
		id := txn.ID
		alerts = append(alerts, &Alert{
			AccountID:     txn.AccountID,
			TransactionID: &id,
			Type:          HighValueTxn,
			Message: fmt.Sprintf("amount %s at or above high-value threshold %s",
				txn.Amount, r.HighValueThreshold),
		})
	}

	if a := r.velocity(txn, history); a != nil {
		alerts = append(alerts, a)
	}

	return alerts
}

// velocity counts the account's medium-or-larger debits inside the trailing
// window [txn.CreatedAt-Window, txn.CreatedAt], both ends inclusive, and
// raises at most one alert for the account per evaluation.
func (r Rules) velocity(txn *transaction.Transaction, history []*transaction.Transaction) *Alert {
	if txn.Direction != transaction.Debit || txn.Amount.LessThan(r.MediumThreshold) {
		return nil
	}

	since := txn.CreatedAt.Add(-r.Window)
	count := 0
	sawSelf := false
	for _, t := range history {
		if t.AccountID != txn.AccountID || t.Direction != transaction.Debit {
			continue
		}
		if t.Amount.LessThan(r.MediumThreshold) {
			continue
		}
		if t.CreatedAt.Before(since) || t.CreatedAt.After(txn.CreatedAt) {
			continue
		}
		if t.ID == txn.ID {
			sawSelf = true
		}
		count++
	}
	if !sawSelf {
		count++
	}

	if count < velocityCount {
		return nil
	}

	id := txn.ID
	return &Alert{
		AccountID:     txn.AccountID,
		TransactionID: &id,
		Type:          MultiMediumDebits,
		Message: fmt.Sprintf("%d debits of %s or more within %s",
			count, r.MediumThreshold, r.Window),
	}
}
