package fraud

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bankledger/transaction"
)

func entry(id int64, acct uuid.UUID, dir transaction.Direction, amount int64, at time.Time) *transaction.Transaction {
	return &transaction.Transaction{
		ID:        id,
		AccountID: acct,
		Direction: dir,
		Amount:    decimal.NewFromInt(amount),
		CreatedAt: at,
	}
}

func TestHighValueRule(t *testing.T) {
	rules := DefaultRules()
	acct := uuid.New()
	now := time.Now().UTC()

	cases := []struct {
		name   string
		amount string
		dir    transaction.Direction
		want   int
	}{
		{"below threshold", "249999.99", transaction.Debit, 0},
		{"exactly at threshold", "250000", transaction.Debit, 1},
		{"above threshold", "300000", transaction.Debit, 1},
		{"credit side fires too", "250000", transaction.Credit, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			require.NoError(t, err)

			txn := &transaction.Transaction{
				ID:        1,
				AccountID: acct,
				Direction: tc.dir,
				Amount:    amount,
				CreatedAt: now,
			}
			alerts := rules.Evaluate(txn, nil)

			var got []*Alert
			for _, a := range alerts {
				if a.Type == HighValueTxn {
					got = append(got, a)
				}
			}
			require.Len(t, got, tc.want)
			if tc.want > 0 {
				require.Equal(t, acct, got[0].AccountID)
				require.NotNil(t, got[0].TransactionID)
				require.Equal(t, txn.ID, *got[0].TransactionID)
			}
		})
	}
}

func TestVelocityRule(t *testing.T) {
	rules := DefaultRules()
	acct := uuid.New()
	now := time.Now().UTC()

	velocityAlerts := func(txn *transaction.Transaction, history []*transaction.Transaction) []*Alert {
		var out []*Alert
		for _, a := range rules.Evaluate(txn, history) {
			if a.Type == MultiMediumDebits {
				out = append(out, a)
			}
		}
		return out
	}

	t.Run("three medium debits in window", func(t *testing.T) {
		txn := entry(3, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-10*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
			txn,
		}
		alerts := velocityAlerts(txn, history)
		require.Len(t, alerts, 1)
		require.Equal(t, acct, alerts[0].AccountID)
	})

	t.Run("triggering debit counted when absent from history", func(t *testing.T) {
		txn := entry(3, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-10*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
		}
		require.Len(t, velocityAlerts(txn, history), 1)
	})

	t.Run("two debits do not trip", func(t *testing.T) {
		txn := entry(2, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-10*time.Minute)),
			txn,
		}
		require.Empty(t, velocityAlerts(txn, history))
	})

	t.Run("debit outside window not counted", func(t *testing.T) {
		txn := entry(3, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-61*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
			txn,
		}
		require.Empty(t, velocityAlerts(txn, history))
	})

	t.Run("debit exactly at window edge counted", func(t *testing.T) {
		txn := entry(3, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-60*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
			txn,
		}
		require.Len(t, velocityAlerts(txn, history), 1)
	})

	t.Run("below-medium debits not counted", func(t *testing.T) {
		txn := entry(3, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 49999, now.Add(-10*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
			txn,
		}
		require.Empty(t, velocityAlerts(txn, history))
	})

	t.Run("credit never trips velocity", func(t *testing.T) {
		txn := entry(3, acct, transaction.Credit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-10*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
		}
		require.Empty(t, velocityAlerts(txn, history))
	})

	t.Run("other accounts not counted", func(t *testing.T) {
		other := uuid.New()
		txn := entry(3, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, other, transaction.Debit, 60000, now.Add(-10*time.Minute)),
			entry(2, other, transaction.Debit, 60000, now.Add(-5*time.Minute)),
			txn,
		}
		require.Empty(t, velocityAlerts(txn, history))
	})

	t.Run("one alert per account per evaluation", func(t *testing.T) {
		txn := entry(4, acct, transaction.Debit, 60000, now)
		history := []*transaction.Transaction{
			entry(1, acct, transaction.Debit, 60000, now.Add(-15*time.Minute)),
			entry(2, acct, transaction.Debit, 60000, now.Add(-10*time.Minute)),
			entry(3, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
			txn,
		}
		require.Len(t, velocityAlerts(txn, history), 1)
	})
}

func TestEvaluateIsIdempotent(t *testing.T) {
	rules := DefaultRules()
	acct := uuid.New()
	now := time.Now().UTC()

	txn := entry(3, acct, transaction.Debit, 300000, now)
	history := []*transaction.Transaction{
		entry(1, acct, transaction.Debit, 60000, now.Add(-10*time.Minute)),
		entry(2, acct, transaction.Debit, 60000, now.Add(-5*time.Minute)),
		txn,
	}

	first := rules.Evaluate(txn, history)
	second := rules.Evaluate(txn, history)
	require.Equal(t, first, second)
	require.Len(t, first, 2) // high value + velocity
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.True(t, rules.HighValueThreshold.Equal(decimal.NewFromInt(250000)))
	require.True(t, rules.MediumThreshold.Equal(decimal.NewFromInt(50000)))
	require.Equal(t, 60*time.Minute, rules.Window)
}
