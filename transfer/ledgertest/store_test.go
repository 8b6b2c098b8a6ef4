package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bankledger/account"
	"bankledger/transaction"
	"bankledger/transaction/options"
	"bankledger/transfer"
)

func TestStagedWritesInvisibleUntilCommit(t *testing.T) {
	store := New()
	acct := store.AddAccount("ACC-1", "Ana", account.Savings, decimal.NewFromInt(500))

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	_, err = tx.LockAccounts(context.Background(), acct.ID)
	require.NoError(t, err)
	require.NoError(t, tx.UpdateBalance(context.Background(), acct.ID, decimal.NewFromInt(100)))

	_, err = tx.AppendEntry(context.Background(), &transaction.Transaction{
		AccountID: acct.ID,
		Direction: transaction.Debit,
		Amount:    decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	// outside the unit nothing moved yet
	require.True(t, store.Account(acct.ID).Balance.Equal(decimal.NewFromInt(500)))
	require.Empty(t, store.Entries())

	require.NoError(t, tx.Commit())
	require.True(t, store.Account(acct.ID).Balance.Equal(decimal.NewFromInt(100)))
	require.Len(t, store.Entries(), 1)
}

func TestRollbackDropsStagedWrites(t *testing.T) {
	store := New()
	acct := store.AddAccount("ACC-1", "Ana", account.Savings, decimal.NewFromInt(500))

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.LockAccounts(context.Background(), acct.ID)
	require.NoError(t, err)
	require.NoError(t, tx.UpdateBalance(context.Background(), acct.ID, decimal.NewFromInt(0)))
	require.NoError(t, tx.Rollback())

	require.True(t, store.Account(acct.ID).Balance.Equal(decimal.NewFromInt(500)))

	// the released lock is immediately reusable
	tx2, err := store.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx2.LockAccounts(context.Background(), acct.ID)
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback())
}

func TestEntryIDsMonotonicAcrossRollback(t *testing.T) {
	store := New()
	acct := store.AddAccount("ACC-1", "Ana", account.Savings, decimal.NewFromInt(500))

	append1 := func() int64 {
		tx, err := store.Begin(context.Background())
		require.NoError(t, err)
		id, err := tx.AppendEntry(context.Background(), &transaction.Transaction{
			AccountID: acct.ID,
			Direction: transaction.Debit,
			Amount:    decimal.NewFromInt(1),
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		return id
	}

	first := append1()

	// a rolled-back append burns its id, like a sequence
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.AppendEntry(context.Background(), &transaction.Transaction{
		AccountID: acct.ID,
		Direction: transaction.Debit,
		Amount:    decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	second := append1()
	require.Greater(t, second, first)
}

func TestRecentDebitsSeesOwnStagedEntries(t *testing.T) {
	store := New()
	acct := store.AddAccount("ACC-1", "Ana", account.Savings, decimal.NewFromInt(500))
	now := time.Now().UTC()

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.AppendEntry(context.Background(), &transaction.Transaction{
		AccountID: acct.ID,
		Direction: transaction.Debit,
		Amount:    decimal.NewFromInt(60000),
		CreatedAt: now,
	})
	require.NoError(t, err)

	window := options.NewDebitWindow().
		SetAmountFloor(decimal.NewFromInt(50000)).
		SetTrailing(now, time.Hour)
	got, err := tx.RecentDebits(context.Background(), acct.ID, window)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, tx.Rollback())
}

func TestRecentDebitsOrderedByID(t *testing.T) {
	store := New()
	acct := store.AddAccount("ACC-1", "Ana", account.Savings, decimal.NewFromInt(500))
	now := time.Now().UTC()

	appendEntry := func(tx transfer.Tx) int64 {
		id, err := tx.AppendEntry(context.Background(), &transaction.Transaction{
			AccountID: acct.ID,
			Direction: transaction.Debit,
			Amount:    decimal.NewFromInt(60000),
			CreatedAt: now,
		})
		require.NoError(t, err)
		return id
	}

	// interleave two units so commit order disagrees with id order
	tx1, err := store.Begin(context.Background())
	require.NoError(t, err)
	first := appendEntry(tx1)

	tx2, err := store.Begin(context.Background())
	require.NoError(t, err)
	second := appendEntry(tx2)
	require.NoError(t, tx2.Commit())

	third := appendEntry(tx1)
	require.NoError(t, tx1.Commit())

	tx3, err := store.Begin(context.Background())
	require.NoError(t, err)
	window := options.NewDebitWindow().SetTrailing(now, time.Hour)
	got, err := tx3.RecentDebits(context.Background(), acct.ID, window)
	require.NoError(t, err)
	require.NoError(t, tx3.Rollback())

	require.Len(t, got, 3)
	require.Equal(t, []int64{first, second, third}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestRecentDebitsAppliesWindow(t *testing.T) {
	store := New()
	acct := store.AddAccount("ACC-1", "Ana", account.Savings, decimal.NewFromInt(500))
	now := time.Now().UTC()

	seed := []*transaction.Transaction{
		{AccountID: acct.ID, Direction: transaction.Debit, Amount: decimal.NewFromInt(60000), CreatedAt: now.Add(-30 * time.Minute)},
		{AccountID: acct.ID, Direction: transaction.Debit, Amount: decimal.NewFromInt(60000), CreatedAt: now.Add(-2 * time.Hour)},  // outside time window
		{AccountID: acct.ID, Direction: transaction.Debit, Amount: decimal.NewFromInt(100), CreatedAt: now.Add(-10 * time.Minute)}, // below amount floor
		{AccountID: acct.ID, Direction: transaction.Credit, Amount: decimal.NewFromInt(60000), CreatedAt: now.Add(-10 * time.Minute)},
	}
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	for _, e := range seed {
		_, err := tx.AppendEntry(context.Background(), e)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	tx2, err := store.Begin(context.Background())
	require.NoError(t, err)
	window := options.NewDebitWindow().
		SetAmountFloor(decimal.NewFromInt(50000)).
		SetTrailing(now, time.Hour)
	got, err := tx2.RecentDebits(context.Background(), acct.ID, window)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Amount.Equal(decimal.NewFromInt(60000)))
	require.NoError(t, tx2.Rollback())
}
