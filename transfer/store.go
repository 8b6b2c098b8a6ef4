package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/account"
	"bankledger/fraud"
	"bankledger/transaction"
	"bankledger/transaction/options"
)

// Store is the durable ledger the orchestrator writes through. The core
// depends only on this contract, never on a storage implementation.
type Store interface {
	// ResolveNumber maps an external account number to its account row.
	// The result is advisory: authoritative state is always re-read under
	// lock before any decision that mutates it. Returns ErrAccountNotFound
	// when no such number exists.
	ResolveNumber(ctx context.Context, number string) (*account.Account, error)
	// Begin opens one atomic unit of work over the ledger.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one all-or-nothing unit of work. Exactly one of Commit or Rollback
// must be called; until Commit returns nil, no write is observable outside
// the unit.
type Tx interface {
	// LockAccounts acquires exclusive row locks on ids, which must already be
	// sorted in canonical ascending order, and returns the authoritative rows
	// read under those locks, keyed by id. Ids that no longer resolve are
	// absent from the map. Blocks up to the store's lock timeout, then fails
	// with ErrLockTimeout.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error)
	// UpdateBalance writes an absolute balance for a locked account row.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	// AppendEntry appends one entry to the transaction log and returns the
	// assigned monotonically increasing id.
	AppendEntry(ctx context.Context, t *transaction.Transaction) (int64, error)
	// RecentDebits returns the account's DEBIT entries matching the window,
	// including entries appended earlier in this same unit of work, ordered
	// by id.
	RecentDebits(ctx context.Context, accountID uuid.UUID, w *options.DebitWindow) ([]*transaction.Transaction, error)
	// SaveAlert persists one fraud alert inside the unit of work.
	SaveAlert(ctx context.Context, a *fraud.Alert) error

	Commit() error
	Rollback() error
}
