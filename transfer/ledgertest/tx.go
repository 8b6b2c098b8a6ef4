package ledgertest

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/account"
	"bankledger/fraud"
	"bankledger/transaction"
	"bankledger/transaction/options"
	"bankledger/transfer"
)

var _ transfer.Tx = (*memTx)(nil)

var errTxDone = errors.New("transaction already finished")

// memTx stages every write and applies the whole set on Commit, so nothing
// is observable outside the unit until then.
type memTx struct {
	store  *Store
	locked []uuid.UUID
	done   bool

	balances map[uuid.UUID]decimal.Decimal
	entries  []*transaction.Transaction
	alerts   []*fraud.Alert
}

func (tx *memTx) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	if tx.done {
		return nil, errTxDone
	}
	for _, id := range ids {
		if err := tx.store.acquire(ctx, id); err != nil {
			for _, held := range tx.locked {
				tx.store.release(held)
			}
			tx.locked = nil
			return nil, err
		}
		tx.locked = append(tx.locked, id)
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	rows := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		if a, ok := tx.store.accounts[id]; ok {
			cp := *a
			rows[id] = &cp
		}
	}
	return rows, nil
}

func (tx *memTx) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if tx.done {
		return errTxDone
	}
	if err := tx.store.FailUpdate; err != nil {
		return &transfer.StorageError{Op: "update balance", Err: err}
	}
	tx.balances[id] = balance
	return nil
}

func (tx *memTx) AppendEntry(ctx context.Context, t *transaction.Transaction) (int64, error) {
	if tx.done {
		return 0, errTxDone
	}
	if err := tx.store.FailAppend; err != nil {
		return 0, &transfer.StorageError{Op: "append entry", Err: err}
	}

	// ids come from the shared sequence even when the unit later rolls
	// back; gaps are fine, monotonicity is what matters
	tx.store.mu.Lock()
	tx.store.nextID++
	id := tx.store.nextID
	tx.store.mu.Unlock()

	cp := *t
	cp.ID = id
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	tx.entries = append(tx.entries, &cp)
	return id, nil
}

// RecentDebits sees the committed log plus this unit's own staged entries,
// giving the rule evaluator a consistent ordered view.
func (tx *memTx) RecentDebits(ctx context.Context, accountID uuid.UUID, w *options.DebitWindow) ([]*transaction.Transaction, error) {
	if tx.done {
		return nil, errTxDone
	}

	tx.store.mu.Lock()
	committed := make([]*transaction.Transaction, len(tx.store.entries))
	copy(committed, tx.store.entries)
	tx.store.mu.Unlock()

	var out []*transaction.Transaction
	for _, t := range append(committed, tx.entries...) {
		if t.AccountID != accountID || t.Direction != transaction.Debit {
			continue
		}
		if w != nil && w.Amount != nil && !w.Amount.Contains(t.Amount) {
			continue
		}
		if w != nil && w.Timestamp != nil && !w.Timestamp.Contains(t.CreatedAt) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	// commit order can interleave ids across concurrent units; the
	// contract promises id order
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) SaveAlert(ctx context.Context, a *fraud.Alert) error {
	if tx.done {
		return errTxDone
	}
	if err := tx.store.FailAlert; err != nil {
		return &transfer.StorageError{Op: "save alert", Err: err}
	}
	cp := *a
	tx.alerts = append(tx.alerts, &cp)
	return nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return errTxDone
	}
	tx.done = true

	tx.store.mu.Lock()
	now := time.Now().UTC()
	for id, balance := range tx.balances {
		if a, ok := tx.store.accounts[id]; ok {
			a.Balance = balance
			a.UpdatedAt = now
		}
	}
	tx.store.entries = append(tx.store.entries, tx.entries...)
	for _, a := range tx.alerts {
		a.ID = uuid.New()
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		tx.store.alerts = append(tx.store.alerts, a)
	}
	tx.store.mu.Unlock()

	tx.releaseLocks()
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return errTxDone
	}
	tx.done = true
	tx.releaseLocks()
	return nil
}

func (tx *memTx) releaseLocks() {
	for _, id := range tx.locked {
		tx.store.release(id)
	}
	tx.locked = nil
}
