package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bankledger/account"
	"bankledger/fraud"
	"bankledger/transaction"
	"bankledger/transaction/options"
	"bankledger/transfer"
)

var _ transfer.Store = (*Store)(nil)

// lock_not_available, raised when lock_timeout expires
const pgLockNotAvailable = "55P03"

// Store implements the ledger store contracts on Postgres. Row locks come
// from SELECT ... FOR UPDATE issued in the caller's canonical id order, with
// lock_timeout bounding the wait per unit of work.
type Store struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewStore(db *sqlx.DB, lockTimeout time.Duration) *Store {
	return &Store{db: db, lockTimeout: lockTimeout}
}

func (s *Store) ResolveNumber(ctx context.Context, number string) (*account.Account, error) {
	var a account.Account
	err := s.db.GetContext(ctx, &a, "SELECT * FROM accounts WHERE number = $1", number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transfer.ErrAccountNotFound
	}
	if err != nil {
		return nil, &transfer.StorageError{Op: "resolve account number", Err: err}
	}
	return &a, nil
}

func (s *Store) Begin(ctx context.Context) (transfer.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &transfer.StorageError{Op: "begin", Err: err}
	}

	if s.lockTimeout > 0 {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds()))
		if err != nil {
			_ = tx.Rollback()
			return nil, &transfer.StorageError{Op: "set lock timeout", Err: err}
		}
	}

	return &pgTx{tx: tx}, nil
}

var _ transfer.Tx = (*pgTx)(nil)

type pgTx struct {
	tx *sqlx.Tx
}

func (p *pgTx) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	rows := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		var a account.Account
		err := p.tx.GetContext(ctx, &a, "SELECT * FROM accounts WHERE id = $1 FOR UPDATE", id)
		if errors.Is(err, sql.ErrNoRows) {
			// the row vanished since the pre-lock read; absent from the map
			continue
		}
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pgLockNotAvailable {
				return nil, transfer.ErrLockTimeout
			}
			return nil, &transfer.StorageError{Op: "lock account", Err: err}
		}
		rows[id] = &a
	}
	return rows, nil
}

func (p *pgTx) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	_, err := p.tx.ExecContext(ctx,
		"UPDATE accounts SET balance = $2, updated_at = now() WHERE id = $1", id, balance)
	if err != nil {
		return &transfer.StorageError{Op: "update balance", Err: err}
	}
	return nil
}

func (p *pgTx) AppendEntry(ctx context.Context, t *transaction.Transaction) (int64, error) {
	rows, err := sqlx.NamedQueryContext(ctx, p.tx,
		`INSERT INTO transactions (account_id, direction, amount, counterparty_id, created_at, description, actor)
		VALUES (:account_id, :direction, :amount, :counterparty_id, :created_at, :description, :actor)
		RETURNING id`,
		t,
	)
	if err != nil {
		return 0, &transfer.StorageError{Op: "append entry", Err: err}
	}
	defer rows.Close()

	var id int64
	if !rows.Next() {
		return 0, &transfer.StorageError{Op: "append entry", Err: sql.ErrNoRows}
	}
	if err := rows.Scan(&id); err != nil {
		return 0, &transfer.StorageError{Op: "append entry", Err: err}
	}
	return id, nil
}

// Executes the recent-debit window query for one account.
// The window's ranges become inclusive bound clauses the same way for
// either bound of either range.
func (p *pgTx) RecentDebits(ctx context.Context, accountID uuid.UUID, w *options.DebitWindow) ([]*transaction.Transaction, error) {
	// build query
	query := "SELECT * FROM transactions"
	where := []string{"account_id = :account_id", "direction = :direction"}
	namedParams := map[string]interface{}{
		"account_id": accountID,
		"direction":  transaction.Debit,
	}

	filters := make(map[string]options.Range)
	if w != nil && w.Amount != nil {
		filters["amount"] = w.Amount
	}
	if w != nil && w.Timestamp != nil {
		filters["created_at"] = w.Timestamp
	}

	for columnName, r := range filters {
		from, ok := r.From()
		if ok {
			key := columnName + "_from"
			where = append(where, fmt.Sprintf("%s >= :%s", columnName, key))
			namedParams[key] = from
		}
		to, ok := r.To()
		if ok {
			key := columnName + "_to"
			where = append(where, fmt.Sprintf("%s <= :%s", columnName, key))
			namedParams[key] = to
		}
	}

	query = fmt.Sprintf("%s WHERE %s ORDER BY id",
		query,
		strings.Join(where, " AND "),
	)

	query, args, err := sqlx.Named(query, namedParams)
	if err != nil {
		return nil, &transfer.StorageError{Op: "recent debits", Err: err}
	}
	query = p.tx.Rebind(query)

	var result []*transaction.Transaction
	err = p.tx.SelectContext(ctx, &result, query, args...)
	if err != nil {
		return nil, &transfer.StorageError{Op: "recent debits", Err: err}
	}
	return result, nil
}

func (p *pgTx) SaveAlert(ctx context.Context, a *fraud.Alert) error {
	_, err := sqlx.NamedExecContext(ctx, p.tx,
		`INSERT INTO fraud_alerts (account_id, transaction_id, type, message)
		VALUES (:account_id, :transaction_id, :type, :message)`,
		a,
	)
	if err != nil {
		return &transfer.StorageError{Op: "save alert", Err: err}
	}
	return nil
}

func (p *pgTx) Commit() error {
	if err := p.tx.Commit(); err != nil {
		return &transfer.StorageError{Op: "commit", Err: err}
	}
	return nil
}

func (p *pgTx) Rollback() error {
	return p.tx.Rollback()
}
