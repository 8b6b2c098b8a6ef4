// Package ledgertest provides an in-memory implementation of the ledger
// store and audit trail contracts. It honors the same locking and
// all-or-nothing semantics as the durable store, which makes the transfer
// orchestrator testable without a database.
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankledger/account"
	"bankledger/audit"
	"bankledger/fraud"
	"bankledger/transaction"
	"bankledger/transfer"
)

var (
	_ transfer.Store = (*Store)(nil)
	_ audit.Trail    = (*Store)(nil)
)

// Store keeps the whole ledger in memory behind one mutex, with a binary
// semaphore per account standing in for a row lock.
type Store struct {
	// maximum wait for one account lock
	LockTimeout time.Duration

	// fault injection: when set, the corresponding operation fails with
	// the given error
	FailUpdate error
	FailAppend error
	FailAlert  error
	FailAudit  error

	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
	byNumber map[string]uuid.UUID
	entries  []*transaction.Transaction
	alerts   []*fraud.Alert
	records  []*audit.Record
	locks    map[uuid.UUID]chan struct{}
	nextID   int64
}

func New() *Store {
	return &Store{
		LockTimeout: 3 * time.Second,
		accounts:    make(map[uuid.UUID]*account.Account),
		byNumber:    make(map[string]uuid.UUID),
		locks:       make(map[uuid.UUID]chan struct{}),
	}
}

// AddAccount creates an active account with the given balance and returns a
// snapshot of it
func (s *Store) AddAccount(number, holder string, typ account.Type, balance decimal.Decimal) *account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &account.Account{
		ID:        uuid.New(),
		Number:    number,
		Holder:    holder,
		Type:      typ,
		Balance:   balance,
		Active:    true,
		UpdatedAt: time.Now().UTC(),
	}
	s.accounts[a.ID] = a
	s.byNumber[number] = a.ID
	cp := *a
	return &cp
}

// Deactivate soft-deletes an account
func (s *Store) Deactivate(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		a.Active = false
	}
}

// Account returns a snapshot of the account row
func (s *Store) Account(id uuid.UUID) *account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Entries returns a snapshot of the committed transaction log
func (s *Store) Entries() []*transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(s.entries))
	for _, t := range s.entries {
		cp := *t
		out = append(out, &cp)
	}
	return out
}

// Alerts returns a snapshot of the persisted fraud alerts
func (s *Store) Alerts() []*fraud.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*fraud.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// Records returns a snapshot of the audit trail
func (s *Store) Records() []*audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*audit.Record, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

func (s *Store) ResolveNumber(ctx context.Context, number string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byNumber[number]
	if !ok {
		return nil, transfer.ErrAccountNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *Store) Begin(ctx context.Context) (transfer.Tx, error) {
	return &memTx{
		store:    s,
		balances: make(map[uuid.UUID]decimal.Decimal),
	}, nil
}

// Append implements audit.Trail. The trail sits outside the unit of work,
// so records of failed attempts survive rollback.
func (s *Store) Append(ctx context.Context, r *audit.Record) error {
	if s.FailAudit != nil {
		return &transfer.StorageError{Op: "append audit record", Err: s.FailAudit}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.ID = uuid.New()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, &cp)
	return nil
}

// sem returns the account's binary semaphore, creating it on first use.
// Semaphores exist independently of account rows so locking a vanished id
// still succeeds and the missing row surfaces from the locked read instead.
func (s *Store) sem(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

func (s *Store) acquire(ctx context.Context, id uuid.UUID) error {
	select {
	case s.sem(id) <- struct{}{}:
		return nil
	case <-time.After(s.LockTimeout):
		return transfer.ErrLockTimeout
	case <-ctx.Done():
		return &transfer.StorageError{Op: "acquire lock", Err: ctx.Err()}
	}
}

func (s *Store) release(id uuid.UUID) {
	<-s.sem(id)
}
