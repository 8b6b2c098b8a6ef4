package transfer

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bankledger/audit"
	"bankledger/fraud"
	"bankledger/transaction"
	"bankledger/transaction/options"
)

// Config used to create a new Service
type Config struct {
	Store Store
	Trail audit.Trail
	// zero value means fraud.DefaultRules()
	Rules fraud.Rules
	// nil means no logging
	Logger *zap.Logger
}

// Service coordinates transfers as atomic units of work: lock both rows in
// canonical order, validate against state re-read under those locks, move the
// balances, append the matched debit/credit pair, evaluate fraud rules
// against each new entry, persist any alerts, and record the outcome on the
// audit trail. It is the sole writer of balances, ledger entries and audit
// records.
type Service struct {
	store Store
	trail audit.Trail
	rules fraud.Rules
	log   *zap.Logger
}

func NewService(config Config) *Service {
	if config.Rules == (fraud.Rules{}) {
		config.Rules = fraud.DefaultRules()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Service{
		store: config.Store,
		trail: config.Trail,
		rules: config.Rules,
		log:   config.Logger,
	}
}

// Result reports what a successful transfer produced
type Result struct {
	Record   *audit.Record
	DebitID  int64
	CreditID int64
	// alerts raised against the new entries; advisory, never blocking
	Alerts []*fraud.Alert
}

// Transfer moves amount from the account numbered from to the account
// numbered to, as one atomic unit. Every attempt, successful or not, leaves
// exactly one record on the audit trail; a failure to write that record is
// logged and never masks the primary outcome.
func (s *Service) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, actor string) (*Result, error) {
	result, srcID, dstID, err := s.attempt(ctx, from, to, amount, actor)

	record := &audit.Record{
		SourceID:      srcID,
		DestinationID: dstID,
		Amount:        amount,
		Status:        audit.Success,
		Message:       "completed",
	}
	if err != nil {
		record.Status = audit.Failed
		record.Message = err.Error()
	}

	auditErr := s.trail.Append(ctx, record)
	if auditErr != nil {
		s.log.Error("audit append failed",
			zap.String("source", srcID.String()),
			zap.String("destination", dstID.String()),
			zap.String("status", string(record.Status)),
			zap.Error(auditErr),
		)
	}

	if err != nil {
		return nil, err
	}
	// only a durable record is handed back; when the append failed the
	// transfer still stands, reported without audit evidence
	if auditErr == nil {
		result.Record = record
	}
	return result, nil
}

// attempt runs the locked unit of work. The returned ids identify the
// parties for the audit record; a party that never resolved is uuid.Nil.
func (s *Service) attempt(ctx context.Context, from, to string, amount decimal.Decimal, actor string) (*Result, uuid.UUID, uuid.UUID, error) {
	srcID, dstID := uuid.Nil, uuid.Nil

	// existence and activity are checked before any other precondition;
	// a soft-deactivated account fails the same way as a missing one
	src, err := s.store.ResolveNumber(ctx, from)
	if err != nil {
		return nil, srcID, dstID, err
	}
	srcID = src.ID
	if !src.Active {
		return nil, srcID, dstID, ErrAccountNotFound
	}

	dst, err := s.store.ResolveNumber(ctx, to)
	if err != nil {
		return nil, srcID, dstID, err
	}
	dstID = dst.ID
	if !dst.Active {
		return nil, srcID, dstID, ErrAccountNotFound
	}

	if srcID == dstID {
		return nil, srcID, dstID, ErrSameAccount
	}
	if !amount.IsPositive() {
		return nil, srcID, dstID, ErrInvalidAmount
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, srcID, dstID, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	// lock both rows in canonical ascending order so that concurrent
	// transfers over the same pair in opposite directions cannot deadlock
	ids := []uuid.UUID{srcID, dstID}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	rows, err := tx.LockAccounts(ctx, ids...)
	if err != nil {
		return nil, srcID, dstID, err
	}

	// decide on state re-read under the locks, never on the pre-lock reads
	src, dst = rows[srcID], rows[dstID]
	if src == nil || !src.Active || dst == nil || !dst.Active {
		return nil, srcID, dstID, ErrAccountNotFound
	}
	if src.Balance.LessThan(amount) {
		return nil, srcID, dstID, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	if err := tx.UpdateBalance(ctx, srcID, src.Balance.Sub(amount)); err != nil {
		return nil, srcID, dstID, err
	}
	if err := tx.UpdateBalance(ctx, dstID, dst.Balance.Add(amount)); err != nil {
		return nil, srcID, dstID, err
	}

	debit := &transaction.Transaction{
		AccountID:    srcID,
		Direction:    transaction.Debit,
		Amount:       amount,
		Counterparty: uuid.NullUUID{UUID: dstID, Valid: true},
		CreatedAt:    now,
		Description:  fmt.Sprintf("transfer to %s", dst.Number),
		Actor:        actor,
	}
	if debit.ID, err = tx.AppendEntry(ctx, debit); err != nil {
		return nil, srcID, dstID, err
	}

	credit := &transaction.Transaction{
		AccountID:    dstID,
		Direction:    transaction.Credit,
		Amount:       amount,
		Counterparty: uuid.NullUUID{UUID: srcID, Valid: true},
		CreatedAt:    now,
		Description:  fmt.Sprintf("transfer from %s", src.Number),
		Actor:        actor,
	}
	if credit.ID, err = tx.AppendEntry(ctx, credit); err != nil {
		return nil, srcID, dstID, err
	}

	// every inserted entry is evaluated synchronously, before the caller's
	// operation completes
	var alerts []*fraud.Alert
	for _, entry := range []*transaction.Transaction{debit, credit} {
		window := options.NewDebitWindow().
			SetAmountFloor(s.rules.MediumThreshold).
			SetTrailing(entry.CreatedAt, s.rules.Window)
		history, err := tx.RecentDebits(ctx, entry.AccountID, window)
		if err != nil {
			return nil, srcID, dstID, err
		}
		alerts = append(alerts, s.rules.Evaluate(entry, history)...)
	}
	for _, a := range alerts {
		if err := tx.SaveAlert(ctx, a); err != nil {
			return nil, srcID, dstID, err
		}
	}

	committed = true
	if err := tx.Commit(); err != nil {
		return nil, srcID, dstID, err
	}

	return &Result{
		DebitID:  debit.ID,
		CreditID: credit.ID,
		Alerts:   alerts,
	}, srcID, dstID, nil
}
