package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound indicates that a party does not resolve to an
	// existing, active account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSameAccount indicates that source and destination are the same account.
	ErrSameAccount = errors.New("source and destination are the same account")
	// ErrInvalidAmount indicates a transfer amount that is not strictly positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInsufficientFunds indicates that the source balance, read under lock,
	// does not cover the transfer amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLockTimeout indicates that a row lock could not be acquired within
	// the configured timeout.
	ErrLockTimeout = errors.New("lock wait timed out")
)

// StorageError wraps an underlying persistence failure so callers can
// inspect the driver error with errors.As while still matching on the kind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
