package models

import (
	"errors"
	"fmt"
)

// Business-rule failures. All of them are detected before any store write.
var (
	ErrNotFound          = errors.New("not found")
	ErrLimitExceeded     = errors.New("account limit exceeded")
	ErrOwnershipMismatch = errors.New("account is not owned by user")
	ErrClosedAccount     = errors.New("account is closed")
	ErrAlreadyClosed     = errors.New("account is already closed")
	ErrBalanceNotZero    = errors.New("account balance is not zero")
	ErrInvalidAmount     = errors.New("invalid transaction amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountMismatch   = errors.New("transaction does not belong to account")
	ErrAmountMismatch    = errors.New("cancel amount does not match original transaction")
	ErrInvalidState      = errors.New("balance of a closed account cannot change")
)

// ErrDuplicateAccountNumber is returned by a store when an insert would reuse
// an account number already held by another account.
var ErrDuplicateAccountNumber = errors.New("account number already exists")

// NotFound reports a missing resource, e.g. "user not found". It matches
// ErrNotFound under errors.Is.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}
