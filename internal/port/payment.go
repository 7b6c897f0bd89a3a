package port

import (
	"context"
	"errors"
)

// ErrInsufficientBalance is returned by Transfer when the source account
// cannot cover the amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger is the fungible-asset payment rail. Amounts are micro-units
// (10,000,000 micro-units = 1 whole unit). Transfer is atomic; a failed
// transfer aborts the calling operation.
type Ledger interface {
	// Balance returns the account balance in micro-units.
	Balance(ctx context.Context, account string) (int64, error)

	// Transfer moves amount micro-units between accounts, or returns
	// ErrInsufficientBalance without moving anything.
	Transfer(ctx context.Context, from, to string, amount int64) error
}
