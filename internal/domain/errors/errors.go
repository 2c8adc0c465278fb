package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrRuleLookupFailed reports that reward rules could not be read from the store.
	ErrRuleLookupFailed = errors.New("rule lookup failed")
	// ErrInvalidLineInput rejects negative prices, non-positive quantities and empty orders.
	ErrInvalidLineInput = errors.New("invalid line input")
	// ErrAccrualFailed wraps any failure that aborted accrual of an order.
	ErrAccrualFailed = errors.New("accrual failed")
	// ErrLedgerWriteConflict signals a uniqueness violation on (user, order) ledger insert.
	ErrLedgerWriteConflict = errors.New("ledger write conflict")
	// ErrAccrualDeferred means accrual failed and the order was queued for retry.
	ErrAccrualDeferred = errors.New("accrual deferred")
)
