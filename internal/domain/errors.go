package domain

import (
	"errors"
	"fmt"
)

// ErrStatementUnreadable means the uploaded statement could not be decoded
// into rows and fields at all. No transactions are produced.
var ErrStatementUnreadable = errors.New("statement is not readable")

// ErrRunNotFound means no in-memory run exists for the given id (runs do not
// survive a restart; the statement must be re-uploaded).
var ErrRunNotFound = errors.New("run not found")

// ErrTransactionNotFound means the run holds no unconfirmed transaction with
// the given receipt id in the relevant partition.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrTenantNotFound means the tenant directory has no entry for the given id.
var ErrTenantNotFound = errors.New("tenant not found")

// DuplicateReceiptError is returned when a confirmation is attempted for a
// receipt that already has a payment record.
type DuplicateReceiptError struct {
	ReceiptID string
}

func (e *DuplicateReceiptError) Error() string {
	return fmt.Sprintf("payment already recorded for receipt %s", e.ReceiptID)
}
