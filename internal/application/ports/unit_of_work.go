// Package ports - UnitOfWork bounds one atomic database transaction.
// A ledger entry and the balance write it implies must commit or roll back
// together; the unit of work is what guarantees it.
package ports

import "context"

// UnitOfWork executes a function inside one transaction.
//
// Behavior:
// - fn returns nil: COMMIT
// - fn returns an error: ROLLBACK, the error propagates unchanged
// - repositories called inside fn must use the context fn receives, which
//   carries the transaction
// - when ctx already carries a transaction, fn joins it; commit and
//   rollback then belong to the transaction's owner
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(context.Context) error) error

	// InTransaction reports whether ctx already carries a transaction,
	// meaning an Execute call would join it instead of opening its own.
	// Retry loops must not rerun inside a joined transaction: the failed
	// attempt's writes were not rolled back.
	InTransaction(ctx context.Context) bool
}
