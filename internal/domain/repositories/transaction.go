package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles store transactions.
// Store calls made with the ctx passed to fn participate in the transaction.
type TransactionManager interface {
	// ExecTx executes fn within a transaction. The transaction is committed when
	// fn returns nil and rolled back otherwise.
	ExecTx(ctx context.Context, fn TxFn) error
}
