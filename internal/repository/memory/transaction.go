package memory

import (
	"context"

	"nodetree/internal/domain/repositories"
)

// TransactionManager runs fn directly. Atomicity of a cascade comes from
// NodeStore.Delete removing every id under one lock.
type TransactionManager struct{}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return TransactionManager{}
}

func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
