package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nodetree/internal/domain/repositories"
)

// execer is implemented by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

func txFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx
}

// executor returns the transaction in ctx or the database handle
func (d *DB) executor(ctx context.Context) execer {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return d.db
}

// TransactionManager runs functions inside a database/sql transaction
type TransactionManager struct {
	d *DB
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(d *DB) repositories.TransactionManager {
	return &TransactionManager{d: d}
}

// ExecTx executes fn within a transaction; nested calls join the outer one.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := tm.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			tm.d.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
