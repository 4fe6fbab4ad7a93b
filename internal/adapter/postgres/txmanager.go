package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// txBeginner is the slice of the pool the TxManager needs. *pgxpool.Pool
// satisfies it.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager manages database transactions using the context pattern.
// Nested RunInTx calls are NOT supported — use RunInSavepoint inside a
// RunInTx callback when a sub-unit of work needs independent rollback.
type TxManager struct {
	pool txBeginner
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool txBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx executes fn within a database transaction.
// Isolation level: Read Committed (PostgreSQL default).
// On success: commits.
// On error from fn: rolls back and returns the error.
// On panic from fn: rolls back and re-panics.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	txCtx := withTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RunInSavepoint executes fn within a savepoint on the transaction carried
// by ctx (pgx maps nested Begin onto SAVEPOINT). An error from fn rolls
// back the savepoint only — the outer transaction stays usable, which is
// what gives batch reconciliation its per-item error isolation.
//
// Called outside RunInTx, it falls back to a regular transaction.
func (m *TxManager) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	outer, ok := txFromCtx(ctx)
	if !ok {
		return m.RunInTx(ctx, fn)
	}

	inner, err := outer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	if err := fn(withTx(ctx, inner)); err != nil {
		if rbErr := inner.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback savepoint failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := inner.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}

	return nil
}
