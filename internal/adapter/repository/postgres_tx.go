package repository

import (
	"context"
	"fmt"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// InjectTx returns a context carrying the open transaction. Repositories in
// this package route their statements through it when present.
func InjectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// ExtractTx returns the transaction carried by ctx, or nil.
func ExtractTx(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

type pgxTransactionManager struct {
	pool *pgxpool.Pool
}

// NewPgxTransactionManager creates a TransactionManager over a pgx pool.
func NewPgxTransactionManager(pool *pgxpool.Pool) domain.TransactionManager {
	return &pgxTransactionManager{pool: pool}
}

// RunInTx begins a transaction, runs fn with the transaction injected into
// the context, and commits. Any error or panic rolls back.
func (tm *pgxTransactionManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(InjectTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
