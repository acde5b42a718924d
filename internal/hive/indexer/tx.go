package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// withTx runs fn inside a transaction, committing only when fn succeeds.
// A panic rolls the transaction back and is re-raised.
func withTx(ctx context.Context, store Store, logger *zap.Logger, fn func(tx Tx) error) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	rollback := func(cause any) {
		// the rollback must run even when ctx is already canceled
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error("transaction rollback failed", zap.Error(rbErr), zap.Any("cause", cause))
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(p)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollback(err)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		rollback(err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
