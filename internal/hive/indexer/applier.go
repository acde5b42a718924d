// Package indexer applies blocks to the persisted projection and rolls the
// projection back when the chain forks under it.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

const (
	DefaultMaxForkDepth = 25

	// blocks above this height are expected to carry at least one indexed op
	noopWarnHeight = 20_000_000
)

// Config configures an Applier.
type Config struct {
	MaxForkDepth int
}

// Applier is the only writer of the projection.
type Applier struct {
	store        Store
	upstream     Upstream
	metrics      Metrics
	logger       *zap.Logger
	maxForkDepth int
}

// New constructs an Applier.
func New(store Store, upstream Upstream, metrics Metrics, cfg Config, logger *zap.Logger) (*Applier, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if upstream == nil {
		return nil, errors.New("upstream is required")
	}
	if metrics == nil {
		return nil, errors.New("applier metrics is required")
	}
	if cfg.MaxForkDepth <= 0 {
		cfg.MaxForkDepth = DefaultMaxForkDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{
		store:        store,
		upstream:     upstream,
		metrics:      metrics,
		logger:       logger.Named("applier"),
		maxForkDepth: cfg.MaxForkDepth,
	}, nil
}

// Process applies one block inside tx in live mode, including its follow
// counter changes. The caller owns tx and commits it.
func (a *Applier) Process(ctx context.Context, tx Tx, block *model.Block) (num uint64, err error) {
	started := time.Now()
	defer func() {
		a.metrics.ObserveProcess(err, 1, started)
	}()

	if tx == nil {
		return 0, ErrNoTransaction
	}
	deltas := newFollowDeltas()
	if num, err = a.apply(ctx, tx, block, false, deltas); err != nil {
		return 0, err
	}
	if err = deltas.flush(ctx, tx); err != nil {
		return 0, err
	}
	return num, nil
}

// ProcessMulti applies blocks in one transaction. Nothing is committed if any
// block fails or ctx is canceled.
func (a *Applier) ProcessMulti(ctx context.Context, blocks []*model.Block, initialSync bool) (last uint64, err error) {
	if len(blocks) == 0 {
		return 0, nil
	}
	started := time.Now()
	defer func() {
		a.metrics.ObserveProcess(err, len(blocks), started)
	}()

	err = withTx(ctx, a.store, a.logger, func(tx Tx) error {
		deltas := newFollowDeltas()
		for _, block := range blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			num, err := a.apply(ctx, tx, block, initialSync, deltas)
			if err != nil {
				return fmt.Errorf("could not process block %d: %w", block.Num, err)
			}
			last = num
		}
		return deltas.flush(ctx, tx)
	})
	if err != nil {
		return 0, err
	}
	return last, nil
}

// apply writes the block row and dispatches its operations in source order.
func (a *Applier) apply(ctx context.Context, tx Tx, block *model.Block, initialSync bool, deltas *followDeltas) (uint64, error) {
	head, err := tx.HeadBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("read head block: %w", err)
	}
	if block.Num != head.Num+1 || block.Previous != head.Hash {
		return 0, fmt.Errorf("%w: head %d (%s), block %d prev %s",
			ErrBlockLink, head.Num, head.Hash, block.Num, block.Previous)
	}
	if err := tx.InsertBlock(ctx, block.Record()); err != nil {
		return 0, fmt.Errorf("insert block %d: %w", block.Num, err)
	}

	op := &blockOps{
		tx:          tx,
		num:         block.Num,
		date:        block.Timestamp.Time,
		initialSync: initialSync,
		deltas:      deltas,
		logger:      a.logger.With(zap.Uint64("block", block.Num)),
	}
	indexed := 0
	for txIdx, trx := range block.Transactions {
		for opIdx, operation := range trx.Operations {
			handled, err := op.dispatch(ctx, operation)
			if err != nil {
				return 0, fmt.Errorf("block %d tx %d op %d (%s): %w", block.Num, txIdx, opIdx, operation.OpType(), err)
			}
			if handled {
				indexed++
			}
		}
	}

	if block.Num > noopWarnHeight && indexed == 0 {
		a.logger.Warn("block has no indexed operations",
			zap.Uint64("block", block.Num),
			zap.Int("transactions", len(block.Transactions)))
	}
	return block.Num, nil
}

// blockOps holds the per-block context operations are applied with.
type blockOps struct {
	tx          Tx
	num         uint64
	date        time.Time
	initialSync bool
	deltas      *followDeltas
	logger      *zap.Logger
}

// dispatch applies one operation and reports whether it was of an indexed kind.
func (b *blockOps) dispatch(ctx context.Context, operation model.Operation) (bool, error) {
	switch op := operation.(type) {
	case model.AccountCreateOperation:
		if op.Account == "" {
			return true, nil
		}
		return true, b.tx.RegisterAccounts(ctx, []string{op.Account}, b.date)
	case model.CommentOperation:
		return true, b.comment(ctx, op)
	case model.DeleteCommentOperation:
		return true, b.deleteComment(ctx, op)
	case model.VoteOperation:
		if b.initialSync {
			return false, nil
		}
		return true, b.vote(ctx, op)
	case model.CustomJSONOperation:
		return true, b.customJSON(ctx, op)
	case model.UnknownOperation:
		return false, nil
	default:
		return false, fmt.Errorf("unhandled operation type %T", operation)
	}
}
