package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

// VerifyHead compares the persisted head with upstream, walking back until
// the hashes agree, and pops every diverged block. It returns the number of
// popped blocks.
func (a *Applier) VerifyHead(ctx context.Context) (int, error) {
	head, err := a.store.HeadBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("read head block: %w", err)
	}
	if head.Num == 0 {
		return 0, nil
	}

	var toPop []model.BlockRecord
	cursor := head.Num
	for {
		if head.Num-cursor >= uint64(a.maxForkDepth) {
			return 0, fmt.Errorf("%w: no common block within %d of head %d", ErrForkTooDeep, a.maxForkDepth, head.Num)
		}
		persisted, err := a.store.Block(ctx, cursor)
		if err != nil {
			return 0, fmt.Errorf("read block %d: %w", cursor, err)
		}
		if persisted == nil {
			return 0, fmt.Errorf("persisted block %d is missing", cursor)
		}
		upstream, err := a.upstream.GetBlock(ctx, cursor)
		if err != nil {
			return 0, fmt.Errorf("fetch block %d: %w", cursor, err)
		}
		if upstream == nil {
			return 0, fmt.Errorf("block %d is not available upstream", cursor)
		}

		match := persisted.Hash == upstream.ID
		a.logger.Info("fork check",
			zap.Uint64("block", cursor),
			zap.String("persisted", persisted.Hash),
			zap.String("upstream", upstream.ID),
			zap.Bool("match", match))
		if match {
			break
		}
		toPop = append(toPop, *persisted)
		cursor--
		if cursor == 0 {
			return 0, fmt.Errorf("%w: persisted chain diverges from upstream down to block 1", ErrForkTooDeep)
		}
	}

	if cursor == head.Num {
		return 0, nil
	}
	a.logger.Warn("fork detected, popping blocks",
		zap.Uint64("depth", head.Num-cursor),
		zap.Uint64("from", cursor+1),
		zap.Uint64("to", head.Num))

	irreversible, err := a.upstream.LastIrreversible(ctx)
	if err != nil {
		return 0, fmt.Errorf("read last irreversible block: %w", err)
	}
	if deepest := cursor + 1; deepest <= irreversible {
		return 0, fmt.Errorf("%w: block %d is at or below last irreversible %d", ErrIrreversibleRollback, deepest, irreversible)
	}

	if _, err := a.Rollback(ctx, toPop); err != nil {
		return 0, err
	}
	return len(toPop), nil
}

// Rollback pops blocks, newest first, in one transaction. Rows derived from
// each block are found by timestamp, so follow counters are not reverted.
func (a *Applier) Rollback(ctx context.Context, blocks []model.BlockRecord) (popped []model.PopResult, err error) {
	started := time.Now()
	defer func() {
		a.metrics.ObserveRollback(err, len(blocks), started)
	}()

	err = withTx(ctx, a.store, a.logger, func(tx Tx) error {
		popped = popped[:0]
		for _, block := range blocks {
			res, err := a.pop(ctx, tx, block)
			if err != nil {
				return err
			}
			popped = append(popped, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("fork recovery complete", zap.Int("popped", len(popped)))
	return popped, nil
}

func (a *Applier) pop(ctx context.Context, tx Tx, block model.BlockRecord) (model.PopResult, error) {
	head, err := tx.HeadBlock(ctx)
	if err != nil {
		return model.PopResult{}, fmt.Errorf("read head block: %w", err)
	}
	if head.Num != block.Num {
		return model.PopResult{}, fmt.Errorf("%w: popping %d, head is %d", ErrNotHead, block.Num, head.Num)
	}
	a.logger.Warn("popping block", zap.Uint64("block", block.Num), zap.Time("created_at", block.CreatedAt))

	since := block.CreatedAt
	res := model.PopResult{Num: block.Num}
	ids, err := tx.PostIDsSince(ctx, since)
	if err != nil {
		return res, fmt.Errorf("list posts since %s: %w", since, err)
	}
	if res.FeedCache, err = tx.DeleteFeedCacheSince(ctx, since); err != nil {
		return res, fmt.Errorf("delete feed cache: %w", err)
	}
	if res.Reblogs, err = tx.DeleteReblogsSince(ctx, since); err != nil {
		return res, fmt.Errorf("delete reblogs: %w", err)
	}
	if res.Follows, err = tx.DeleteFollowsSince(ctx, since); err != nil {
		return res, fmt.Errorf("delete follows: %w", err)
	}
	if res.PostTags, err = tx.DeletePostTags(ctx, ids); err != nil {
		return res, fmt.Errorf("delete post tags: %w", err)
	}
	if res.Posts, err = tx.DeletePosts(ctx, ids); err != nil {
		return res, fmt.Errorf("delete posts: %w", err)
	}
	if err := tx.DeleteBlock(ctx, block.Num); err != nil {
		return res, fmt.Errorf("delete block %d: %w", block.Num, err)
	}
	res.BlockCount = 1
	return res, nil
}
