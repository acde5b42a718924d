package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/safe"
)

const insertBlocksQuery = `
INSERT INTO hive_block_archive (
	num,
	hash,
	prev,
	witness,
	created_at,
	tx_count,
	op_count,
	raw
) VALUES`

// InsertBlocks archives applied blocks. Re-inserting a height replaces it.
func (r *Repository) InsertBlocks(ctx context.Context, blocks []*model.Block) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_blocks", err, start)
	}()

	if len(blocks) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertBlocksQuery)
	if err != nil {
		return fmt.Errorf("prepare blocks batch: %w", err)
	}

	for _, block := range blocks {
		var txCount, opCount int32
		if txCount, err = safe.Int32(len(block.Transactions)); err != nil {
			_ = batch.Abort()
			return err
		}
		if opCount, err = safe.Int32(block.OperationCount()); err != nil {
			_ = batch.Abort()
			return err
		}
		if err = batch.Append(
			block.Num,
			block.ID,
			block.Previous,
			block.Witness,
			block.Timestamp.Time,
			uint32(txCount),
			uint32(opCount),
			string(block.Raw),
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append block %d: %w", block.Num, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert blocks: %w", err)
	}
	return nil
}
