package clickhouse

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/pkg/batcher"
)

// ArchiveWriter buffers applied blocks and flushes them in batches.
// Fork events are rare and written directly. A block that finds the buffer
// full is dropped and counted; archiving never holds up sync.
type ArchiveWriter struct {
	repo    ArchiveRepository
	blocks  *batcher.Batcher[*model.Block]
	metrics Metrics
	logger  *zap.Logger
}

// NewArchiveWriter constructs an ArchiveWriter. Call Start before use.
func NewArchiveWriter(repo ArchiveRepository, metrics Metrics, cfg batcher.Config, logger *zap.Logger) (*ArchiveWriter, error) {
	if repo == nil {
		return nil, errors.New("archive repository is required")
	}
	if metrics == nil {
		return nil, errors.New("metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("archive")
	return &ArchiveWriter{
		repo:    repo,
		blocks:  batcher.New(logger, repo.InsertBlocks, cfg),
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Start runs the flush loop until ctx is done or Stop is called.
func (w *ArchiveWriter) Start(ctx context.Context) {
	w.blocks.Start(ctx)
}

// Stop flushes buffered blocks and waits for the loop to exit.
func (w *ArchiveWriter) Stop() {
	w.blocks.Stop()
}

// ArchiveBlock queues a block for archiving without waiting for the flush loop.
func (w *ArchiveWriter) ArchiveBlock(_ context.Context, block *model.Block) error {
	err := w.blocks.TryAdd(block)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, batcher.ErrFull):
		w.metrics.ObserveDropped("archive_block", 1)
		w.logger.Warn("archive buffer full, block dropped", zap.Uint64("block", block.Num))
		return nil
	default:
		return fmt.Errorf("queue block %d: %w", block.Num, err)
	}
}

// RecordFork writes a fork event.
func (w *ArchiveWriter) RecordFork(ctx context.Context, event model.ForkEvent) error {
	if err := w.repo.InsertForkEvents(ctx, []model.ForkEvent{event}); err != nil {
		return fmt.Errorf("record fork at %d: %w", event.Height, err)
	}
	w.logger.Debug("fork recorded", zap.String("kind", event.Kind), zap.Uint64("height", event.Height))
	return nil
}
