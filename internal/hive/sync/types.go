package sync

import (
	"context"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// State is the persisted side of the sync driver.
	State interface {
		Begin(ctx context.Context) (indexer.Tx, error)
		HeadBlock(ctx context.Context) (model.BlockRecord, error)
		IsInitialSync(ctx context.Context) (bool, error)
		FinishInitialSync(ctx context.Context) error
		RebuildFeedCache(ctx context.Context) error
		RecountFollows(ctx context.Context) error
		UpdateChainState(ctx context.Context, chain model.ChainState) error
	}
	// Applier writes blocks to State.
	Applier interface {
		Process(ctx context.Context, tx indexer.Tx, block *model.Block) (uint64, error)
		ProcessMulti(ctx context.Context, blocks []*model.Block, initialSync bool) (uint64, error)
		VerifyHead(ctx context.Context) (int, error)
	}
	// Upstream is the steemd view used for catching up and streaming.
	Upstream interface {
		GetBlock(ctx context.Context, height uint64) (*model.Block, error)
		GetBlocksRange(ctx context.Context, lo, hi uint64) ([]*model.Block, error)
		HeadBlock(ctx context.Context) (uint64, error)
		LastIrreversible(ctx context.Context) (uint64, error)
		ChainState(ctx context.Context) (model.ChainState, error)
	}
	// BlockStream yields live blocks in order.
	BlockStream interface {
		Next(ctx context.Context) (*model.Block, error)
		Head() uint64
	}
	// Archive receives applied blocks and observed forks.
	Archive interface {
		ArchiveBlock(ctx context.Context, block *model.Block) error
		RecordFork(ctx context.Context, event model.ForkEvent) error
	}
	// Metrics records sync progress.
	Metrics interface {
		ObserveBatch(err error, blocks int, started time.Time)
		ObserveBlock(num, head uint64, started time.Time)
		ObserveFork(kind string, popped int)
		ObservePhase(phase string)
	}
)
