package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/indexer"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"go.uber.org/zap"
)

var t0 = time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)

func blockID(num uint64) string {
	return fmt.Sprintf("%08x%032x", num, 0)
}

func testBlock(num uint64) *model.Block {
	prev := model.ZeroHash
	if num > 1 {
		prev = blockID(num - 1)
	}
	return &model.Block{
		Num:       num,
		ID:        blockID(num),
		Previous:  prev,
		Timestamp: model.Time{Time: t0.Add(time.Duration(num) * 3 * time.Second)},
		Witness:   "initminer",
	}
}

func testBlocks(from, to uint64) []*model.Block {
	blocks := make([]*model.Block, 0, to-from+1)
	for n := from; n <= to; n++ {
		blocks = append(blocks, testBlock(n))
	}
	return blocks
}

// checkpointLine renders a block the way steemd returns it.
func checkpointLine(num uint64) string {
	b := testBlock(num)
	return fmt.Sprintf(`{"block_id":%q,"previous":%q,"timestamp":%q,"witness":%q,"transactions":[]}`,
		b.ID, b.Previous, b.Timestamp.Format(model.TimeLayout), b.Witness)
}

// chain serves a linear chain of blocks 1..head.
type chain struct {
	head  uint64
	lib   uint64
	state model.ChainState
}

func (c *chain) GetBlock(_ context.Context, height uint64) (*model.Block, error) {
	if height == 0 || height > c.head {
		return nil, nil
	}
	return testBlock(height), nil
}

func (c *chain) GetBlocksRange(_ context.Context, lo, hi uint64) ([]*model.Block, error) {
	if hi <= lo {
		return nil, nil
	}
	return testBlocks(lo, hi-1), nil
}

func (c *chain) HeadBlock(context.Context) (uint64, error) {
	return c.head, nil
}

func (c *chain) LastIrreversible(context.Context) (uint64, error) {
	return c.lib, nil
}

func (c *chain) ChainState(context.Context) (model.ChainState, error) {
	return c.state, nil
}

// sliceStream releases blocks then fails with err.
type sliceStream struct {
	blocks []*model.Block
	head   uint64
	err    error
}

func (s *sliceStream) Next(ctx context.Context) (*model.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.blocks) == 0 {
		return nil, s.err
	}
	b := s.blocks[0]
	s.blocks = s.blocks[1:]
	return b, nil
}

func (s *sliceStream) Head() uint64 {
	return s.head
}

// recordingArchive keeps what the service archived.
type recordingArchive struct {
	blocks []uint64
	forks  []model.ForkEvent
}

func (a *recordingArchive) ArchiveBlock(_ context.Context, block *model.Block) error {
	a.blocks = append(a.blocks, block.Num)
	return nil
}

func (a *recordingArchive) RecordFork(_ context.Context, event model.ForkEvent) error {
	a.forks = append(a.forks, event)
	return nil
}

// stubTx records how a live block transaction ended.
type stubTx struct {
	indexer.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *stubTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *stubTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type nopScheduleMetrics struct{}

func (nopScheduleMetrics) ObserveMissed(uint64)       {}
func (nopScheduleMetrics) ObserveDrift(time.Duration) {}
func (nopScheduleMetrics) ObserveIdle(time.Duration)  {}

type nopApplierMetrics struct{}

func (nopApplierMetrics) ObserveProcess(error, int, time.Time)  {}
func (nopApplierMetrics) ObserveRollback(error, int, time.Time) {}

func newTestService(t *testing.T, state State, applier Applier, upstream Upstream, archive Archive, metrics Metrics, cfg Config) *Service {
	t.Helper()
	s, err := New(state, applier, upstream, archive, metrics, nopScheduleMetrics{}, clock.NewManual(t0), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}
