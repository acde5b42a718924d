// Package sync drives the indexer through initial sync, catch-up and live
// block following, recovering from forks on the way.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/clock"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/stream"
)

const (
	DefaultChunkSize        = 1000
	DefaultChainStateEvery  = 20
	DefaultReconnectInitial = time.Second
	DefaultReconnectMax     = time.Minute

	slowBlock = time.Second
)

// Phase is the stage the driver is in.
type Phase string

const (
	PhaseFresh         Phase = "fresh"
	PhaseInitialSync   Phase = "initial_sync"
	PhaseVerifyingHead Phase = "verifying_head"
	PhaseCatchingUp    Phase = "catching_up"
	PhaseLive          Phase = "live"
)

// Status is a snapshot of the driver progress.
type Status struct {
	Phase        Phase
	Head         uint64
	UpstreamHead uint64
	UpdatedAt    time.Time
}

// Config configures a Service.
type Config struct {
	// CheckpointsDir holds <height>.json.lst[.zst] files used by initial sync. Empty disables them.
	CheckpointsDir string
	ChunkSize      int
	TrailBlocks    int
	MaxGap         uint64
	// ChainStateEvery refreshes the chain state row every n live blocks.
	ChainStateEvery  uint64
	Schedule         stream.ScheduleConfig
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxGap == 0 {
		c.MaxGap = stream.DefaultMaxGap
	}
	if c.ChainStateEvery == 0 {
		c.ChainStateEvery = DefaultChainStateEvery
	}
	if c.ReconnectInitial <= 0 {
		c.ReconnectInitial = DefaultReconnectInitial
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = DefaultReconnectMax
	}
	return c
}

// Service runs the sync state machine.
type Service struct {
	state    State
	applier  Applier
	upstream Upstream
	archive  Archive
	metrics  Metrics
	logger   *zap.Logger
	cfg      Config

	openStream func(start uint64) (BlockStream, error)
	sleep      func(context.Context, time.Duration) error
	now        func() time.Time
	reconnect  backoff.BackOff

	status atomic.Pointer[Status]
}

// New constructs a Service. archive may be nil.
func New(
	state State,
	applier Applier,
	upstream Upstream,
	archive Archive,
	metrics Metrics,
	scheduleMetrics stream.ScheduleMetrics,
	clk clock.Clock,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	if state == nil {
		return nil, errors.New("sync state is required")
	}
	if applier == nil {
		return nil, errors.New("applier is required")
	}
	if upstream == nil {
		return nil, errors.New("upstream is required")
	}
	if metrics == nil {
		return nil, errors.New("sync metrics is required")
	}
	if scheduleMetrics == nil {
		return nil, errors.New("schedule metrics is required")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.TrailBlocks < 0 || cfg.TrailBlocks > stream.MaxTrailBlocks {
		return nil, fmt.Errorf("trail blocks must be within 0..%d, got %d", stream.MaxTrailBlocks, cfg.TrailBlocks)
	}
	if archive == nil {
		archive = nopArchive{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	logger = logger.Named("sync")

	reconnect := backoff.NewExponentialBackOff()
	reconnect.InitialInterval = cfg.ReconnectInitial
	reconnect.MaxInterval = cfg.ReconnectMax
	reconnect.MaxElapsedTime = 0

	s := &Service{
		state:     state,
		applier:   applier,
		upstream:  upstream,
		archive:   archive,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		sleep:     clk.Sleep,
		now:       clk.Now,
		reconnect: reconnect,
	}
	s.openStream = func(start uint64) (BlockStream, error) {
		return stream.New(upstream, stream.Config{
			StartHeight: start,
			TrailBlocks: cfg.TrailBlocks,
			MaxGap:      cfg.MaxGap,
			Schedule:    cfg.Schedule,
		}, clk, scheduleMetrics, logger)
	}
	s.status.Store(&Status{Phase: PhaseFresh})
	return s, nil
}

// Status returns the current phase and heights.
func (s *Service) Status() Status {
	return *s.status.Load()
}

// Run syncs until ctx is done or a fatal condition is hit.
func (s *Service) Run(ctx context.Context) error {
	head, err := s.state.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}
	s.setHead(head.Num, 0)

	initial, err := s.state.IsInitialSync(ctx)
	if err != nil {
		return fmt.Errorf("read initial sync flag: %w", err)
	}

	if initial {
		for {
			err := s.initial(ctx)
			if err == nil {
				break
			}
			if !retryable(err) {
				return err
			}
			if err := s.backoff(ctx, err); err != nil {
				return err
			}
		}
	} else if err := s.verifyHead(ctx, model.ForkEvent{Kind: model.ForkKindHead}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setPhase(PhaseCatchingUp)
		if err := s.fromSteemd(ctx, false); err != nil {
			if err := s.recoverFrom(ctx, err); err != nil {
				return err
			}
			continue
		}

		s.setPhase(PhaseLive)
		if err := s.listen(ctx); err != nil {
			if err := s.recoverFrom(ctx, err); err != nil {
				return err
			}
		}
	}
}

func (s *Service) initial(ctx context.Context) error {
	s.setPhase(PhaseInitialSync)
	s.logger.Info("initial fast sync")

	if err := s.fromCheckpoints(ctx); err != nil {
		return err
	}
	if err := s.fromSteemd(ctx, true); err != nil {
		return err
	}

	s.logger.Info("initial cache build")
	if err := s.state.RebuildFeedCache(ctx); err != nil {
		return fmt.Errorf("rebuild feed cache: %w", err)
	}
	if err := s.state.RecountFollows(ctx); err != nil {
		return fmt.Errorf("recount follows: %w", err)
	}
	if err := s.state.FinishInitialSync(ctx); err != nil {
		return fmt.Errorf("finish initial sync: %w", err)
	}
	s.logger.Info("initial sync complete", zap.Uint64("head", s.Status().Head))
	return nil
}

// fromSteemd applies blocks up to the last irreversible one in chunks.
func (s *Service) fromSteemd(ctx context.Context, initialSync bool) error {
	head, err := s.state.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}
	lo := head.Num + 1
	hi, err := s.upstream.LastIrreversible(ctx)
	if err != nil {
		return fmt.Errorf("read last irreversible block: %w", err)
	}
	if hi <= lo {
		return nil
	}

	s.logger.Info("catching up",
		zap.Uint64("from", lo),
		zap.Uint64("to", hi),
		zap.Uint64("remaining", hi-lo),
		zap.Bool("initial_sync", initialSync))

	chunk := uint64(s.cfg.ChunkSize)
	for lo < hi {
		to := min(lo+chunk, hi)
		blocks, err := s.upstream.GetBlocksRange(ctx, lo, to)
		if err != nil {
			return fmt.Errorf("fetch blocks [%d, %d): %w", lo, to, err)
		}
		if _, err := s.processChunk(ctx, blocks, initialSync, hi); err != nil {
			return err
		}
		lo = to
	}
	return nil
}

func (s *Service) processChunk(ctx context.Context, blocks []*model.Block, initialSync bool, upstreamHead uint64) (uint64, error) {
	if len(blocks) == 0 {
		return 0, nil
	}
	started := time.Now()
	last, err := s.applier.ProcessMulti(ctx, blocks, initialSync)
	s.metrics.ObserveBatch(err, len(blocks), started)
	if err != nil {
		return 0, err
	}

	s.setHead(last, upstreamHead)
	for _, block := range blocks {
		s.archiveBlock(ctx, block)
	}
	s.logger.Info("synced batch",
		zap.Uint64("block", last),
		zap.Time("timestamp", blocks[len(blocks)-1].Timestamp.Time),
		zap.Int("blocks", len(blocks)),
		zap.Duration("took", time.Since(started)))
	return last, nil
}

// listen follows the chain head one committed block at a time. It only
// returns with an error.
func (s *Service) listen(ctx context.Context) error {
	head, err := s.state.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}
	blocks, err := s.openStream(head.Num + 1)
	if err != nil {
		return fmt.Errorf("open stream at %d: %w", head.Num+1, err)
	}

	for {
		block, err := blocks.Next(ctx)
		if err != nil {
			return err
		}

		started := time.Now()
		num, err := s.processLive(ctx, block)
		if err != nil {
			return fmt.Errorf("process block %d: %w", block.Num, err)
		}
		took := time.Since(started)
		s.metrics.ObserveBlock(num, blocks.Head(), started)
		s.reconnect.Reset()
		s.setHead(num, blocks.Head())

		s.logger.Info("live block",
			zap.Uint64("block", num),
			zap.Time("timestamp", block.Timestamp.Time),
			zap.Int("txs", len(block.Transactions)),
			zap.Int("ops", block.OperationCount()),
			zap.Duration("took", took),
			zap.Bool("slow", took > slowBlock))

		if num%s.cfg.ChainStateEvery == 0 {
			if err := s.updateChainState(ctx); err != nil {
				s.logger.Warn("chain state not updated", zap.Uint64("block", num), zap.Error(err))
			}
		}
		s.archiveBlock(ctx, block)
	}
}

// processLive applies one block in its own transaction.
func (s *Service) processLive(ctx context.Context, block *model.Block) (uint64, error) {
	tx, err := s.state.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	num, err := s.applier.Process(ctx, tx, block)
	if err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logger.Error("transaction rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
		}
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit block %d: %w", num, err)
	}
	return num, nil
}

func (s *Service) updateChainState(ctx context.Context) error {
	chain, err := s.upstream.ChainState(ctx)
	if err != nil {
		return err
	}
	return s.state.UpdateChainState(ctx, chain)
}

// verifyHead pops persisted blocks the upstream no longer has and records
// the fork when anything was popped or the caller saw one.
func (s *Service) verifyHead(ctx context.Context, event model.ForkEvent) error {
	s.setPhase(PhaseVerifyingHead)

	head, err := s.state.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}
	popped, err := s.applier.VerifyHead(ctx)
	if err != nil {
		return fmt.Errorf("verify head: %w", err)
	}
	if popped == 0 && event.Kind == model.ForkKindHead {
		return nil
	}

	if event.Height == 0 {
		event.Height = head.Num
		event.ExpectedPrev = head.Hash
	}
	event.Popped = popped
	s.recordFork(ctx, event)

	if popped > 0 {
		if err := s.state.RecountFollows(ctx); err != nil {
			return fmt.Errorf("recount follows: %w", err)
		}
		after, err := s.state.HeadBlock(ctx)
		if err != nil {
			return fmt.Errorf("read head block: %w", err)
		}
		s.setHead(after.Num, 0)
	}
	return nil
}

func (s *Service) recordFork(ctx context.Context, event model.ForkEvent) {
	event.DetectedAt = s.now().UTC()
	s.metrics.ObserveFork(event.Kind, event.Popped)
	s.logger.Warn("fork recorded",
		zap.String("kind", event.Kind),
		zap.Uint64("height", event.Height),
		zap.String("expected_prev", event.ExpectedPrev),
		zap.String("received_prev", event.ReceivedPrev),
		zap.Int("popped", event.Popped))
	if err := s.archive.RecordFork(ctx, event); err != nil {
		s.logger.Warn("fork event not archived", zap.Error(err))
	}
}

func (s *Service) archiveBlock(ctx context.Context, block *model.Block) {
	if err := s.archive.ArchiveBlock(ctx, block); err != nil {
		s.logger.Warn("block not archived", zap.Uint64("block", block.Num), zap.Error(err))
	}
}

func (s *Service) backoff(ctx context.Context, cause error) error {
	wait := s.reconnect.NextBackOff()
	if wait == backoff.Stop {
		return cause
	}
	s.logger.Warn("upstream unavailable, reconnecting", zap.Error(cause), zap.Duration("wait", wait))
	return s.sleep(ctx, wait)
}

func (s *Service) setPhase(phase Phase) {
	st := s.Status()
	if st.Phase == phase {
		return
	}
	st.Phase = phase
	st.UpdatedAt = s.now()
	s.status.Store(&st)
	s.metrics.ObservePhase(string(phase))
	s.logger.Info("phase changed", zap.String("phase", string(phase)))
}

// setHead stores the persisted head; upstream 0 keeps the last known upstream head.
func (s *Service) setHead(head, upstream uint64) {
	st := s.Status()
	st.Head = head
	if upstream > 0 {
		st.UpstreamHead = upstream
	}
	st.UpdatedAt = s.now()
	s.status.Store(&st)
}

type nopArchive struct{}

func (nopArchive) ArchiveBlock(context.Context, *model.Block) error { return nil }

func (nopArchive) RecordFork(context.Context, model.ForkEvent) error { return nil }
